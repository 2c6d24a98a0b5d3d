//go:build integration
// +build integration

package logging_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/gcp/auth"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/logging"
)

// TestIntegrationWrite writes to a real project. There is no Cloud Logging
// emulator, so the test needs GCP_TEST_PROJECT and application default credentials.
func TestIntegrationWrite(t *testing.T) {
	project := os.Getenv("GCP_TEST_PROJECT")
	if project == "" {
		t.Skip("GCP_TEST_PROJECT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := logging.New(ctx, &auth.Config{ProjectID: project}, logging.WithLogID("gcp-helpers-it"))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Info(ctx, "integration test", map[string]string{"suite": "logging"}))
	require.NoError(t, client.LogEntry(ctx, logging.Entry{
		Severity: logging.Debug,
		Message:  "structured",
		Fields:   map[string]any{"attempt": 1},
	}))

	logger := logging.NewLogger(client, os.Stdout)
	logger.Warn("via slog", "run", t.Name())
}
