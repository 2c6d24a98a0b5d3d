//go:build integration
// +build integration

package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/gcloud"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/input-output-hk/catalyst-forge-libs/gcp/auth"
)

// EmulatorProject is the project ID every emulator is started with.
const EmulatorProject = "test-project"

const (
	bigQueryImage = "ghcr.io/goccy/bigquery-emulator:0.6.6"
	pubsubImage   = "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators"
	gcsImage      = "fsouza/fake-gcs-server:1.52.2"
)

// StartPubsubEmulator starts a Pub/Sub emulator and returns a config pointing at it.
// The container is terminated when the test finishes.
func StartPubsubEmulator(t *testing.T) *auth.Config {
	t.Helper()
	skipShort(t)

	ctx := context.Background()
	container, err := gcloud.RunPubsub(ctx, pubsubImage, gcloud.WithProjectID(EmulatorProject))
	if err != nil {
		t.Fatalf("failed to start Pub/Sub emulator: %v", err)
	}
	terminateOnCleanup(t, container)

	return &auth.Config{
		ProjectID:             container.Settings.ProjectID,
		Endpoint:              container.URI,
		WithoutAuthentication: true,
	}
}

// StartBigQueryEmulator starts a BigQuery emulator and returns a config pointing at it.
func StartBigQueryEmulator(t *testing.T) *auth.Config {
	t.Helper()
	skipShort(t)

	ctx := context.Background()
	container, err := gcloud.RunBigQuery(ctx, bigQueryImage, gcloud.WithProjectID(EmulatorProject))
	if err != nil {
		t.Fatalf("failed to start BigQuery emulator: %v", err)
	}
	terminateOnCleanup(t, container)

	return &auth.Config{
		ProjectID:             container.Settings.ProjectID,
		Endpoint:              container.URI,
		WithoutAuthentication: true,
	}
}

// StartStorageEmulator starts fake-gcs-server and returns a config pointing at it.
// STORAGE_EMULATOR_HOST is set for the duration of the test so that object reads
// are routed to the emulator as well.
func StartStorageEmulator(t *testing.T) *auth.Config {
	t.Helper()
	skipShort(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        gcsImage,
			ExposedPorts: []string{"4443/tcp"},
			Cmd:          []string{"-scheme", "http", "-port", "4443", "-backend", "memory"},
			WaitingFor: wait.ForHTTP("/storage/v1/b").
				WithPort("4443/tcp").
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start storage emulator: %v", err)
	}
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "4443/tcp")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}

	addr := fmt.Sprintf("%s:%s", host, port.Port())
	t.Setenv("STORAGE_EMULATOR_HOST", addr)

	return &auth.Config{
		ProjectID:             EmulatorProject,
		Endpoint:              fmt.Sprintf("http://%s/storage/v1/", addr),
		WithoutAuthentication: true,
	}
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

func terminateOnCleanup(t *testing.T, c testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
}
