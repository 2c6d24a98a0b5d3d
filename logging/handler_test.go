package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityForLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  logging.Severity
	}{
		{slog.LevelDebug - 4, logging.Debug},
		{slog.LevelDebug, logging.Debug},
		{slog.LevelInfo, logging.Info},
		{slog.LevelInfo + 2, logging.Info},
		{slog.LevelWarn, logging.Warning},
		{slog.LevelError, logging.Error},
		{slog.LevelError + 4, logging.Critical},
		{slog.LevelError + 8, logging.Critical},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, SeverityForLevel(tt.level))
		})
	}
}

func TestHandler_Enabled(t *testing.T) {
	client := NewWithAPI(&mockAPI{}, "proj")
	ctx := context.Background()

	h := NewHandler(client, HandlerOptions{})
	assert.False(t, h.Enabled(ctx, slog.LevelDebug))
	assert.True(t, h.Enabled(ctx, slog.LevelInfo))

	h = NewHandler(client, HandlerOptions{Level: slog.LevelError})
	assert.False(t, h.Enabled(ctx, slog.LevelWarn))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
}

func TestHandler_Handle(t *testing.T) {
	t.Run("fields and severity", func(t *testing.T) {
		api := &mockAPI{}
		logger := slog.New(NewHandler(NewWithAPI(api, "proj"), HandlerOptions{LogID: "audit"}))

		logger.Warn("slow request",
			"path", "/v1/items",
			"took", 1500*time.Millisecond,
			"err", errors.New("upstream timeout"),
		)

		got := api.written()
		require.Len(t, got, 1)
		assert.Equal(t, "audit", got[0].logID)
		assert.Equal(t, logging.Warning, got[0].entry.Severity)
		assert.False(t, got[0].entry.Timestamp.IsZero())
		assert.Equal(t, map[string]any{
			"message": "slow request",
			"path":    "/v1/items",
			"took":    "1.5s",
			"err":     "upstream timeout",
		}, got[0].entry.Payload)
	})

	t.Run("no attributes", func(t *testing.T) {
		api := &mockAPI{}
		logger := slog.New(NewHandler(NewWithAPI(api, "proj"), HandlerOptions{}))

		logger.Info("plain")

		got := api.written()
		require.Len(t, got, 1)
		assert.Equal(t, "plain", got[0].entry.Payload)
		assert.Equal(t, DefaultLogID, got[0].logID)
	})

	t.Run("groups and attrs", func(t *testing.T) {
		api := &mockAPI{}
		logger := slog.New(NewHandler(NewWithAPI(api, "proj"), HandlerOptions{}))

		logger.With("service", "ingest").
			WithGroup("req").
			With("id", "r-1").
			Info("handled", "status", 200, slog.Group("user", "name", "ada"))

		got := api.written()
		require.Len(t, got, 1)
		assert.Equal(t, map[string]any{
			"message":       "handled",
			"service":       "ingest",
			"req.id":        "r-1",
			"req.status":    int64(200),
			"req.user.name": "ada",
		}, got[0].entry.Payload)
	})

	t.Run("unnamed group under a named group", func(t *testing.T) {
		api := &mockAPI{}
		h := NewHandler(NewWithAPI(api, "proj"), HandlerOptions{}).
			WithGroup("g").
			WithAttrs([]slog.Attr{slog.Group("", slog.Int("x", 1), slog.Group("inner", slog.String("y", "z")))})

		require.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0)))

		got := api.written()
		require.Len(t, got, 1)
		assert.Equal(t, map[string]any{
			"message":   "m",
			"g.x":       int64(1),
			"g.inner.y": "z",
		}, got[0].entry.Payload)
	})

	t.Run("below level is dropped", func(t *testing.T) {
		api := &mockAPI{}
		logger := slog.New(NewHandler(NewWithAPI(api, "proj"), HandlerOptions{}))

		logger.Debug("noise")
		assert.Empty(t, api.written())
	})

	t.Run("write failure surfaces", func(t *testing.T) {
		boom := errors.New("boom")
		api := &mockAPI{
			logSyncFunc: func(context.Context, string, logging.Entry) error { return boom },
		}
		h := NewHandler(NewWithAPI(api, "proj"), HandlerOptions{})

		err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
		assert.ErrorIs(t, err, boom)
	})
}

func TestNewLogger(t *testing.T) {
	api := &mockAPI{}
	var console bytes.Buffer
	logger := NewLogger(NewWithAPI(api, "proj", WithCommonLabels(map[string]string{"env": "dev"})), &console)

	logger.Info("deployed", "version", "1.4.0")
	logger.Debug("hidden")

	got := api.written()
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"message": "deployed", "version": "1.4.0"}, got[0].entry.Payload)
	assert.Equal(t, map[string]string{"env": "dev"}, got[0].entry.Labels)

	out := console.String()
	assert.Contains(t, out, "msg=deployed")
	assert.Contains(t, out, "version=1.4.0")
	assert.NotContains(t, out, "hidden")
}

func TestNewLogger_ConsoleStillWritesOnCloudFailure(t *testing.T) {
	api := &mockAPI{
		logSyncFunc: func(context.Context, string, logging.Entry) error { return errors.New("offline") },
	}
	var console bytes.Buffer
	logger := NewLogger(NewWithAPI(api, "proj"), &console)

	logger.Error("still visible")
	assert.Contains(t, console.String(), "still visible")
}
