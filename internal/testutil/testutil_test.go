package testutil

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorder(t *testing.T) {
	rec, logger := NewLogRecorder()

	logger.InfoContext(context.Background(), "created dataset", "dataset", "events", "count", 3)
	logger.Error("failed", "error", "boom")

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, slog.LevelInfo, entries[0].Level)
	assert.Equal(t, "events", entries[0].Attrs["dataset"])
	assert.Equal(t, "3", entries[0].Attrs["count"])
	assert.Equal(t, []string{"created dataset", "failed"}, rec.Messages())
	assert.True(t, rec.HasLevel(slog.LevelError))
	assert.False(t, rec.HasLevel(slog.LevelWarn))

	e, ok := rec.Find("failed")
	require.True(t, ok)
	assert.Equal(t, "boom", e.Attrs["error"])

	_, ok = rec.Find("missing")
	assert.False(t, ok)
}

func TestLogRecorderConcurrent(t *testing.T) {
	rec, logger := NewLogRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("tick")
		}()
	}
	wg.Wait()

	assert.Len(t, rec.Entries(), 50)
}

func TestGenerateRandomData(t *testing.T) {
	assert.Len(t, GenerateRandomData(0), 0)
	assert.Len(t, GenerateRandomData(1024), 1024)
}

func TestUniqueNames(t *testing.T) {
	a := UniqueName("ds")
	b := UniqueName("ds")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^ds_[0-9]+_[0-9]{4}$`), a)
	assert.NotContains(t, UniqueBucketName("my_bucket"), "_")
}
