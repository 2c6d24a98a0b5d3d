// Package testutil provides test helpers shared by the Google Cloud helper packages.
// This package is internal and should only be used from tests.
package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is a captured slog record with its attributes flattened to strings.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that stores every record it receives.
// It is safe for concurrent use.
type LogRecorder struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogRecorder returns a recorder and a logger writing to it.
func NewLogRecorder() (*LogRecorder, *slog.Logger) {
	r := &LogRecorder{}
	return r, slog.New(r)
}

// Enabled implements slog.Handler.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	entry := LogEntry{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   make(map[string]string, rec.NumAttrs()),
	}
	rec.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.String()
		return true
	})

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return nil
}

// WithAttrs implements slog.Handler.
func (r *LogRecorder) WithAttrs([]slog.Attr) slog.Handler {
	return r
}

// WithGroup implements slog.Handler.
func (r *LogRecorder) WithGroup(string) slog.Handler {
	return r
}

// Entries returns a copy of the captured entries.
func (r *LogRecorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the captured messages in order.
func (r *LogRecorder) Messages() []string {
	entries := r.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

// Find returns the first entry with the given message.
func (r *LogRecorder) Find(msg string) (LogEntry, bool) {
	for _, e := range r.Entries() {
		if e.Message == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}

// HasLevel reports whether any entry was logged at level.
func (r *LogRecorder) HasLevel(level slog.Level) bool {
	for _, e := range r.Entries() {
		if e.Level == level {
			return true
		}
	}
	return false
}
