package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"cloud.google.com/go/logging"
)

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	// Level is the minimum level written. Defaults to slog.LevelInfo.
	Level slog.Leveler

	// LogID overrides the client's log ID for entries written by the handler.
	LogID string
}

// Handler is a slog.Handler that writes each record to Cloud Logging as a
// structured entry. Attributes become payload fields; attributes inside groups
// are keyed by their dotted group path.
type Handler struct {
	client *Client
	level  slog.Leveler
	logID  string
	attrs  []slog.Attr
	prefix string
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a handler writing through c.
func NewHandler(c *Client, opts HandlerOptions) *Handler {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	logID := opts.LogID
	if logID == "" {
		logID = c.logID
	}
	return &Handler{client: c, level: level, logID: logID}
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addAttr(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, h.prefix, a)
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return h.client.write(ctx, h.logID, Entry{
		Severity:  SeverityForLevel(r.Level),
		Message:   r.Message,
		Fields:    fields,
		Timestamp: ts,
	})
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = slices.Clip(h.attrs)
	for _, a := range attrs {
		h2.attrs = appendPrefixed(h2.attrs, h.prefix, a)
	}
	return &h2
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// SeverityForLevel maps a slog level onto the closest Cloud Logging severity.
func SeverityForLevel(l slog.Level) logging.Severity {
	switch {
	case l < slog.LevelInfo:
		return logging.Debug
	case l < slog.LevelWarn:
		return logging.Info
	case l < slog.LevelError:
		return logging.Warning
	case l < slog.LevelError+4:
		return logging.Error
	default:
		return logging.Critical
	}
}

// appendPrefixed bakes the current group path into attribute keys so that attrs
// added before a later WithGroup keep their original path. Groups without a key
// are inlined.
func appendPrefixed(dst []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()
	if a.Key == "" && a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			dst = appendPrefixed(dst, prefix, ga)
		}
		return dst
	}
	if prefix == "" || a.Key == "" {
		return append(dst, a)
	}
	return append(dst, slog.Attr{Key: prefix + a.Key, Value: a.Value})
}

func addAttr(fields map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			addAttr(fields, groupPrefix, ga)
		}
		return
	}

	fields[prefix+a.Key] = fieldValue(a.Value)
}

// fieldValue converts v into something that survives JSON encoding.
func fieldValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}

// teeHandler sends every record to all handlers that accept its level.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}

// NewLogger returns a logger that writes every Info and above record both to
// Cloud Logging through c and as text to console (os.Stderr when nil).
func NewLogger(c *Client, console io.Writer) *slog.Logger {
	if console == nil {
		console = os.Stderr
	}
	return slog.New(teeHandler{
		NewHandler(c, HandlerOptions{}),
		slog.NewTextHandler(console, &slog.HandlerOptions{Level: slog.LevelInfo}),
	})
}
