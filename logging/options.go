package logging

import (
	"log/slog"

	"google.golang.org/api/option"
)

// DefaultLogID is the log entries are written to unless WithLogID or Entry.LogID
// says otherwise.
const DefaultLogID = "app"

// clientOptions holds configuration options for the Cloud Logging client.
type clientOptions struct {
	logger        *slog.Logger
	logID         string
	labels        map[string]string
	clientOptions []option.ClientOption
}

// Option is a functional option for configuring the Client.
type Option func(*clientOptions)

// WithLogger configures the logger the client reports its own failures to.
// It must not be a logger built with NewLogger or NewHandler over the same client.
// If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithLogID sets the default log ID.
func WithLogID(logID string) Option {
	return func(opts *clientOptions) {
		opts.logID = logID
	}
}

// WithCommonLabels sets labels added to every entry. Per-entry labels win on
// conflict.
func WithCommonLabels(labels map[string]string) Option {
	return func(opts *clientOptions) {
		opts.labels = labels
	}
}

// WithClientOptions appends raw SDK client options, applied after the ones derived
// from the auth config.
func WithClientOptions(o ...option.ClientOption) Option {
	return func(opts *clientOptions) {
		opts.clientOptions = append(opts.clientOptions, o...)
	}
}

func applyOptions(opts []Option) *clientOptions {
	o := &clientOptions{logID: DefaultLogID}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.logID == "" {
		o.logID = DefaultLogID
	}
	return o
}
