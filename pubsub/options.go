package pubsub

import (
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Publish batching and flow-control defaults.
const (
	DefaultCountThreshold         = 100
	DefaultByteThreshold          = 1_000_000
	DefaultDelayThreshold         = time.Second
	DefaultMaxOutstandingMessages = 100
	DefaultMaxOutstandingBytes    = 10 * 1024 * 1024
)

// DefaultPublishSettings returns the batching and flow-control settings applied to
// every topic handle: batches flush at 100 messages, 1 MB or after 1 second, and
// publishing blocks once 100 messages or 10 MiB are outstanding.
func DefaultPublishSettings() pubsub.PublishSettings {
	s := pubsub.DefaultPublishSettings
	s.CountThreshold = DefaultCountThreshold
	s.ByteThreshold = DefaultByteThreshold
	s.DelayThreshold = DefaultDelayThreshold
	s.FlowControlSettings = pubsub.FlowControlSettings{
		MaxOutstandingMessages: DefaultMaxOutstandingMessages,
		MaxOutstandingBytes:    DefaultMaxOutstandingBytes,
		LimitExceededBehavior:  pubsub.FlowControlBlock,
	}
	return s
}

// clientOptions holds configuration options for the Pub/Sub client.
type clientOptions struct {
	logger          *slog.Logger
	publishSettings pubsub.PublishSettings
	receiveSettings pubsub.ReceiveSettings
	messageOrdering bool
	clientOptions   []option.ClientOption
}

// Option is a functional option for configuring the Client.
type Option func(*clientOptions)

// WithLogger configures the client with a custom logger.
// If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithPublishSettings replaces DefaultPublishSettings for every topic handle.
func WithPublishSettings(settings pubsub.PublishSettings) Option {
	return func(opts *clientOptions) {
		opts.publishSettings = settings
	}
}

// WithReceiveSettings configures streaming pull for Receive. Zero fields keep the
// SDK defaults.
func WithReceiveSettings(settings pubsub.ReceiveSettings) Option {
	return func(opts *clientOptions) {
		opts.receiveSettings = settings
	}
}

// WithMessageOrdering enables ordered delivery for messages that carry an
// ordering key. The subscription must also be created with EnableMessageOrdering.
func WithMessageOrdering() Option {
	return func(opts *clientOptions) {
		opts.messageOrdering = true
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
	o := &clientOptions{
		publishSettings: DefaultPublishSettings(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// SubscriptionConfig configures CreateSubscription.
type SubscriptionConfig struct {
	// Topic is the ID of the topic to attach to. Required.
	Topic string

	// AckDeadline defaults to the service default (10s) when zero.
	AckDeadline time.Duration

	// RetentionDuration is how long unacknowledged messages are kept. Zero keeps
	// the service default.
	RetentionDuration time.Duration

	// Filter is an optional attribute filter expression.
	Filter string

	EnableMessageOrdering bool
	Labels                map[string]string
}

func (c SubscriptionConfig) toSDK() pubsub.SubscriptionConfig {
	return pubsub.SubscriptionConfig{
		AckDeadline:           c.AckDeadline,
		RetentionDuration:     c.RetentionDuration,
		Filter:                c.Filter,
		EnableMessageOrdering: c.EnableMessageOrdering,
		Labels:                c.Labels,
	}
}
