package storage

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"google.golang.org/api/option"
)

// clientOptions holds configuration options for the Cloud Storage client.
type clientOptions struct {
	logger        *slog.Logger
	fs            billy.Filesystem
	concurrency   int
	clientOptions []option.ClientOption
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

// WithFilesystem sets the filesystem used for local file operations.
// Paths passed to file operations are interpreted by fs as given. Without this
// option the host filesystem is used and relative paths are resolved against the
// working directory.
func WithFilesystem(fs billy.Filesystem) Option {
	return func(opts *clientOptions) {
		opts.fs = fs
	}
}

// WithConcurrency sets how many files UploadDir uploads at once.
// Default is 1. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(opts *clientOptions) {
		if n > 0 {
			opts.concurrency = n
		}
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
	o := &clientOptions{concurrency: 1}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// uploadConfig holds per-upload settings.
type uploadConfig struct {
	contentType string
	metadata    map[string]string
}

// UploadOption configures a single upload.
type UploadOption func(*uploadConfig)

// WithContentType sets the object content type instead of detecting it.
func WithContentType(contentType string) UploadOption {
	return func(c *uploadConfig) {
		c.contentType = contentType
	}
}

// WithMetadata adds custom metadata to the uploaded object.
func WithMetadata(metadata map[string]string) UploadOption {
	return func(c *uploadConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			c.metadata[k] = v
		}
	}
}

// BucketOptions configures CreateBucket.
type BucketOptions struct {
	// Location defaults to the location from the auth config.
	Location string

	// StorageClass such as "STANDARD", "NEARLINE" or "COLDLINE". Empty keeps
	// the service default.
	StorageClass string

	Labels map[string]string
}

// ListOptions configures List.
type ListOptions struct {
	Prefix string

	// Delimiter, usually "/", groups names below the prefix into synthetic
	// directory entries, which are returned with a trailing delimiter.
	Delimiter string
}
