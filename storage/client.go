package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/gcp/auth"
	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// Client provides helper operations over Cloud Storage.
type Client struct {
	api         API
	projectID   string
	location    string
	fs          billy.Filesystem
	hostFS      bool
	concurrency int
	logger      *slog.Logger
}

// New creates a Cloud Storage client from the shared auth config.
//
// Example usage:
//
//	client, err := storage.New(ctx, auth.FromEnv(),
//	    storage.WithConcurrency(8),
//	)
func New(ctx context.Context, cfg *auth.Config, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	clientOpts, err := cfg.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	gcs, err := storage.NewClient(ctx, append(clientOpts, o.clientOptions...)...)
	if err != nil {
		return nil, gcperrors.New("storage.New", cfg.ProjectID, err)
	}

	return newClient(&sdkAPI{client: gcs}, cfg.ProjectID, cfg.LocationOrDefault(), o), nil
}

// NewWithAPI creates a client over a custom API implementation.
// This is primarily used for testing with mocked clients.
func NewWithAPI(api API, projectID string, opts ...Option) *Client {
	return newClient(api, projectID, auth.DefaultLocation, applyOptions(opts))
}

func newClient(api API, projectID, location string, o *clientOptions) *Client {
	c := &Client{
		api:         api,
		projectID:   projectID,
		location:    location,
		fs:          o.fs,
		concurrency: o.concurrency,
		logger:      o.logger.With("project_id", projectID),
	}
	if c.fs == nil {
		c.fs = osfs.New("/")
		c.hostFS = true
	}
	return c
}

// ProjectID returns the project new buckets are created in.
func (c *Client) ProjectID() string {
	return c.projectID
}

// Close closes the underlying Cloud Storage client.
func (c *Client) Close() error {
	if err := c.api.Close(); err != nil {
		return gcperrors.New("storage.Close", c.projectID, err)
	}
	c.logger.Info("client connection closed")
	return nil
}

// CreateBucket creates a bucket in the client's project.
func (c *Client) CreateBucket(ctx context.Context, bucket string, opts BucketOptions) error {
	const op = "storage.CreateBucket"
	ref := validation.GCSURI(bucket, "")
	if err := validation.Required(op, ref, validation.F("bucket", bucket)); err != nil {
		return err
	}

	location := opts.Location
	if location == "" {
		location = c.location
	}
	attrs := &storage.BucketAttrs{
		Location:     location,
		StorageClass: opts.StorageClass,
		Labels:       opts.Labels,
	}

	if err := c.api.CreateBucket(ctx, bucket, c.projectID, attrs); err != nil {
		c.logger.ErrorContext(ctx, "failed to create bucket", "bucket", bucket, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "created bucket", "bucket", bucket, "location", location)
	return nil
}

// DeleteBucket deletes an empty bucket. Deleting a bucket that does not exist
// succeeds.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) error {
	const op = "storage.DeleteBucket"
	ref := validation.GCSURI(bucket, "")
	if err := validation.Required(op, ref, validation.F("bucket", bucket)); err != nil {
		return err
	}

	if err := c.api.DeleteBucket(ctx, bucket); err != nil {
		if IsNotFound(err) {
			c.logger.InfoContext(ctx, "bucket already absent", "bucket", bucket)
			return nil
		}
		c.logger.ErrorContext(ctx, "failed to delete bucket", "bucket", bucket, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "deleted bucket", "bucket", bucket)
	return nil
}

// BucketExists reports whether the bucket exists.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	const op = "storage.BucketExists"
	ref := validation.GCSURI(bucket, "")
	if err := validation.Required(op, ref, validation.F("bucket", bucket)); err != nil {
		return false, err
	}

	_, err := c.api.BucketAttrs(ctx, bucket)
	switch {
	case err == nil:
		return true, nil
	case IsNotFound(err):
		return false, nil
	default:
		c.logger.ErrorContext(ctx, "failed to look up bucket", "bucket", bucket, "error", err)
		return false, gcperrors.New(op, ref, err)
	}
}

// localPath maps a caller path onto the filesystem. On the host filesystem,
// which is rooted at "/", relative paths are made absolute first.
func (c *Client) localPath(p string) (string, error) {
	if !c.hostFS {
		return p, nil
	}
	return filepath.Abs(p)
}
