package storage

import (
	"context"
	"errors"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// API is the set of Cloud Storage operations used by Client.
type API interface {
	CreateBucket(ctx context.Context, bucket, projectID string, attrs *storage.BucketAttrs) error
	DeleteBucket(ctx context.Context, bucket string) error
	BucketAttrs(ctx context.Context, bucket string) (*storage.BucketAttrs, error)

	// NewWriter returns a writer that creates the object on Close. Canceling ctx
	// before Close aborts the upload.
	NewWriter(ctx context.Context, bucket, object string, attrs ObjectAttrs) io.WriteCloser
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	Objects(ctx context.Context, bucket string, q *storage.Query) ([]*storage.ObjectAttrs, error)
	DeleteObject(ctx context.Context, bucket, object string) error

	Close() error
}

// ObjectAttrs are the attributes set on uploaded objects.
type ObjectAttrs struct {
	ContentType string
	Metadata    map[string]string
}

// sdkAPI adapts *storage.Client to API.
type sdkAPI struct {
	client *storage.Client
}

var _ API = (*sdkAPI)(nil)

func (a *sdkAPI) CreateBucket(ctx context.Context, bucket, projectID string, attrs *storage.BucketAttrs) error {
	return a.client.Bucket(bucket).Create(ctx, projectID, attrs)
}

func (a *sdkAPI) DeleteBucket(ctx context.Context, bucket string) error {
	return a.client.Bucket(bucket).Delete(ctx)
}

func (a *sdkAPI) BucketAttrs(ctx context.Context, bucket string) (*storage.BucketAttrs, error) {
	return a.client.Bucket(bucket).Attrs(ctx)
}

func (a *sdkAPI) NewWriter(ctx context.Context, bucket, object string, attrs ObjectAttrs) io.WriteCloser {
	w := a.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = attrs.ContentType
	w.Metadata = attrs.Metadata
	return w
}

func (a *sdkAPI) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return a.client.Bucket(bucket).Object(object).NewReader(ctx)
}

func (a *sdkAPI) Objects(ctx context.Context, bucket string, q *storage.Query) ([]*storage.ObjectAttrs, error) {
	var out []*storage.ObjectAttrs
	it := a.client.Bucket(bucket).Objects(ctx, q)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs)
	}
}

func (a *sdkAPI) DeleteObject(ctx context.Context, bucket, object string) error {
	return a.client.Bucket(bucket).Object(object).Delete(ctx)
}

func (a *sdkAPI) Close() error {
	return a.client.Close()
}
