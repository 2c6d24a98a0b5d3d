package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// DefaultContentType is used when nothing better can be detected.
const DefaultContentType = "application/octet-stream"

// sniffLen is how many leading bytes are inspected for content detection.
const sniffLen = 3072

// Upload streams r into bucket/object and returns the number of bytes written.
//
// Example usage:
//
//	n, err := client.Upload(ctx, "my-bucket", "reports/q1.csv", file,
//	    storage.WithContentType("text/csv"),
//	)
func (c *Client) Upload(ctx context.Context, bucket, object string, r io.Reader, opts ...UploadOption) (int64, error) {
	const op = "storage.Upload"
	ref := validation.GCSURI(bucket, object)
	if err := validation.Required(op, ref,
		validation.F("bucket", bucket), validation.F("object", object)); err != nil {
		return 0, err
	}
	if r == nil {
		return 0, gcperrors.Invalid(op, ref, "reader cannot be nil")
	}

	cfg := &uploadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	body := r
	if cfg.contentType == "" {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(r, head)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			c.logger.ErrorContext(ctx, "failed to read upload source", "uri", ref, "error", err)
			return 0, gcperrors.New(op, ref, err)
		}
		head = head[:n]
		cfg.contentType = detectContentType(object, head)
		body = io.MultiReader(bytes.NewReader(head), r)
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := c.api.NewWriter(wctx, bucket, object, ObjectAttrs{
		ContentType: cfg.contentType,
		Metadata:    cfg.metadata,
	})

	n, err := io.Copy(w, body)
	if err != nil {
		cancel()
		_ = w.Close()
		c.logger.ErrorContext(ctx, "failed to upload object", "uri", ref, "error", err)
		return n, gcperrors.New(op, ref, err)
	}
	if err := w.Close(); err != nil {
		c.logger.ErrorContext(ctx, "failed to upload object", "uri", ref, "error", err)
		return n, gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "uploaded object", "uri", ref, "bytes", n, "content_type", cfg.contentType)
	return n, nil
}

// UploadBytes uploads data as bucket/object.
func (c *Client) UploadBytes(ctx context.Context, bucket, object string, data []byte, opts ...UploadOption) error {
	_, err := c.Upload(ctx, bucket, object, bytes.NewReader(data), opts...)
	return err
}

// Download returns the full content of bucket/object. An empty object yields an
// empty, non-nil slice.
func (c *Client) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.download(ctx, "storage.Download", bucket, object, &buf); err != nil {
		return nil, err
	}
	if buf.Len() == 0 {
		return []byte{}, nil
	}
	return buf.Bytes(), nil
}

// DownloadTo streams bucket/object into w and returns the number of bytes copied.
func (c *Client) DownloadTo(ctx context.Context, bucket, object string, w io.Writer) (int64, error) {
	return c.download(ctx, "storage.DownloadTo", bucket, object, w)
}

func (c *Client) download(ctx context.Context, op, bucket, object string, w io.Writer) (int64, error) {
	ref := validation.GCSURI(bucket, object)
	if err := validation.Required(op, ref,
		validation.F("bucket", bucket), validation.F("object", object)); err != nil {
		return 0, err
	}
	if w == nil {
		return 0, gcperrors.Invalid(op, ref, "writer cannot be nil")
	}

	r, err := c.api.NewReader(ctx, bucket, object)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to open object", "uri", ref, "error", err)
		return 0, gcperrors.New(op, ref, err)
	}
	defer r.Close()

	n, err := io.Copy(w, r)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to download object", "uri", ref, "error", err)
		return n, gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "downloaded object", "uri", ref, "bytes", n)
	return n, nil
}

// List returns the names of objects in bucket matching opts. With a delimiter,
// the synthetic directory prefixes are included as well.
func (c *Client) List(ctx context.Context, bucket string, opts ListOptions) ([]string, error) {
	const op = "storage.List"
	ref := validation.GCSURI(bucket, opts.Prefix)
	if err := validation.Required(op, ref, validation.F("bucket", bucket)); err != nil {
		return nil, err
	}

	q := &storage.Query{
		Prefix:    opts.Prefix,
		Delimiter: opts.Delimiter,
	}
	if err := q.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, gcperrors.New(op, ref, err)
	}

	attrs, err := c.api.Objects(ctx, bucket, q)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to list objects", "uri", ref, "error", err)
		return nil, gcperrors.New(op, ref, err)
	}

	names := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if a.Prefix != "" {
			names = append(names, a.Prefix)
			continue
		}
		names = append(names, a.Name)
	}

	c.logger.InfoContext(ctx, "listed objects", "uri", ref, "count", len(names))
	return names, nil
}

// DeleteObject deletes bucket/object.
func (c *Client) DeleteObject(ctx context.Context, bucket, object string) error {
	const op = "storage.DeleteObject"
	ref := validation.GCSURI(bucket, object)
	if err := validation.Required(op, ref,
		validation.F("bucket", bucket), validation.F("object", object)); err != nil {
		return err
	}

	if err := c.api.DeleteObject(ctx, bucket, object); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete object", "uri", ref, "error", err)
		return gcperrors.New(op, ref, err)
	}

	c.logger.InfoContext(ctx, "deleted object", "uri", ref)
	return nil
}

// detectContentType sniffs head with mimetype. Generic results fall back to the
// object name's extension when it is registered.
func detectContentType(name string, head []byte) string {
	detected := DefaultContentType
	if len(head) > 0 {
		detected = mimetype.Detect(head).String()
	}

	if detected == DefaultContentType || strings.HasPrefix(detected, "text/plain") {
		if byExt := mime.TypeByExtension(strings.ToLower(path.Ext(name))); byExt != "" {
			return byExt
		}
	}
	return detected
}
