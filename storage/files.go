package storage

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
	"github.com/input-output-hk/catalyst-forge-libs/gcp/internal/validation"
)

// UploadFile uploads the local file at localPath to bucket/object.
func (c *Client) UploadFile(ctx context.Context, localPath, bucket, object string, opts ...UploadOption) error {
	const op = "storage.UploadFile"
	ref := validation.GCSURI(bucket, object)
	if err := validation.Required(op, ref, validation.F("local path", localPath),
		validation.F("bucket", bucket), validation.F("object", object)); err != nil {
		return err
	}

	p, err := c.localPath(localPath)
	if err != nil {
		return gcperrors.New(op, localPath, err)
	}

	info, err := c.fs.Stat(p)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to stat local file", "path", localPath, "error", err)
		return gcperrors.New(op, localPath, err)
	}
	if info.IsDir() {
		return gcperrors.Invalid(op, localPath, "local path is a directory, use UploadDir")
	}

	f, err := c.fs.Open(p)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to open local file", "path", localPath, "error", err)
		return gcperrors.New(op, localPath, err)
	}
	defer f.Close()

	_, err = c.Upload(ctx, bucket, object, f, opts...)
	return err
}

// UploadDir uploads every file below localDir. Each object is named
// destPrefix/<base name of localDir>/<path relative to localDir>, with forward
// slashes. Files are uploaded WithConcurrency at a time; the first failure stops
// scheduling new uploads and is returned. The uploaded object names are returned
// in lexical order.
func (c *Client) UploadDir(ctx context.Context, localDir, bucket, destPrefix string) ([]string, error) {
	const op = "storage.UploadDir"
	ref := validation.GCSURI(bucket, destPrefix)
	if err := validation.Required(op, ref,
		validation.F("local directory", localDir), validation.F("bucket", bucket)); err != nil {
		return nil, err
	}

	root, err := c.localPath(localDir)
	if err != nil {
		return nil, gcperrors.New(op, localDir, err)
	}

	info, err := c.fs.Stat(root)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to stat local directory", "path", localDir, "error", err)
		return nil, gcperrors.New(op, localDir, err)
	}
	if !info.IsDir() {
		return nil, gcperrors.Invalid(op, localDir, "local path is not a directory, use UploadFile")
	}

	base := filepath.Base(filepath.Clean(localDir))
	files := make(map[string]string)
	err = util.Walk(c.fs, root, func(p string, fi fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files[path.Join(destPrefix, base, filepath.ToSlash(rel))] = p
		return nil
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to walk local directory", "path", localDir, "error", err)
		return nil, gcperrors.New(op, localDir, err)
	}

	objects := make([]string, 0, len(files))
	for name := range files {
		objects = append(objects, name)
	}
	sort.Strings(objects)

	c.logger.InfoContext(ctx, "uploading directory",
		"path", localDir, "uri", ref, "files", len(objects), "concurrency", c.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, name := range objects {
		g.Go(func() error {
			return c.uploadLocal(gctx, files[name], bucket, name)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "uploaded directory", "path", localDir, "uri", ref, "files", len(objects))
	return objects, nil
}

// uploadLocal uploads a filesystem path that is already resolved.
func (c *Client) uploadLocal(ctx context.Context, p, bucket, object string) error {
	f, err := c.fs.Open(p)
	if err != nil {
		return gcperrors.New("storage.UploadDir", p, err)
	}
	defer f.Close()

	_, err = c.Upload(ctx, bucket, object, f)
	return err
}

// DownloadFile writes bucket/object to localPath, creating parent directories as
// needed. A partially written file is removed on failure.
func (c *Client) DownloadFile(ctx context.Context, bucket, object, localPath string) error {
	const op = "storage.DownloadFile"
	ref := validation.GCSURI(bucket, object)
	if err := validation.Required(op, ref, validation.F("bucket", bucket),
		validation.F("object", object), validation.F("local path", localPath)); err != nil {
		return err
	}

	p, err := c.localPath(localPath)
	if err != nil {
		return gcperrors.New(op, localPath, err)
	}

	if dir := filepath.Dir(p); dir != "." {
		if err := c.fs.MkdirAll(dir, 0o755); err != nil {
			c.logger.ErrorContext(ctx, "failed to create local directory", "path", dir, "error", err)
			return gcperrors.New(op, localPath, err)
		}
	}

	f, err := c.fs.Create(p)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to create local file", "path", localPath, "error", err)
		return gcperrors.New(op, localPath, err)
	}

	_, err = c.download(ctx, op, bucket, object, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = gcperrors.New(op, localPath, cerr)
	}
	if err != nil {
		_ = c.fs.Remove(p)
		return err
	}
	return nil
}
