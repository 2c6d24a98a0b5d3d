package storage

import (
	"errors"

	"cloud.google.com/go/storage"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

// ErrorCode classifies err like errors.Code and also recognizes the Cloud Storage
// SDK's missing object and bucket sentinels.
func ErrorCode(err error) gcperrors.ErrorCode {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return gcperrors.CodeNotFound
	}
	return gcperrors.Code(err)
}

// IsNotFound reports whether err means the bucket or object does not exist.
func IsNotFound(err error) bool {
	return ErrorCode(err) == gcperrors.CodeNotFound
}
