package bigquery

import (
	"errors"

	"cloud.google.com/go/bigquery"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

// ErrorCode classifies err like errors.Code and also understands the *bigquery.Error
// a failed job reports, using its reason.
func ErrorCode(err error) gcperrors.ErrorCode {
	var jobErr *bigquery.Error
	if errors.As(err, &jobErr) {
		if code := gcperrors.CodeForReason(jobErr.Reason); code != "" {
			return code
		}
		return gcperrors.CodeUnknown
	}
	return gcperrors.Code(err)
}

// IsNotFound reports whether err means the dataset, table or job does not exist.
func IsNotFound(err error) bool {
	return ErrorCode(err) == gcperrors.CodeNotFound
}

// IsAlreadyExists reports whether err means the dataset or table already exists.
func IsAlreadyExists(err error) bool {
	return ErrorCode(err) == gcperrors.CodeAlreadyExists
}
