// Package errors provides the error conventions shared by the Google Cloud helpers.
//
// Helpers never translate vendor errors: every failure is returned wrapped in an
// *Error that records the operation and resource, and the original SDK error stays
// reachable through errors.Is and errors.As. The ErrorCode classification in this
// file is a read-only view used for branching (for example "not found means the
// resource is already gone") and never replaces the error it inspects.
//
// The package depends on no service SDK. It understands gRPC status errors and
// googleapi HTTP errors; helper packages layer their SDK's own sentinels on top.
package errors

import (
	"context"
	stderrors "errors"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode represents a coarse error condition reported by a Google Cloud service.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Permission errors.

	// CodeUnauthorized indicates the request lacks valid authentication credentials.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeForbidden indicates the caller lacks permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// Infrastructure errors.

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeCanceled indicates the caller canceled the operation.
	CodeCanceled ErrorCode = "CANCELED"

	// CodeRateLimit indicates a quota or rate limit has been exceeded.
	CodeRateLimit ErrorCode = "RATE_LIMIT_EXCEEDED"

	// CodeUnavailable indicates the service is temporarily unavailable.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Code classifies err. It returns the empty code for a nil error and CodeUnknown
// when no known error shape is found in the chain.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case stderrors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case stderrors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	case stderrors.Is(err, context.Canceled):
		return CodeCanceled
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		if code := codeFromReasons(apiErr); code != "" {
			return code
		}
		return codeFromHTTP(apiErr.Code)
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		return codeFromGRPC(st.Code())
	}

	return CodeUnknown
}

// IsNotFound reports whether err means the target resource does not exist.
func IsNotFound(err error) bool {
	return Code(err) == CodeNotFound
}

// IsAlreadyExists reports whether err means the resource already exists.
func IsAlreadyExists(err error) bool {
	return Code(err) == CodeAlreadyExists
}

// IsInvalidInput reports whether err was caused by invalid caller input.
func IsInvalidInput(err error) bool {
	return Code(err) == CodeInvalidInput
}

// codeFromReasons looks at the detailed reasons BigQuery and Cloud Storage attach
// to HTTP errors. Quota failures are reported as 403 and need the reason to be told
// apart from permission errors.
func codeFromReasons(apiErr *googleapi.Error) ErrorCode {
	for _, item := range apiErr.Errors {
		if code := CodeForReason(item.Reason); code != "" {
			return code
		}
	}
	return ""
}

// CodeForReason maps a Google API error reason such as "notFound" or
// "quotaExceeded" to a code. It returns the empty code for unknown reasons.
func CodeForReason(reason string) ErrorCode {
	switch reason {
	case "notFound":
		return CodeNotFound
	case "duplicate", "alreadyExists", "conflict":
		return CodeAlreadyExists
	case "accessDenied", "forbidden":
		return CodeForbidden
	case "quotaExceeded", "rateLimitExceeded":
		return CodeRateLimit
	case "invalid", "invalidQuery", "required":
		return CodeInvalidInput
	case "backendError", "internalError":
		return CodeUnavailable
	case "timeout":
		return CodeTimeout
	}
	return ""
}

func codeFromHTTP(code int) ErrorCode {
	switch code {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeAlreadyExists
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusBadRequest, http.StatusPreconditionFailed:
		return CodeInvalidInput
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return CodeUnavailable
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return CodeTimeout
	}
	return CodeUnknown
}

func codeFromGRPC(code codes.Code) ErrorCode {
	switch code {
	case codes.NotFound:
		return CodeNotFound
	case codes.AlreadyExists:
		return CodeAlreadyExists
	case codes.Unauthenticated:
		return CodeUnauthorized
	case codes.PermissionDenied:
		return CodeForbidden
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return CodeInvalidInput
	case codes.ResourceExhausted:
		return CodeRateLimit
	case codes.Unavailable:
		return CodeUnavailable
	case codes.DeadlineExceeded:
		return CodeTimeout
	case codes.Canceled:
		return CodeCanceled
	}
	return CodeUnknown
}
