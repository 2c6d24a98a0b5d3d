package validation

import (
	"strings"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

// Field is a named argument that must not be empty.
type Field struct {
	Name  string
	Value string
}

// F is shorthand for constructing a Field.
func F(name, value string) Field {
	return Field{Name: name, Value: value}
}

// Required returns an invalid-input error naming the first empty field, or nil
// when every field is set. Whitespace-only values count as empty.
func Required(op, resource string, fields ...Field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			return gcperrors.Invalid(op, resource, "%s cannot be empty", f.Name)
		}
	}
	return nil
}

// GCSURIPrefix is the scheme prefix of Cloud Storage URIs.
const GCSURIPrefix = "gs://"

// ParseGCSURI splits a gs://bucket/object URI. The object part may be empty or
// contain wildcards; only the bucket is required.
func ParseGCSURI(op, uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, GCSURIPrefix) {
		return "", "", gcperrors.Invalid(op, uri, "uri must start with %q", GCSURIPrefix)
	}

	rest := strings.TrimPrefix(uri, GCSURIPrefix)
	bucket, object, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", gcperrors.Invalid(op, uri, "uri must name a bucket")
	}

	return bucket, object, nil
}

// GCSURI builds a gs:// URI for bucket and object.
func GCSURI(bucket, object string) string {
	if object == "" {
		return GCSURIPrefix + bucket
	}
	return GCSURIPrefix + bucket + "/" + object
}
