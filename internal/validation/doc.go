// Package validation holds the input checks every helper performs before calling
// a Google Cloud API. Checks are deliberately shallow: identifiers must be present,
// and storage URIs must name a bucket. Everything else is left to the service.
package validation
