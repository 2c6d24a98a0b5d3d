// Package bigquery provides a thin helper client for Google BigQuery.
//
// The client wraps cloud.google.com/go/bigquery to provide:
//   - Dataset and table lifecycle: exists, create, delete (deletes are idempotent)
//   - Data movement between BigQuery and Cloud Storage: LoadFromGCS, ExtractToGCS
//   - Queries returning rows, or writing into a destination table
//   - Streaming inserts and table copies
//
// Every method validates that required identifiers are present, forwards to the
// SDK, waits for jobs to finish, and returns SDK errors wrapped (never replaced) in
// an *errors.Error from the gcp/errors package.
//
// # Thread safety
//
// Client methods are safe for concurrent use; the underlying BigQuery client is.
package bigquery
