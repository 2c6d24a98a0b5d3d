// Package storage provides a thin helper client for Google Cloud Storage.
//
// The client wraps cloud.google.com/go/storage to provide:
//   - Bucket lifecycle: create, delete (idempotent), exists
//   - Object upload from readers, byte slices, local files and whole directories
//   - Object download into memory, writers and local files
//   - Listing with prefix and delimiter, and object deletion
//
// Local files are accessed through a billy.Filesystem. The default is the host
// filesystem; tests and callers with virtual filesystems pass their own with
// WithFilesystem.
//
// Content types are sniffed from the first bytes of each upload with mimetype
// unless one is given with WithContentType.
package storage
