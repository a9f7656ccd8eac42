// Package storage abstracts the object store holding article files.
package storage

import (
	"context"
	"io"
)

// Uploader stores and removes article file objects. The production
// implementation talks to S3-compatible storage; tests use an in-memory
// implementation.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
