package storage

import (
	"context"
	"io"
)

// ObjectStorage is where result reports are mirrored after a run.
type ObjectStorage interface {
	// Upload uploads an object to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL for accessing an object
	GetURL(key string) string

	// EnsureBucket creates the target bucket when the backend allows it
	EnsureBucket(ctx context.Context) error
}
