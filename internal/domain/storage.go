package domain

import (
	"context"
	"io"
)

// BlobStore holds converted PDFs by key.
type BlobStore interface {
	Put(ctx context.Context, key string, file io.Reader, size int64) error
	// Open returns ErrBlobNotFound when nothing is stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete returns ErrBlobNotFound when nothing is stored under key.
	Delete(ctx context.Context, key string) error
	// Location describes where key lives, e.g. a file path or s3:// URL.
	Location(key string) string
}
