package ports

import (
	"context"
	"io"
)

// BlobStore saves uploaded files and returns the URL they are served from
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}
