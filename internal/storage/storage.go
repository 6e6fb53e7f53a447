// Package storage defines the interface for object storage operations.
// Swap implementations by changing the concrete type injected at startup —
// the MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no object exists at the requested key.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Store is the flat key-value blob store the gallery is built on.
type Store interface {
	// Put streams data to the store under the given key.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	// Get opens the object at key for reading. The caller must close the
	// returned reader. Returns ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	// Stat returns object metadata without the body. Returns ErrNotFound
	// if the key does not exist.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the keys of all objects whose key starts with prefix.
	// No ordering is guaranteed.
	List(ctx context.Context, prefix string) ([]string, error)
}
