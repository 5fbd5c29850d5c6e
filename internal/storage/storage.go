// Package storage contains the file store abstraction used for uploaded recordings and
// generated plot artifacts.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidKey is returned for keys that are empty, absolute, or escape the store root.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// PutObjectOptions define optional parameters for writing objects.
// Size is the expected number of bytes if known, or -1. A mismatch is reported as an error.
type PutObjectOptions struct {
	Size        int64
	ContentType string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Storage is a keyed file store. Keys are slash-separated relative paths.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Put writes an object under key, replacing any previous content atomically.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens an object for streaming reads alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns an object's info without opening it.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// URL returns the public path under which the object is served.
	URL(key string) string
	// Ping verifies the store is usable.
	Ping(ctx context.Context) error
}
