// Package storage keeps uploaded binaries in an external object store.
package storage

import (
	"context"
	"io"
)

// Object identifies a stored binary.
type Object struct {
	URL string
	Key string
}

// ObjectStore persists binaries under caller-chosen keys.
type ObjectStore interface {
	// Put streams body to key. size is the exact body length when known,
	// otherwise -1.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
