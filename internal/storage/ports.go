// Package storage defines the key-value contract the record store persists
// through. Backends live in the subpackages.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("key not found")

// KeyValueStore keeps opaque values under string keys.
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
}

// Closer is implemented by backends holding connections.
type Closer interface {
	Close(ctx context.Context) error
}
