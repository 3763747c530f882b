// Package storage defines the durable key-value store the persistence
// adapter writes to, the browser local storage analogue of the engine.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Set when the backend has no room left
	// for the value.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Store is a durable key-value store.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend's resources.
	Close() error
}
