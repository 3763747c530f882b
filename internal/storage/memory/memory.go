// Package memory provides an in-process storage.Store with a byte quota.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/galaxy-store/internal/storage"
)

// DefaultQuota mirrors the usual per-origin local storage limit.
const DefaultQuota = 5 << 20

var _ storage.Store = (*Store)(nil)

// Store keeps values in a map. Usage is the sum of key and value lengths
// over all entries; a Set that would push usage above the quota fails with
// storage.ErrQuotaExceeded and leaves the previous value in place.
type Store struct {
	quota int

	mu    sync.RWMutex
	items map[string][]byte
	used  int
}

// New returns an empty Store. A quota of zero or less disables the limit.
func New(quota int) *Store {
	return &Store{quota: quota, items: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := s.used
	if old, ok := s.items[key]; ok {
		used -= len(key) + len(old)
	}
	used += len(key) + len(value)
	if s.quota > 0 && used > s.quota {
		return storage.ErrQuotaExceeded
	}

	s.items[key] = append([]byte(nil), value...)
	s.used = used
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.items[key]; ok {
		s.used -= len(key) + len(old)
		delete(s.items, key)
	}
	return nil
}

// Used returns the number of bytes currently counted against the quota.
func (s *Store) Used() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
