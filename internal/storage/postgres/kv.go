package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/galaxy-store/internal/storage"
)

const (
	getValueSQL = `SELECT value FROM kv_store WHERE key = $1`

	setValueSQL = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`

	deleteValueSQL = `DELETE FROM kv_store WHERE key = $1`
)

// SQLSTATE codes that mean the server has no room for the write.
const (
	codeDiskFull             = "53100"
	codeProgramLimitExceeded = "54000"
)

var _ storage.Store = (*KVStore)(nil)

// KVStore implements storage.Store on the kv_store table.
type KVStore struct {
	pool *pgxpool.Pool
	own  bool
}

// NewKVStore returns a KVStore that uses the given pool. The pool is not
// closed by Close.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

// OpenKVStore connects to databaseURL, applies migrations and returns a
// KVStore that owns the pool.
func OpenKVStore(ctx context.Context, databaseURL string) (*KVStore, error) {
	pool, err := NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &KVStore{pool: pool, own: true}, nil
}

// Get returns the value stored under key.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	if err := s.pool.QueryRow(ctx, getValueSQL, key).Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("getting %q: %w", key, err)
	}
	return v, nil
}

// Set upserts value under key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, setValueSQL, key, value); err != nil {
		if isOutOfSpace(err) {
			return errors.Wrapf(storage.ErrQuotaExceeded, "set %q", key)
		}
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, deleteValueSQL, key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Ping checks the pool.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool when the store owns it.
func (s *KVStore) Close() error {
	if s.own {
		s.pool.Close()
	}
	return nil
}

func isOutOfSpace(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == codeDiskFull || pgErr.Code == codeProgramLimitExceeded
}
