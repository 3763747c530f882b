//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/galaxy-store/internal/persist"
	"github.com/xenking/galaxy-store/internal/storage"
	"github.com/xenking/galaxy-store/internal/storage/postgres"
	redisstore "github.com/xenking/galaxy-store/internal/storage/redis"
)

func exerciseStore(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()
	key := "it_" + uuid.NewString()

	require.NoError(t, s.Ping(ctx))

	_, err := s.Get(ctx, key)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, key, []byte("first")))
	require.NoError(t, s.Set(ctx, key, []byte("second")))
	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	p := persist.New(s)
	require.NoError(t, p.Save(ctx, key, persist.EncoderFunc(func(e *jx.Encoder) {
		e.ArrStart()
		e.Int(42)
		e.ArrEnd()
	})))
	raw, ok := p.Load(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "[42]", string(raw))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{Addr: redisAddr})
	s := redisstore.New(client, "galaxy:it:")
	defer func() { _ = s.Close() }()

	exerciseStore(t, s)
}

func TestPostgresKVStore(t *testing.T) {
	s, err := postgres.OpenKVStore(context.Background(), databaseURL)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	exerciseStore(t, s)
}
