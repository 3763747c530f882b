package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/galaxy-store/internal/storage"
)

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New(0)

	_, err := s.Get(ctx, "cart")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Set(ctx, "cart", []byte("[1]")))
	v, err := s.Get(ctx, "cart")
	require.NoError(t, err)
	assert.Equal(t, []byte("[1]"), v)

	require.NoError(t, s.Delete(ctx, "cart"))
	require.NoError(t, s.Delete(ctx, "cart"), "delete is idempotent")
	_, err = s.Get(ctx, "cart")
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.Zero(t, s.Used())
}

func TestStore_Quota(t *testing.T) {
	ctx := context.Background()
	s := New(10)

	require.NoError(t, s.Set(ctx, "k", []byte("12345")))
	assert.Equal(t, 6, s.Used())

	err := s.Set(ctx, "k2", []byte("123456789"))
	require.ErrorIs(t, err, storage.ErrQuotaExceeded)

	// Replacing a value only counts the difference.
	require.NoError(t, s.Set(ctx, "k", []byte("123456789")))
	assert.Equal(t, 10, s.Used())

	err = s.Set(ctx, "k", []byte("1234567890"))
	require.ErrorIs(t, err, storage.ErrQuotaExceeded)
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("123456789"), v, "failed write keeps the old value")
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New(0)

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'x'

	out, err := s.Get(ctx, "k")
	require.NoError(t, err)
	out[1] = 'y'

	again, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
