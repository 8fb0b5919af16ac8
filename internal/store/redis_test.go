package store

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	s, err := NewRedisStore(RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestRedisStore_GetMissingKey(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	val, ok, err := s.Get(ctx, "em:interactions:art1:snapshot")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestRedisStore_PutGetDelete(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "em:test:p1:k", []byte(`{"views":3}`)))

	val, ok, err := s.Get(ctx, "em:test:p1:k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"views":3}`, string(val))

	require.NoError(t, s.Delete(ctx, "em:test:p1:k"))

	_, ok, err = s.Get(ctx, "em:test:p1:k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is not an error.
	require.NoError(t, s.Delete(ctx, "em:test:p1:k"))
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	s, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutTTL(ctx, "em:counters:global:active:2025-01-01T10:u1", []byte("1"), time.Hour))

	_, ok, err := s.Get(ctx, "em:counters:global:active:2025-01-01T10:u1")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(time.Hour + time.Minute)

	_, ok, err = s.Get(ctx, "em:counters:global:active:2025-01-01T10:u1")
	require.NoError(t, err)
	assert.False(t, ok, "key must disappear after its TTL elapses")
}

func TestRedisStore_KeysPrefix(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "em:behavior:u1:read:a1", []byte("x")))
	require.NoError(t, s.Put(ctx, "em:behavior:u1:read:a2", []byte("x")))
	require.NoError(t, s.Put(ctx, "em:behavior:u1:profile", []byte("x")))
	require.NoError(t, s.Put(ctx, "em:behavior:u2:read:a1", []byte("x")))

	keys, err := s.Keys(ctx, "em:behavior:u1:read:")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"em:behavior:u1:read:a1", "em:behavior:u1:read:a2"}, keys)
}

func TestRedisStore_DeletePrefix(t *testing.T) {
	s, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "em:analytics:events:event:001", []byte("x")))
	require.NoError(t, s.Put(ctx, "em:analytics:events:event:002", []byte("x")))
	require.NoError(t, s.Put(ctx, "em:analytics:events:popularity:a1", []byte("x")))

	n, err := s.DeletePrefix(ctx, "em:analytics:events:event:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, ok, err := s.Get(ctx, "em:analytics:events:popularity:a1")
	require.NoError(t, err)
	assert.True(t, ok, "keys outside the prefix must survive")
}

func TestNewRedisStore_EmptyAddress(t *testing.T) {
	_, err := NewRedisStore(RedisConfig{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}
