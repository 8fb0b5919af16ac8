package store

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()

	s, err := NewBadgerStore(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestBadgerStore_PutGetDelete(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "em:test:p1:k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "em:test:p1:k", []byte("v")))

	val, ok, err := s.Get(ctx, "em:test:p1:k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(val))

	require.NoError(t, s.Delete(ctx, "em:test:p1:k"))
	require.NoError(t, s.Delete(ctx, "em:test:p1:k"))

	_, ok, err = s.Get(ctx, "em:test:p1:k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerStore_KeysAndDeletePrefix(t *testing.T) {
	s := setupBadgerStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "em:counters:global:hourly", []byte("x")))
	require.NoError(t, s.Put(ctx, "em:counters:global:daily", []byte("x")))
	require.NoError(t, s.Put(ctx, "em:counters:category:news:hourly", []byte("x")))

	keys, err := s.Keys(ctx, "em:counters:global:")
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"em:counters:global:daily", "em:counters:global:hourly"}, keys)

	n, err := s.DeletePrefix(ctx, "em:counters:global:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err = s.Keys(ctx, "em:counters:")
	require.NoError(t, err)
	assert.Equal(t, []string{"em:counters:category:news:hourly"}, keys)
}

func TestBadgerStore_Ping(t *testing.T) {
	s := setupBadgerStore(t)
	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
