package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore("https://cdn.example.com")
	ctx := context.Background()

	url, err := store.Put(ctx, "bins/bin_abc.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/bins/bin_abc.txt", url)

	body, err := store.Get(ctx, "bins/bin_abc.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	size, err := store.Head(ctx, "bins/bin_abc.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	ok, err := store.Exists(ctx, "bins/bin_abc.txt")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	_, err := store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Head(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := store.Exists(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreDeleteIsIdempotent(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	_, err := store.Put(ctx, "k", []byte("v"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreCopiesBodies(t *testing.T) {
	store := NewMemoryStore("")
	ctx := context.Background()

	body := []byte("immutable")
	_, err := store.Put(ctx, "k", body)
	require.NoError(t, err)
	body[0] = 'X'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "immutable", string(got))
}

func TestNewObjectKeyIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		key := NewObjectKey()
		assert.Regexp(t, `^bins/bin_[0-9a-f]{32}\.txt$`, key)
		assert.False(t, seen[key])
		seen[key] = true
	}
}
