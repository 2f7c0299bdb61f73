package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(metaTTL, contentTTL time.Duration) (*BinCache, *MemoryStore) {
	store := NewMemoryStore()
	return New(store, metaTTL, contentTTL, zap.NewNop().Sugar()), store
}

func sampleMeta(hash string) *Meta {
	return &Meta{
		Hash:       hash,
		Title:      "alice/sample",
		Author:     "alice",
		Language:   "python",
		Access:     "public",
		Expiry:     "never",
		SizeBin:    42,
		ViewsCount: 51,
		CreatedAt:  time.Now(),
	}
}

func TestMissReturnsNil(t *testing.T) {
	c, _ := newTestCache(0, 0)
	ctx := context.Background()

	assert.Nil(t, c.GetMeta(ctx, "unknown1"))
	_, ok := c.GetContent(ctx, "unknown1")
	assert.False(t, ok)
}

func TestPopulateThenGet(t *testing.T) {
	c, _ := newTestCache(0, 0)
	ctx := context.Background()

	c.Populate(ctx, sampleMeta("abcd1234"), "print('hi')")

	meta := c.GetMeta(ctx, "abcd1234")
	require.NotNil(t, meta)
	assert.Equal(t, "alice/sample", meta.Title)
	assert.Equal(t, int64(51), meta.ViewsCount)

	content, ok := c.GetContent(ctx, "abcd1234")
	require.True(t, ok)
	assert.Equal(t, "print('hi')", content)
}

func TestPopulateOverwrites(t *testing.T) {
	c, _ := newTestCache(0, 0)
	ctx := context.Background()

	c.Populate(ctx, sampleMeta("abcd1234"), "v1")
	meta := sampleMeta("abcd1234")
	meta.ViewsCount = 99
	c.Populate(ctx, meta, "v2")

	got := c.GetMeta(ctx, "abcd1234")
	require.NotNil(t, got)
	assert.Equal(t, int64(99), got.ViewsCount)

	content, ok := c.GetContent(ctx, "abcd1234")
	require.True(t, ok)
	assert.Equal(t, "v2", content)
}

func TestInvalidateDropsBothEntries(t *testing.T) {
	c, _ := newTestCache(0, 0)
	ctx := context.Background()

	c.Populate(ctx, sampleMeta("abcd1234"), "body")
	c.Invalidate(ctx, "abcd1234")

	assert.Nil(t, c.GetMeta(ctx, "abcd1234"))
	_, ok := c.GetContent(ctx, "abcd1234")
	assert.False(t, ok)
}

func TestInvalidateUnknownHashIsHarmless(t *testing.T) {
	c, _ := newTestCache(0, 0)
	c.Invalidate(context.Background(), "neverseen")
}

func TestEntriesExpire(t *testing.T) {
	c, store := newTestCache(time.Minute, time.Minute)
	ctx := context.Background()

	c.Populate(ctx, sampleMeta("abcd1234"), "body")

	// Advance the store clock past both TTLs.
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	assert.Nil(t, c.GetMeta(ctx, "abcd1234"))
	_, ok := c.GetContent(ctx, "abcd1234")
	assert.False(t, ok)
}

func TestIndependentKeys(t *testing.T) {
	c, store := newTestCache(time.Minute, time.Minute)
	ctx := context.Background()

	c.Populate(ctx, sampleMeta("abcd1234"), "body")
	// Drop only the content entry; metadata must still resolve.
	require.NoError(t, store.Delete(ctx, contentKeyPrefix+"abcd1234"))

	assert.NotNil(t, c.GetMeta(ctx, "abcd1234"))
	_, ok := c.GetContent(ctx, "abcd1234")
	assert.False(t, ok)
}

func TestCorruptMetaDegradesToMiss(t *testing.T) {
	c, store := newTestCache(0, 0)
	ctx := context.Background()

	require.NoError(t, store.SetBytes(ctx, metaKeyPrefix+"abcd1234", []byte("{not json"), 0))
	assert.Nil(t, c.GetMeta(ctx, "abcd1234"))
}

func TestMetaIsActive(t *testing.T) {
	m := sampleMeta("abcd1234")
	assert.True(t, m.IsActive())

	past := time.Now().Add(-time.Second)
	m.ExpiryAt = &past
	assert.False(t, m.IsActive())

	future := time.Now().Add(time.Hour)
	m.ExpiryAt = &future
	assert.True(t, m.IsActive())
}
