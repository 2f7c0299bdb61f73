package hashpool

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var hashShape = regexp.MustCompile(`^[A-Za-z0-9_-]{8}$`)

func newTestPool(cfg Config) (*Pool, *MemoryStore) {
	store := NewMemoryStore()
	return New(store, cfg, zap.NewNop().Sugar()), store
}

func TestEncodeHashShape(t *testing.T) {
	for _, seq := range []uint64{0, 1, 63, 64, 1 << 20, 1<<48 - 1} {
		h := EncodeHash(seq)
		assert.Len(t, h, HashLength)
		assert.Regexp(t, hashShape, h)
	}
}

func TestEncodeHashUniqueness(t *testing.T) {
	seen := make(map[string]uint64, 100000)
	for seq := uint64(0); seq < 100000; seq++ {
		h := EncodeHash(seq)
		if prev, dup := seen[h]; dup {
			t.Fatalf("hash %q emitted for both %d and %d", h, prev, seq)
		}
		seen[h] = seq
	}
}

func TestReplenishFillsToWatermark(t *testing.T) {
	pool, store := newTestPool(Config{LowWatermark: 10, BatchSize: 10})
	ctx := context.Background()

	require.NoError(t, pool.Replenish(ctx))
	length, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), length)

	// At the watermark, another round is a no-op.
	require.NoError(t, pool.Replenish(ctx))
	length, err = store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(10), length)
}

func TestAllocateDrainsThenReportsEmpty(t *testing.T) {
	pool, _ := newTestPool(Config{LowWatermark: 5, BatchSize: 5})
	ctx := context.Background()
	require.NoError(t, pool.Replenish(ctx))

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		h, ok := pool.Allocate(ctx)
		require.True(t, ok)
		assert.False(t, seen[h], "pool must never hand out a duplicate")
		seen[h] = true
	}

	_, ok := pool.Allocate(ctx)
	assert.False(t, ok, "an exhausted pool degrades, it does not block")
}

func TestReleaseReturnsHashToFront(t *testing.T) {
	pool, _ := newTestPool(Config{LowWatermark: 3, BatchSize: 3})
	ctx := context.Background()
	require.NoError(t, pool.Replenish(ctx))

	h, ok := pool.Allocate(ctx)
	require.True(t, ok)

	pool.Release(ctx, h)
	next, ok := pool.Allocate(ctx)
	require.True(t, ok)
	assert.Equal(t, h, next, "released hashes come back first")
}

func TestReplenishNeverRequeuesEmitted(t *testing.T) {
	pool, store := newTestPool(Config{LowWatermark: 100, BatchSize: 50})
	ctx := context.Background()

	require.NoError(t, pool.Replenish(ctx))
	require.NoError(t, pool.Replenish(ctx))

	drained := map[string]bool{}
	for {
		h, err := store.PopFront(ctx)
		if err != nil {
			break
		}
		assert.False(t, drained[h])
		drained[h] = true
	}
	assert.Len(t, drained, 100)
}

func TestSequenceAdvancesByFullBatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	start, err := store.NextSeq(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), start)

	start, err = store.NextSeq(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), start, "reserved ranges never overlap")
}

func TestMarkEmittedFiltersDuplicates(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	fresh, err := store.MarkEmitted(ctx, []string{"aaaa1111", "bbbb2222"})
	require.NoError(t, err)
	assert.Equal(t, []string{"aaaa1111", "bbbb2222"}, fresh)

	fresh, err = store.MarkEmitted(ctx, []string{"bbbb2222", "cccc3333"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cccc3333"}, fresh)
}
