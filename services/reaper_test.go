package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/binify/binify/models"
)

func TestSweepRemovesOnlyExpiredBins(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	expired := env.createBin(t, user, CreateBinInput{Title: "old", Content: "stale"})
	alive := env.createBin(t, user, CreateBinInput{Title: "new", Content: "fresh"})
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	require.NoError(t, env.db.Model(&models.Bin{}).Where("id = ?", expired.ID).Update("expiry_at", past).Error)

	reaper := NewReaper(env.db, env.bins, time.Minute, zap.NewNop().Sugar())
	reaper.Sweep(ctx)

	var count int64
	require.NoError(t, env.db.Model(&models.Bin{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, env.blobs.Len(), "expired blob removed, live blob kept")

	_, err := env.bins.Get(ctx, *alive.Hash, nil)
	assert.NoError(t, err)
}

func TestSweepIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	bin := env.createBin(t, user, CreateBinInput{Title: "old", Content: "stale"})
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	require.NoError(t, env.db.Model(&models.Bin{}).Where("id = ?", bin.ID).Update("expiry_at", past).Error)

	reaper := NewReaper(env.db, env.bins, time.Minute, zap.NewNop().Sugar())
	reaper.Sweep(ctx)
	reaper.Sweep(ctx)

	var count int64
	require.NoError(t, env.db.Model(&models.Bin{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSweepSkipsBinWhenBlobDeleteFails(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	bin := env.createBin(t, user, CreateBinInput{Title: "stuck", Content: "x"})
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	require.NoError(t, env.db.Model(&models.Bin{}).Where("id = ?", bin.ID).Update("expiry_at", past).Error)

	env.bins.blobs = &failingBlobStore{MemoryStore: env.blobs}
	reaper := NewReaper(env.db, env.bins, time.Minute, zap.NewNop().Sugar())
	reaper.Sweep(ctx)

	// The row stays for the next sweep to retry.
	var count int64
	require.NoError(t, env.db.Model(&models.Bin{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSweepCleansDependentRows(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	bin := env.createBin(t, alice, CreateBinInput{Title: "social", Content: "x"})
	ctx := context.Background()

	require.NoError(t, env.views.RecordView(ctx, bin, "s1", nil))
	_, err := env.views.React(ctx, bin, bob.ID, ActionLike)
	require.NoError(t, err)
	_, err = env.views.AddComment(ctx, bin, bob, "hello")
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, env.db.Model(&models.Bin{}).Where("id = ?", bin.ID).Update("expiry_at", past).Error)

	NewReaper(env.db, env.bins, time.Minute, zap.NewNop().Sugar()).Sweep(ctx)

	for _, model := range []interface{}{&models.View{}, &models.Like{}, &models.Comment{}} {
		var count int64
		require.NoError(t, env.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
}
