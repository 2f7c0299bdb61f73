package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binify/binify/models"
)

func TestRecordViewDedupesBySession(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	bin := env.createBin(t, user, CreateBinInput{Title: "viewed", Content: "x"})
	ctx := context.Background()

	require.NoError(t, env.views.RecordView(ctx, bin, "session-a", nil))
	require.NoError(t, env.views.RecordView(ctx, bin, "session-a", nil))
	assert.Equal(t, int64(1), bin.ViewsCount, "same session counts once")

	require.NoError(t, env.views.RecordView(ctx, bin, "session-b", nil))
	assert.Equal(t, int64(2), bin.ViewsCount)

	var stored models.Bin
	require.NoError(t, env.db.First(&stored, bin.ID).Error)
	assert.Equal(t, int64(2), stored.ViewsCount)
}

func TestRecordViewDedupesByUserAcrossSessions(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	alice := env.newUser(t, "alice")
	bin := env.createBin(t, alice, CreateBinInput{Title: "viewed", Content: "x"})
	ctx := context.Background()

	require.NoError(t, env.views.RecordView(ctx, bin, "laptop", &alice.ID))
	require.NoError(t, env.views.RecordView(ctx, bin, "phone", &alice.ID))
	assert.Equal(t, int64(1), bin.ViewsCount, "same account counts once regardless of session")
}

func TestRecordViewByHashIgnoresUnknownHash(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.views.RecordViewByHash(context.Background(), "nope1234", "s", nil))
}

func TestReactLikeThenFlip(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	bin := env.createBin(t, alice, CreateBinInput{Title: "rated", Content: "x"})
	ctx := context.Background()

	counts, err := env.views.React(ctx, bin, bob.ID, ActionLike)
	require.NoError(t, err)
	assert.Equal(t, ReactionCounts{Likes: 1, Dislikes: 0}, counts)

	// Same action again is a no-op.
	counts, err = env.views.React(ctx, bin, bob.ID, ActionLike)
	require.NoError(t, err)
	assert.Equal(t, ReactionCounts{Likes: 1, Dislikes: 0}, counts)

	// Opposite action flips the single row and both counters.
	counts, err = env.views.React(ctx, bin, bob.ID, ActionDislike)
	require.NoError(t, err)
	assert.Equal(t, ReactionCounts{Likes: 0, Dislikes: 1}, counts)

	var rows int64
	require.NoError(t, env.db.Model(&models.Like{}).Where("bin_id = ?", bin.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows, "one row per (bin,user)")
}

func TestReactRejectsUnknownAction(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	alice := env.newUser(t, "alice")
	bin := env.createBin(t, alice, CreateBinInput{Title: "rated", Content: "x"})

	_, err := env.views.React(context.Background(), bin, alice.ID, "love")
	assert.True(t, IsValidation(err))
}

func TestCommentsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	bin := env.createBin(t, alice, CreateBinInput{Title: "discussed", Content: "x"})
	ctx := context.Background()

	first, err := env.views.AddComment(ctx, bin, bob, "nice paste")
	require.NoError(t, err)
	_, err = env.views.AddComment(ctx, bin, alice, "thanks")
	require.NoError(t, err)

	_, err = env.views.AddComment(ctx, bin, bob, "   ")
	assert.True(t, IsValidation(err))

	comments, err := env.views.ListComments(ctx, bin.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	// Only the owner (or an admin) may delete.
	err = env.views.DeleteComment(ctx, alice.ID, false, first.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	require.NoError(t, env.views.DeleteComment(ctx, bob.ID, false, first.ID))
	require.NoError(t, env.views.DeleteComment(ctx, alice.ID, true, comments[0].ID))

	err = env.views.DeleteComment(ctx, alice.ID, true, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsCountsEverything(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	alice := env.newUser(t, "alice")
	bob := env.newUser(t, "bob")
	bin := env.createBin(t, alice, CreateBinInput{Title: "counted", Content: "x"})
	ctx := context.Background()

	require.NoError(t, env.views.RecordView(ctx, bin, "s1", nil))
	_, err := env.views.React(ctx, bin, bob.ID, ActionLike)
	require.NoError(t, err)
	_, err = env.views.AddComment(ctx, bin, bob, "hi")
	require.NoError(t, err)

	stats, err := env.views.Stats(ctx, bin)
	require.NoError(t, err)
	assert.Equal(t, *bin.Hash, stats.Hash)
	assert.Equal(t, int64(1), stats.ViewsCount)
	assert.Equal(t, int64(1), stats.LikesCount)
	assert.Equal(t, int64(0), stats.DislikesCount)
	assert.Equal(t, int64(1), stats.CommentsCount)
}
