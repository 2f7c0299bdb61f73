package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binify/binify/models"
)

func TestSearchMatchesTitleAndLanguage(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	env.createBin(t, user, CreateBinInput{Title: "kubernetes deployment notes", Content: "x"})
	env.createBin(t, user, CreateBinInput{Title: "shopping list", Content: "x", Language: "python"})
	env.createBin(t, user, CreateBinInput{Title: "totally unrelated", Content: "x"})

	results, err := env.search.Search(context.Background(), "kubernetes deployment")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "alice/kubernetes deployment notes", results[0].Bin.Title)

	// Language display names are searchable too.
	results, err = env.search.Search(context.Background(), "Python")
	require.NoError(t, err)
	found := false
	for _, r := range results {
		if r.Bin.Title == "alice/shopping list" {
			found = true
		}
	}
	assert.True(t, found, "language match must surface the bin")
}

func TestSearchDropsLowScores(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	env.createBin(t, user, CreateBinInput{Title: "zzzz qqqq wwww", Content: "x"})

	results, err := env.search.Search(context.Background(), "kubernetes")
	require.NoError(t, err)
	for _, r := range results {
		assert.Greater(t, r.Score, searchThreshold)
	}
	assert.Empty(t, results)
}

func TestSearchOrdersByScore(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	env.createBin(t, user, CreateBinInput{Title: "error handling", Content: "x"})
	env.createBin(t, user, CreateBinInput{Title: "error handling in production systems", Content: "x"})

	results, err := env.search.Search(context.Background(), "alice/error handling")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(results), 2)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearchExcludesPrivateAndExpired(t *testing.T) {
	env := newTestEnv(t)
	env.fillPool(t)
	user := env.newUser(t, "alice")
	env.createBin(t, user, CreateBinInput{Title: "visible secret notes", Content: "x"})
	private := env.createBin(t, user, CreateBinInput{Title: "private secret notes", Content: "x", Access: models.AccessPrivate})
	stale := env.createBin(t, user, CreateBinInput{Title: "expired secret notes", Content: "x"})

	past := time.Now().Add(-time.Minute)
	require.NoError(t, env.db.Model(&models.Bin{}).Where("id = ?", stale.ID).Update("expiry_at", past).Error)

	results, err := env.search.Search(context.Background(), "secret notes")
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, private.ID, r.Bin.ID)
		assert.NotEqual(t, stale.ID, r.Bin.ID)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.search.Search(context.Background(), "   ")
	assert.True(t, IsValidation(err))
}
