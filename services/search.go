package services

import (
	"context"
	"sort"
	"strings"
	"time"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"gorm.io/gorm"

	"github.com/binify/binify/models"
)

// searchThreshold is the minimum similarity score (0-100, exclusive) for a
// bin to appear in search results.
const searchThreshold = 50

// SearchService ranks public active bins by fuzzy similarity against the
// title and the language display name.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService wires the search service.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// SearchResult pairs a matched bin with its similarity score.
type SearchResult struct {
	Bin   models.Bin
	Score int
}

// Search scores every public active bin against the query and returns the
// ones above the threshold, best match first, newest first on ties.
func (s *SearchService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "q", Reason: "cannot be empty"}
	}

	var candidates []models.Bin
	err := s.db.WithContext(ctx).
		Where("access = ?", models.AccessPublic).
		Where("expiry_at IS NULL OR expiry_at > ?", time.Now()).
		Preload("Author").
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, bin := range candidates {
		score := fuzzy.Ratio(query, bin.Title)
		if langScore := fuzzy.Ratio(query, models.LanguageLabel(bin.Language)); langScore > score {
			score = langScore
		}
		if score > searchThreshold {
			results = append(results, SearchResult{Bin: bin, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Bin.CreatedAt.After(results[j].Bin.CreatedAt)
	})
	return results, nil
}
