package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/binify/binify/cache"
	"github.com/binify/binify/models"
	"github.com/binify/binify/utils"
)

// Reaction actions accepted by React.
const (
	ActionLike    = "like"
	ActionDislike = "dislike"
)

// InteractionService covers view recording, reactions and comments.
type InteractionService struct {
	db    *gorm.DB
	cache *cache.BinCache
	log   *zap.SugaredLogger
}

// NewInteractionService wires the interaction service.
func NewInteractionService(db *gorm.DB, binCache *cache.BinCache, log *zap.SugaredLogger) *InteractionService {
	return &InteractionService{db: db, cache: binCache, log: log}
}

// RecordView counts one view per session or user. Repeat views from the same
// session key or the same account are no-ops; views_count is recomputed from
// the rows so the counter can never drift from its source.
func (s *InteractionService) RecordView(ctx context.Context, bin *models.Bin, sessionKey string, userID *uint) error {
	if sessionKey == "" && userID == nil {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.View{}).Where("bin_id = ?", bin.ID)
		if userID != nil {
			q = q.Where("user_id = ? OR session_key = ?", *userID, sessionKey)
		} else {
			q = q.Where("session_key = ?", sessionKey)
		}
		var seen int64
		if err := q.Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return nil
		}

		view := models.View{BinID: bin.ID, SessionKey: sessionKey, UserID: userID}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}

		var total int64
		if err := tx.Model(&models.View{}).Where("bin_id = ?", bin.ID).Count(&total).Error; err != nil {
			return err
		}
		bin.ViewsCount = total
		return tx.Model(&models.Bin{}).Where("id = ?", bin.ID).Update("views_count", total).Error
	})
}

// RecordViewByHash resolves the bin row and records a view against it. The
// lookup is intentionally light (indexed hash column) so a cache-served read
// still only costs one small query for its view bookkeeping.
func (s *InteractionService) RecordViewByHash(ctx context.Context, hash, sessionKey string, userID *uint) error {
	var bin models.Bin
	err := s.db.WithContext(ctx).
		Select("id", "hash", "views_count").
		Where("hash = ?", hash).
		First(&bin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.RecordView(ctx, &bin, sessionKey, userID)
}

// ReactionCounts is what every reaction endpoint answers with, regardless of
// whether the action changed anything.
type ReactionCounts struct {
	Likes    int64 `json:"likes_count"`
	Dislikes int64 `json:"dislikes_count"`
}

// React applies a like or dislike for a user. One row per (bin, user): the
// same action twice is a no-op, the opposite action flips the row and moves
// both counters in the same transaction.
func (s *InteractionService) React(ctx context.Context, bin *models.Bin, userID uint, action string) (ReactionCounts, error) {
	if action != ActionLike && action != ActionDislike {
		return ReactionCounts{}, &ValidationError{Field: "action", Reason: "must be like or dislike"}
	}
	isLike := action == ActionLike

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("bin_id = ? AND user_id = ?", bin.ID, userID).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.Like{BinID: bin.ID, UserID: userID, IsLike: isLike}
			if err := tx.Create(&like).Error; err != nil {
				return err
			}
			column := "dislikes_count"
			if isLike {
				column = "likes_count"
			}
			return tx.Model(&models.Bin{}).Where("id = ?", bin.ID).
				Update(column, gorm.Expr(column+" + 1")).Error
		case err != nil:
			return err
		case existing.IsLike == isLike:
			// Same action again: idempotent.
			return nil
		default:
			if err := tx.Model(&existing).Update("is_like", isLike).Error; err != nil {
				return err
			}
			updates := map[string]interface{}{
				"likes_count":    gorm.Expr("likes_count - 1"),
				"dislikes_count": gorm.Expr("dislikes_count + 1"),
			}
			if isLike {
				updates = map[string]interface{}{
					"likes_count":    gorm.Expr("likes_count + 1"),
					"dislikes_count": gorm.Expr("dislikes_count - 1"),
				}
			}
			return tx.Model(&models.Bin{}).Where("id = ?", bin.ID).Updates(updates).Error
		}
	})
	if err != nil {
		return ReactionCounts{}, err
	}

	var fresh models.Bin
	if err := s.db.WithContext(ctx).Select("likes_count", "dislikes_count").First(&fresh, bin.ID).Error; err != nil {
		return ReactionCounts{}, err
	}
	bin.LikesCount = fresh.LikesCount
	bin.DislikesCount = fresh.DislikesCount

	// Cached counters are now stale; the next hot read repopulates.
	if bin.Hash != nil {
		s.cache.Invalidate(ctx, *bin.Hash)
	}
	return ReactionCounts{Likes: fresh.LikesCount, Dislikes: fresh.DislikesCount}, nil
}

// AddComment appends a comment to a bin.
func (s *InteractionService) AddComment(ctx context.Context, bin *models.Bin, author *models.User, content string) (*models.Comment, error) {
	content = strings.TrimSpace(utils.Sanitize(content))
	if content == "" {
		return nil, &ValidationError{Field: "content", Reason: "cannot be empty"}
	}

	authorID := author.ID
	comment := &models.Comment{BinID: bin.ID, AuthorID: &authorID, Content: content}
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	comment.Author = author
	return comment, nil
}

// ListComments returns a bin's comments, newest first.
func (s *InteractionService) ListComments(ctx context.Context, binID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("bin_id = ?", binID).
		Preload("Author").
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

// DeleteComment removes a comment. Comment owner or admin only.
func (s *InteractionService) DeleteComment(ctx context.Context, actorID uint, isAdmin bool, commentID uint) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !isAdmin && (comment.AuthorID == nil || *comment.AuthorID != actorID) {
		return ErrPermissionDenied
	}
	return s.db.WithContext(ctx).Delete(&comment).Error
}

// BinStats bundles the per-bin counters.
type BinStats struct {
	Hash          string `json:"hash"`
	ViewsCount    int64  `json:"views_count"`
	LikesCount    int64  `json:"likes_count"`
	DislikesCount int64  `json:"dislikes_count"`
	CommentsCount int64  `json:"comments_count"`
}

// Stats returns the counters for a bin.
func (s *InteractionService) Stats(ctx context.Context, bin *models.Bin) (BinStats, error) {
	var comments int64
	if err := s.db.WithContext(ctx).Model(&models.Comment{}).Where("bin_id = ?", bin.ID).Count(&comments).Error; err != nil {
		return BinStats{}, err
	}
	hash := ""
	if bin.Hash != nil {
		hash = *bin.Hash
	}
	return BinStats{
		Hash:          hash,
		ViewsCount:    bin.ViewsCount,
		LikesCount:    bin.LikesCount,
		DislikesCount: bin.DislikesCount,
		CommentsCount: comments,
	}, nil
}
