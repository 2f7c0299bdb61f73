package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/binify/binify/cache"
	"github.com/binify/binify/hashpool"
	"github.com/binify/binify/models"
	"github.com/binify/binify/storage"
	"github.com/binify/binify/utils"
)

// PopularityThreshold is the view count at which a bin becomes cache-eligible.
// Below it every read goes to the source of truth, which keeps cache memory
// bounded to hot content.
const PopularityThreshold = 50

// BinService implements the bin lifecycle: create, read, update, delete, with
// blob storage as the content authority and the cache applied on the read path.
type BinService struct {
	db    *gorm.DB
	blobs storage.BlobStore
	pool  *hashpool.Pool
	cache *cache.BinCache
	log   *zap.SugaredLogger
}

// NewBinService wires the lifecycle service.
func NewBinService(db *gorm.DB, blobs storage.BlobStore, pool *hashpool.Pool, binCache *cache.BinCache, log *zap.SugaredLogger) *BinService {
	return &BinService{db: db, blobs: blobs, pool: pool, cache: binCache, log: log}
}

// CreateBinInput carries the user-supplied fields for creation.
type CreateBinInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Language string `json:"language"`
	Tags     string `json:"tags"`
	Access   string `json:"access"`
	Expiry   string `json:"expiry"`
}

// UpdateBinInput carries a partial update; nil fields are left untouched.
type UpdateBinInput struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Language *string `json:"language"`
	Tags     *string `json:"tags"`
	Access   *string `json:"access"`
	Expiry   *string `json:"expiry"`
}

func (in *CreateBinInput) normalize() error {
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Reason: "cannot be empty"}
	}
	in.Title = strings.TrimSpace(utils.SanitizePlain(in.Title))
	if in.Title == "" {
		return &ValidationError{Field: "title", Reason: "cannot be empty"}
	}
	in.Tags = strings.TrimSpace(utils.SanitizePlain(in.Tags))

	if in.Category == "" {
		in.Category = "NONE"
	}
	if in.Language == "" {
		in.Language = "none"
	}
	if in.Access == "" {
		in.Access = models.AccessPublic
	}
	if in.Expiry == "" {
		in.Expiry = "never"
	}

	if !models.ValidCategory(in.Category) {
		return &ValidationError{Field: "category", Reason: "unknown value"}
	}
	if !models.ValidLanguage(in.Language) {
		return &ValidationError{Field: "language", Reason: "unknown value"}
	}
	if !models.ValidAccess(in.Access) {
		return &ValidationError{Field: "access", Reason: "unknown value"}
	}
	if !models.ValidExpiry(in.Expiry) {
		return &ValidationError{Field: "expiry", Reason: "unknown value"}
	}
	return nil
}

// Create uploads the content, persists the row and assigns a pooled hash, all
// or nothing. On any failure after the upload the blob is deleted again and an
// allocated-but-unassigned hash goes back to the pool.
func (s *BinService) Create(ctx context.Context, user *models.User, in CreateBinInput) (*models.Bin, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	key := storage.NewObjectKey()
	url, err := s.blobs.Put(ctx, key, []byte(in.Content))
	if err != nil {
		return nil, fmt.Errorf("upload content: %w", err)
	}

	size, err := s.blobs.Head(ctx, key)
	if err != nil {
		// The upload already succeeded; fall back to the local byte length.
		size = int64(len(in.Content))
	}

	now := time.Now()
	authorID := user.ID
	bin := &models.Bin{
		FileKey:  key,
		FileURL:  url,
		Title:    user.Username + "/" + in.Title,
		Category: in.Category,
		Language: in.Language,
		Tags:     in.Tags,
		Access:   in.Access,
		Expiry:   in.Expiry,
		ExpiryAt: models.ExpiryAt(in.Expiry, now),
		SizeBin:  size,
		AuthorID: &authorID,
	}

	var allocated string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Bin{}).Where("title = ?", bin.Title).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateTitle
		}
		if err := tx.Create(bin).Error; err != nil {
			return err
		}
		hash, ok := s.pool.Allocate(ctx)
		if !ok {
			return ErrPoolExhausted
		}
		allocated = hash
		bin.Hash = &hash
		return tx.Model(bin).Update("hash", hash).Error
	})
	if err != nil {
		s.compensate(ctx, key, allocated)
		return nil, err
	}

	bin.Author = user
	return bin, nil
}

// compensate cleans up the side effects of a failed creation. Best-effort:
// a leaked blob is logged, never surfaced.
func (s *BinService) compensate(ctx context.Context, key, allocatedHash string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warnf("orphaned blob %s after failed creation: %v", key, err)
	}
	if allocatedHash != "" {
		s.pool.Release(ctx, allocatedHash)
	}
}

// Update patches the bin. Only the author may update; content, when present,
// overwrites the blob under the same key so older links keep resolving.
func (s *BinService) Update(ctx context.Context, actor *models.User, hash string, in UpdateBinInput) (*models.Bin, error) {
	bin, err := s.ByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if bin.AuthorID == nil || *bin.AuthorID != actor.ID {
		return nil, ErrPermissionDenied
	}

	if in.Content != nil {
		content := *in.Content
		if strings.TrimSpace(content) == "" {
			return nil, &ValidationError{Field: "content", Reason: "cannot be empty"}
		}
		key := bin.FileKey
		if key == "" {
			key = storage.NewObjectKey()
		}
		url, err := s.blobs.Put(ctx, key, []byte(content))
		if err != nil {
			return nil, fmt.Errorf("upload content: %w", err)
		}
		bin.FileKey = key
		bin.FileURL = url
		if size, err := s.blobs.Head(ctx, key); err == nil {
			bin.SizeBin = size
		} else {
			bin.SizeBin = int64(len(content))
		}
	}

	if in.Title != nil {
		title := strings.TrimSpace(utils.SanitizePlain(*in.Title))
		if title == "" {
			return nil, &ValidationError{Field: "title", Reason: "cannot be empty"}
		}
		bin.Title = actor.Username + "/" + title
	}
	if in.Tags != nil {
		bin.Tags = strings.TrimSpace(utils.SanitizePlain(*in.Tags))
	}
	if in.Category != nil {
		if !models.ValidCategory(*in.Category) {
			return nil, &ValidationError{Field: "category", Reason: "unknown value"}
		}
		bin.Category = *in.Category
	}
	if in.Language != nil {
		if !models.ValidLanguage(*in.Language) {
			return nil, &ValidationError{Field: "language", Reason: "unknown value"}
		}
		bin.Language = *in.Language
	}
	if in.Access != nil {
		if !models.ValidAccess(*in.Access) {
			return nil, &ValidationError{Field: "access", Reason: "unknown value"}
		}
		bin.Access = *in.Access
	}
	if in.Expiry != nil {
		if !models.ValidExpiry(*in.Expiry) {
			return nil, &ValidationError{Field: "expiry", Reason: "unknown value"}
		}
		bin.Expiry = *in.Expiry
		bin.ExpiryAt = models.ExpiryAt(*in.Expiry, time.Now())
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(bin).Error
	}); err != nil {
		return nil, err
	}

	// Stale cached copies must not outlive the edit.
	if bin.Hash != nil {
		s.cache.Invalidate(ctx, *bin.Hash)
	}
	return bin, nil
}

// ByHash loads an active bin with its author. Expired or unknown hashes map
// to ErrNotFound.
func (s *BinService) ByHash(ctx context.Context, hash string) (*models.Bin, error) {
	var bin models.Bin
	err := s.db.WithContext(ctx).Preload("Author").Where("hash = ?", hash).First(&bin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !bin.IsActive() {
		return nil, ErrNotFound
	}
	return &bin, nil
}

// Get assembles the display model for a bin, serving hot public bins from the
// cache and populating it once the popularity threshold is reached. Private
// bins are author-only and never cached.
func (s *BinService) Get(ctx context.Context, hash string, viewerID *uint) (*models.BinView, error) {
	if meta := s.cache.GetMeta(ctx, hash); meta != nil && meta.IsActive() {
		if content, ok := s.cache.GetContent(ctx, hash); ok {
			view := viewFromMeta(meta, content)
			return &view, nil
		}
	}

	bin, err := s.ByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if bin.Access == models.AccessPrivate {
		if viewerID == nil || bin.AuthorID == nil || *bin.AuthorID != *viewerID {
			return nil, ErrPermissionDenied
		}
	}

	content := s.contentOf(ctx, bin)

	if bin.Access == models.AccessPublic && bin.ViewsCount >= PopularityThreshold {
		s.cache.Populate(ctx, metaFromBin(bin), content)
	}

	view := models.NewBinView(bin, content)
	return &view, nil
}

// Content returns the raw text of a bin, cache first for hot public bins.
func (s *BinService) Content(ctx context.Context, hash string, viewerID *uint) (string, error) {
	if content, ok := s.cache.GetContent(ctx, hash); ok {
		return content, nil
	}
	bin, err := s.ByHash(ctx, hash)
	if err != nil {
		return "", err
	}
	if bin.Access == models.AccessPrivate {
		if viewerID == nil || bin.AuthorID == nil || *bin.AuthorID != *viewerID {
			return "", ErrPermissionDenied
		}
	}
	return s.contentOf(ctx, bin), nil
}

func (s *BinService) contentOf(ctx context.Context, bin *models.Bin) string {
	body, err := s.blobs.Get(ctx, bin.FileKey)
	if err != nil {
		s.log.Warnf("content missing for bin %d (%s): %v", bin.ID, bin.FileKey, err)
		return ""
	}
	return string(body)
}

// Delete removes a bin. Author or admin only. The blob goes first and a blob
// failure aborts the whole operation, so a row never outlives lost content
// silently while orphaned blobs stay findable by key.
func (s *BinService) Delete(ctx context.Context, actorID uint, isAdmin bool, hash string) error {
	bin, err := s.ByHash(ctx, hash)
	if err != nil {
		return err
	}
	if !isAdmin && (bin.AuthorID == nil || *bin.AuthorID != actorID) {
		return ErrPermissionDenied
	}
	return s.remove(ctx, bin)
}

// remove is the shared teardown for user deletes and the expiry reaper:
// blob, then row plus dependents, then cache entries.
func (s *BinService) remove(ctx context.Context, bin *models.Bin) error {
	if bin.FileKey != "" {
		if err := s.blobs.Delete(ctx, bin.FileKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("delete blob: %w", err)
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bin_id = ?", bin.ID).Delete(&models.View{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bin_id = ?", bin.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bin_id = ?", bin.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(bin).Error
	})
	if err != nil {
		return err
	}

	if bin.Hash != nil {
		s.cache.Invalidate(ctx, *bin.Hash)
	}
	return nil
}

// ListOptions filters and paginates public bin listings.
type ListOptions struct {
	Language   string
	Category   string
	Author     string
	ActiveOnly bool
	Page       int
	PageSize   int
}

func (o *ListOptions) normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize < 1 {
		o.PageSize = 20
	}
	if o.PageSize > 100 {
		o.PageSize = 100
	}
}

// List returns public bins, newest first, with optional filters.
func (s *BinService) List(ctx context.Context, opts ListOptions) ([]models.Bin, int64, error) {
	opts.normalize()
	if opts.Language != "" && !models.ValidLanguage(opts.Language) {
		return nil, 0, &ValidationError{Field: "language", Reason: "unknown value"}
	}
	if opts.Category != "" && !models.ValidCategory(opts.Category) {
		return nil, 0, &ValidationError{Field: "category", Reason: "unknown value"}
	}

	q := s.db.WithContext(ctx).Model(&models.Bin{}).
		Where("access = ?", models.AccessPublic)
	if opts.Language != "" {
		q = q.Where("language = ?", opts.Language)
	}
	if opts.Category != "" {
		q = q.Where("category = ?", opts.Category)
	}
	if opts.Author != "" {
		q = q.Joins("JOIN users ON users.id = bins.author_id").
			Where("users.username = ?", opts.Author)
	}
	if opts.ActiveOnly {
		q = q.Where("expiry_at IS NULL OR expiry_at > ?", time.Now())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bins []models.Bin
	err := q.Preload("Author").
		Order("created_at DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&bins).Error
	return bins, total, err
}

// Popular returns the top 20 public active bins by likes, newest first on ties.
func (s *BinService) Popular(ctx context.Context) ([]models.Bin, error) {
	var bins []models.Bin
	err := s.db.WithContext(ctx).
		Where("access = ?", models.AccessPublic).
		Where("expiry_at IS NULL OR expiry_at > ?", time.Now()).
		Preload("Author").
		Order("likes_count DESC, created_at DESC").
		Limit(20).
		Find(&bins).Error
	return bins, err
}

// MyBins returns the actor's own bins, newest first.
func (s *BinService) MyBins(ctx context.Context, userID uint, activeOnly bool, page, pageSize int) ([]models.Bin, int64, error) {
	opts := ListOptions{Page: page, PageSize: pageSize}
	opts.normalize()

	q := s.db.WithContext(ctx).Model(&models.Bin{}).Where("author_id = ?", userID)
	if activeOnly {
		q = q.Where("expiry_at IS NULL OR expiry_at > ?", time.Now())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var bins []models.Bin
	err := q.Preload("Author").
		Order("created_at DESC").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&bins).Error
	return bins, total, err
}

// BulkDeleteResult reports the outcome of a bulk delete, per requested id.
type BulkDeleteResult struct {
	Deleted        int                `json:"deleted"`
	Skipped        []BulkDeleteDetail `json:"skipped"`
	Errors         []BulkDeleteDetail `json:"errors"`
	TotalRequested int                `json:"total_requested"`
}

// BulkDeleteDetail explains why a single id was not deleted.
type BulkDeleteDetail struct {
	BinID  uint   `json:"bin_id"`
	Reason string `json:"reason"`
}

// BulkDelete deletes many bins by id, skipping the ones the actor does not
// own. Each bin is processed independently; one failure never aborts the rest.
func (s *BinService) BulkDelete(ctx context.Context, actorID uint, isAdmin bool, ids []uint) BulkDeleteResult {
	res := BulkDeleteResult{TotalRequested: len(ids), Skipped: []BulkDeleteDetail{}, Errors: []BulkDeleteDetail{}}
	for _, id := range ids {
		var bin models.Bin
		if err := s.db.WithContext(ctx).First(&bin, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				res.Errors = append(res.Errors, BulkDeleteDetail{BinID: id, Reason: "bin not found"})
			} else {
				res.Errors = append(res.Errors, BulkDeleteDetail{BinID: id, Reason: err.Error()})
			}
			continue
		}
		if !isAdmin && (bin.AuthorID == nil || *bin.AuthorID != actorID) {
			res.Skipped = append(res.Skipped, BulkDeleteDetail{BinID: id, Reason: "permission denied"})
			continue
		}
		if err := s.remove(ctx, &bin); err != nil {
			res.Errors = append(res.Errors, BulkDeleteDetail{BinID: id, Reason: err.Error()})
			continue
		}
		res.Deleted++
	}
	return res
}

func metaFromBin(b *models.Bin) *cache.Meta {
	hash := ""
	if b.Hash != nil {
		hash = *b.Hash
	}
	return &cache.Meta{
		Hash:            hash,
		Title:           b.Title,
		Author:          b.AuthorName(),
		Language:        b.Language,
		LanguageDisplay: models.LanguageLabel(b.Language),
		Category:        b.Category,
		CategoryDisplay: models.CategoryLabel(b.Category),
		Access:          b.Access,
		Expiry:          b.Expiry,
		ExpiryAt:        b.ExpiryAt,
		Tags:            b.Tags,
		SizeBin:         b.SizeBin,
		LikesCount:      b.LikesCount,
		DislikesCount:   b.DislikesCount,
		ViewsCount:      b.ViewsCount,
		FileURL:         b.FileURL,
		CreatedAt:       b.CreatedAt,
	}
}

func viewFromMeta(m *cache.Meta, content string) models.BinView {
	return models.BinView{
		Hash:            m.Hash,
		Title:           m.Title,
		Author:          m.Author,
		Language:        m.Language,
		LanguageDisplay: m.LanguageDisplay,
		Category:        m.Category,
		CategoryDisplay: m.CategoryDisplay,
		Access:          m.Access,
		Expiry:          m.Expiry,
		ExpiryAt:        m.ExpiryAt,
		Tags:            m.Tags,
		SizeBin:         m.SizeBin,
		Likes:           m.LikesCount,
		Dislikes:        m.DislikesCount,
		Views:           m.ViewsCount,
		FileURL:         m.FileURL,
		CreatedAt:       m.CreatedAt,
		IsActive:        true,
		Content:         content,
	}
}
