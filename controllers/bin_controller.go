package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/binify/binify/middleware"
	"github.com/binify/binify/models"
	"github.com/binify/binify/services"
	"github.com/binify/binify/utils"
)

// BinController exposes the bin lifecycle and interaction endpoints.
type BinController struct {
	db           *gorm.DB
	bins         *services.BinService
	interactions *services.InteractionService
	search       *services.SearchService
	log          *zap.SugaredLogger
}

// NewBinController creates the bin controller.
func NewBinController(db *gorm.DB, bins *services.BinService, interactions *services.InteractionService, search *services.SearchService, log *zap.SugaredLogger) *BinController {
	return &BinController{db: db, bins: bins, interactions: interactions, search: search, log: log}
}

// Create stores a new bin for the authenticated user.
func (b *BinController) Create(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	var input services.CreateBinInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	bin, err := b.bins.Create(ctx.Request.Context(), user, input)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "success", gin.H{
		"id":   bin.ID,
		"hash": bin.Hash,
	})
}

// List returns public bins with pagination and filters.
func (b *BinController) List(ctx *gin.Context) {
	opts := services.ListOptions{
		Language:   strings.TrimSpace(ctx.Query("language")),
		Category:   strings.TrimSpace(ctx.Query("category")),
		Author:     strings.TrimSpace(ctx.Query("author")),
		ActiveOnly: ctx.DefaultQuery("active", "true") == "true",
		Page:       queryInt(ctx, "page", 1),
		PageSize:   queryInt(ctx, "page_size", 20),
	}

	bins, total, err := b.bins.List(ctx.Request.Context(), opts)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"items": binListItems(bins),
		"pagination": gin.H{
			"page":      maxInt(opts.Page, 1),
			"page_size": opts.PageSize,
			"total":     total,
		},
	})
}

// Popular returns the top public bins by likes.
func (b *BinController) Popular(ctx *gin.Context) {
	bins, err := b.bins.Popular(ctx.Request.Context())
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": binListItems(bins)})
}

// Search runs the fuzzy search over public active bins.
func (b *BinController) Search(ctx *gin.Context) {
	results, err := b.search.Search(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(results))
	for _, r := range results {
		item := binListItem(r.Bin)
		item["score"] = r.Score
		items = append(items, item)
	}
	utils.Success(ctx, gin.H{"items": items})
}

// Get returns the full bin view and records the visit.
func (b *BinController) Get(ctx *gin.Context) {
	hash := ctx.Param("hash")
	viewerID := b.viewerID(ctx)

	view, err := b.bins.Get(ctx.Request.Context(), hash, viewerID)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	sessionKey := ctx.GetString(middleware.ContextSessionKey)
	if err := b.interactions.RecordViewByHash(ctx.Request.Context(), hash, sessionKey, viewerID); err != nil {
		b.log.Warnf("view recording failed for %s: %v", hash, err)
	}

	utils.Success(ctx, view)
}

// Raw serves the bin content as plain text.
func (b *BinController) Raw(ctx *gin.Context) {
	hash := ctx.Param("hash")
	content, err := b.bins.Content(ctx.Request.Context(), hash, b.viewerID(ctx))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(content))
}

// Update patches a bin. Author only.
func (b *BinController) Update(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	var input services.UpdateBinInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	bin, err := b.bins.Update(ctx.Request.Context(), user, ctx.Param("hash"), input)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"id": bin.ID, "hash": bin.Hash})
}

// Delete removes a bin. Author or admin.
func (b *BinController) Delete(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	err := b.bins.Delete(ctx.Request.Context(), user.ID, isAdminUsername(user.Username), ctx.Param("hash"))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "bin deleted"})
}

// BulkDelete removes many bins by id and reports the per-id outcome.
func (b *BinController) BulkDelete(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	type request struct {
		BinIDs []uint `json:"bin_ids" binding:"required,min=1"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40022, "bin_ids is required and must be a non-empty list")
		return
	}

	result := b.bins.BulkDelete(ctx.Request.Context(), user.ID, isAdminUsername(user.Username), req.BinIDs)
	utils.Success(ctx, result)
}

// Like applies a like or dislike and returns the fresh counters.
func (b *BinController) Like(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	type request struct {
		Action string `json:"action" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid request payload")
		return
	}

	bin, err := b.bins.ByHash(ctx.Request.Context(), ctx.Param("hash"))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	counts, err := b.interactions.React(ctx.Request.Context(), bin, user.ID, req.Action)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, counts)
}

// CreateComment appends a comment to a bin.
func (b *BinController) CreateComment(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	type request struct {
		Content string `json:"content" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	bin, err := b.bins.ByHash(ctx.Request.Context(), ctx.Param("hash"))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	comment, err := b.interactions.AddComment(ctx.Request.Context(), bin, user, req.Content)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	utils.Respond(ctx, http.StatusCreated, 0, "success", commentItem(*comment))
}

// ListComments returns a bin's comments, newest first.
func (b *BinController) ListComments(ctx *gin.Context) {
	bin, err := b.bins.ByHash(ctx.Request.Context(), ctx.Param("hash"))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	comments, err := b.interactions.ListComments(ctx.Request.Context(), bin.ID)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	items := make([]gin.H, 0, len(comments))
	for _, c := range comments {
		items = append(items, commentItem(c))
	}
	utils.Success(ctx, gin.H{"items": items})
}

// DeleteComment removes a comment. Owner or admin.
func (b *BinController) DeleteComment(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid comment id")
		return
	}

	err = b.interactions.DeleteComment(ctx.Request.Context(), user.ID, isAdminUsername(user.Username), uint(id))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// MyBins returns the authenticated user's own bins.
func (b *BinController) MyBins(ctx *gin.Context) {
	user, ok := b.currentUser(ctx)
	if !ok {
		return
	}

	activeOnly := ctx.DefaultQuery("active", "false") == "true"
	page := queryInt(ctx, "page", 1)
	pageSize := queryInt(ctx, "page_size", 20)

	bins, total, err := b.bins.MyBins(ctx.Request.Context(), user.ID, activeOnly, page, pageSize)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"items": binListItems(bins),
		"pagination": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// Stats returns the per-bin counters.
func (b *BinController) Stats(ctx *gin.Context) {
	bin, err := b.bins.ByHash(ctx.Request.Context(), ctx.Param("hash"))
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}

	stats, err := b.interactions.Stats(ctx.Request.Context(), bin)
	if err != nil {
		b.respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, stats)
}

// currentUser loads the authenticated user row; responds with an error and
// returns false when the identity cannot be resolved.
func (b *BinController) currentUser(ctx *gin.Context) (*models.User, bool) {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return nil, false
	}

	var user models.User
	if err := b.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40109, "account no longer exists")
		return nil, false
	}
	return &user, true
}

// viewerID returns the authenticated user id, if any.
func (b *BinController) viewerID(ctx *gin.Context) *uint {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return nil
	}
	if id, ok := userID.(uint); ok {
		return &id
	}
	return nil
}

func (b *BinController) respondServiceError(ctx *gin.Context, err error) {
	switch {
	case services.IsValidation(err):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40402, "bin not found")
	case errors.Is(err, services.ErrPermissionDenied):
		utils.Error(ctx, http.StatusForbidden, 40301, "permission denied")
	case errors.Is(err, services.ErrDuplicateTitle):
		utils.Error(ctx, http.StatusConflict, 40902, "title already exists")
	case errors.Is(err, services.ErrPoolExhausted):
		utils.Error(ctx, http.StatusServiceUnavailable, 50301, "no hash available, try again shortly")
	default:
		b.log.Errorf("bin request failed: %v", err)
		utils.Error(ctx, http.StatusInternalServerError, 50010, "internal error")
	}
}

func binListItems(bins []models.Bin) []gin.H {
	items := make([]gin.H, 0, len(bins))
	for i := range bins {
		items = append(items, binListItem(bins[i]))
	}
	return items
}

func binListItem(b models.Bin) gin.H {
	hash := ""
	if b.Hash != nil {
		hash = *b.Hash
	}
	return gin.H{
		"hash":             hash,
		"title":            b.Title,
		"author":           b.AuthorName(),
		"language":         b.Language,
		"language_display": models.LanguageLabel(b.Language),
		"category":         b.Category,
		"category_display": models.CategoryLabel(b.Category),
		"access":           b.Access,
		"expiry":           b.Expiry,
		"expiry_at":        b.ExpiryAt,
		"tags":             b.Tags,
		"size_bin":         b.SizeBin,
		"likes_count":      b.LikesCount,
		"dislikes_count":   b.DislikesCount,
		"views_count":      b.ViewsCount,
		"created_at":       b.CreatedAt,
		"is_active":        b.IsActive(),
	}
}

func commentItem(c models.Comment) gin.H {
	author := ""
	if c.Author != nil {
		author = c.Author.Username
	}
	return gin.H{
		"id":         c.ID,
		"author":     author,
		"content":    c.Content,
		"created_at": c.CreatedAt,
	}
}

func queryInt(ctx *gin.Context, key string, def int) int {
	if v := strings.TrimSpace(ctx.Query(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
