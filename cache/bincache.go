// Package cache holds the read-through cache for popular bins. Metadata and
// content are cached under separate keys so the raw endpoint can serve content
// without deserializing metadata, and either can expire independently.
//
// Every operation degrades silently: a cache failure is logged and the caller
// falls through to the database or blob store, never to an error response.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

const (
	metaKeyPrefix    = "bin_meta:"
	contentKeyPrefix = "bin_content:"
)

// Meta is the cached projection of a bin. It carries everything the read path
// needs to answer a detail request without touching the database.
type Meta struct {
	Hash            string     `json:"hash"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Language        string     `json:"language"`
	LanguageDisplay string     `json:"language_display"`
	Category        string     `json:"category"`
	CategoryDisplay string     `json:"category_display"`
	Access          string     `json:"access"`
	Expiry          string     `json:"expiry"`
	ExpiryAt        *time.Time `json:"expiry_at"`
	Tags            string     `json:"tags"`
	SizeBin         int64      `json:"size_bin"`
	LikesCount      int64      `json:"likes_count"`
	DislikesCount   int64      `json:"dislikes_count"`
	ViewsCount      int64      `json:"views_count"`
	FileURL         string     `json:"file_url"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsActive reports whether the cached bin is still within its lifetime.
func (m *Meta) IsActive() bool {
	return m.ExpiryAt == nil || time.Now().Before(*m.ExpiryAt)
}

// BinCache is the popularity-gated cache layer over a byte Store.
type BinCache struct {
	store      Store
	metaTTL    time.Duration
	contentTTL time.Duration
	log        *zap.SugaredLogger
}

// New creates a bin cache with the given TTLs.
func New(store Store, metaTTL, contentTTL time.Duration, log *zap.SugaredLogger) *BinCache {
	if metaTTL <= 0 {
		metaTTL = time.Hour
	}
	if contentTTL <= 0 {
		contentTTL = time.Hour
	}
	return &BinCache{store: store, metaTTL: metaTTL, contentTTL: contentTTL, log: log}
}

// GetMeta returns the cached metadata for hash, or nil on a miss.
func (c *BinCache) GetMeta(ctx context.Context, hash string) *Meta {
	b, err := c.store.GetBytes(ctx, metaKeyPrefix+hash)
	if err != nil {
		if err != ErrMiss {
			c.log.Warnf("bin cache meta read failed for %s: %v", hash, err)
		}
		return nil
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		c.log.Warnf("bin cache meta corrupt for %s: %v", hash, err)
		c.Invalidate(ctx, hash)
		return nil
	}
	return &m
}

// GetContent returns the cached content for hash and whether it was present.
func (c *BinCache) GetContent(ctx context.Context, hash string) (string, bool) {
	b, err := c.store.GetBytes(ctx, contentKeyPrefix+hash)
	if err != nil {
		if err != ErrMiss {
			c.log.Warnf("bin cache content read failed for %s: %v", hash, err)
		}
		return "", false
	}
	return string(b), true
}

// Populate writes both the metadata and content entries for hash. Failures are
// logged and swallowed; the source of truth already served the request.
func (c *BinCache) Populate(ctx context.Context, meta *Meta, content string) {
	b, err := json.Marshal(meta)
	if err != nil {
		c.log.Warnf("bin cache meta encode failed for %s: %v", meta.Hash, err)
		return
	}
	if err := c.store.SetBytes(ctx, metaKeyPrefix+meta.Hash, b, c.metaTTL); err != nil {
		c.log.Warnf("bin cache meta write failed for %s: %v", meta.Hash, err)
	}
	if err := c.store.SetBytes(ctx, contentKeyPrefix+meta.Hash, []byte(content), c.contentTTL); err != nil {
		c.log.Warnf("bin cache content write failed for %s: %v", meta.Hash, err)
	}
}

// Invalidate drops both entries for hash. Best-effort.
func (c *BinCache) Invalidate(ctx context.Context, hash string) {
	if err := c.store.Delete(ctx, metaKeyPrefix+hash, contentKeyPrefix+hash); err != nil {
		c.log.Warnf("bin cache invalidate failed for %s: %v", hash, err)
	}
}
