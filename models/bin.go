package models

import (
	"time"

	"gorm.io/gorm"
)

// Bin represents a stored text snippet. The content itself lives in the blob
// store under FileKey; the row carries metadata and denormalized counters.
type Bin struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Hash is the short public identifier assigned from the hash pool after
	// creation. It stays NULL until assignment succeeds and is never reused.
	Hash *string `gorm:"size:8;uniqueIndex" json:"hash"`

	// FileKey is the authoritative pointer to the content in the blob store.
	FileKey string `gorm:"size:255;not null" json:"file_key"`
	FileURL string `gorm:"size:512" json:"file_url"`

	// Title is namespaced as "<username>/<title>".
	Title    string `gorm:"size:150;not null;uniqueIndex" json:"title"`
	Category string `gorm:"size:50;default:'NONE'" json:"category"`
	Language string `gorm:"size:50;default:'none'" json:"language"`
	Tags     string `gorm:"size:200" json:"tags"` // comma-separated
	Access   string `gorm:"size:50;default:'public'" json:"access"`

	Expiry   string     `gorm:"size:50;default:'never'" json:"expiry"`
	ExpiryAt *time.Time `gorm:"index" json:"expiry_at"` // nil = never expires

	SizeBin       int64 `gorm:"not null;default:0" json:"size_bin"`
	LikesCount    int64 `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int64 `gorm:"not null;default:0" json:"dislikes_count"`
	ViewsCount    int64 `gorm:"not null;default:0" json:"views_count"`

	AuthorID *uint `gorm:"index" json:"author_id"`
	Author   *User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"author,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the bin has not expired yet.
func (b *Bin) IsActive() bool {
	return b.ExpiryAt == nil || b.ExpiryAt.After(time.Now())
}

// AuthorName returns the author's username or an empty string for orphaned bins.
func (b *Bin) AuthorName() string {
	if b.Author == nil {
		return ""
	}
	return b.Author.Username
}

// BeforeCreate ensures timestamps are set even when not provided.
func (b *Bin) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes the UpdatedAt timestamp.
func (b *Bin) BeforeUpdate(tx *gorm.DB) error {
	b.UpdatedAt = time.Now()
	return nil
}
