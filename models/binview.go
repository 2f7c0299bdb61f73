package models

import "time"

// BinView is the display-ready read model for a bin. It is populated either
// from the database entity plus blob content or from cached metadata; both
// paths produce the same struct, so callers never branch on the source.
type BinView struct {
	ID              uint       `json:"id,omitempty"`
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
	Likes           int64      `json:"likes_count"`
	Dislikes        int64      `json:"dislikes_count"`
	Views           int64      `json:"views_count"`
	FileURL         string     `json:"file_url"`
	CreatedAt       time.Time  `json:"created_at"`
	IsActive        bool       `json:"is_active"`
	Content         string     `json:"content"`
}

// NewBinView builds the read model from a database entity and its content.
func NewBinView(b *Bin, content string) BinView {
	hash := ""
	if b.Hash != nil {
		hash = *b.Hash
	}
	return BinView{
		ID:              b.ID,
		Hash:            hash,
		Title:           b.Title,
		Author:          b.AuthorName(),
		Language:        b.Language,
		LanguageDisplay: LanguageLabel(b.Language),
		Category:        b.Category,
		CategoryDisplay: CategoryLabel(b.Category),
		Access:          b.Access,
		Expiry:          b.Expiry,
		ExpiryAt:        b.ExpiryAt,
		Tags:            b.Tags,
		SizeBin:         b.SizeBin,
		Likes:           b.LikesCount,
		Dislikes:        b.DislikesCount,
		Views:           b.ViewsCount,
		FileURL:         b.FileURL,
		CreatedAt:       b.CreatedAt,
		IsActive:        b.IsActive(),
		Content:         content,
	}
}
