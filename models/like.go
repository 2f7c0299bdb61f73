package models

import "time"

// Like stores a single reaction per (bin, user). Toggling between like and
// dislike flips IsLike on the same row instead of inserting a second one.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BinID     uint      `gorm:"not null;uniqueIndex:idx_like_bin_user" json:"bin_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_bin_user" json:"user_id"`
	IsLike    bool      `gorm:"not null" json:"is_like"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
