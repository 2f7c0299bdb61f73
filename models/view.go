package models

import "time"

// View records a single distinct viewer of a bin. A viewer is identified by
// the session key and, when authenticated, additionally by user id; either
// match counts as "already seen". Ordered newest-first.
type View struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BinID      uint      `gorm:"index;not null" json:"bin_id"`
	UserID     *uint     `gorm:"index" json:"user_id"`
	SessionKey string    `gorm:"size:64;index;not null" json:"session_key"`
	CreatedAt  time.Time `json:"created_at"`
}
