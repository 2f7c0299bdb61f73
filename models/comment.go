package models

import "time"

// Comment is an append-only reply to a bin. The author reference is nulled,
// not deleted, when the user account goes away.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BinID     uint      `gorm:"index;not null" json:"bin_id"`
	AuthorID  *uint     `gorm:"index" json:"author_id"`
	Author    *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
