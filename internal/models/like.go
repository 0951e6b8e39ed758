package models

import "time"

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique; the unique index is
// what makes the toggle race safe (see PostRepository.ToggleLike).
// Likes are hard-deleted, never soft-deleted, so the index always reflects
// the live state.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_user_post" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Post Post `gorm:"foreignKey:PostID" json:"post,omitempty"`
}
