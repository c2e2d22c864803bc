package models

import (
	"time"
)

// Favorite is a membership relation between a user and a post. At most one
// row per pair. Rows are cascade-deleted when the post goes inactive.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription marks a user's interest in new comments under a post. At most
// one row per pair. Rows are cascade-deleted when the post goes inactive and
// are not restored on reactivation.
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_subscriptions_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_subscriptions_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
