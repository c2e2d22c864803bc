package models

import (
	"time"
)

// Category is a topic label assigned to posts via the post_categories join
// table. Every post carries at least one category.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"unique;not null" json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
