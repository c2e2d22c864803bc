package models

import (
	"time"
)

// Content status values shared by posts and comments.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Post represents a question/thread in the forum.
//
// EngagementScore is derived state: count(up) - count(down) over the votes
// table for this post, recomputed from scratch after every ledger mutation.
// SolutionCommentID, when set, must reference an active, non-deleted comment
// belonging to this post.
type Post struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	AuthorID          uint       `gorm:"not null;index" json:"author_id"`
	Author            User       `gorm:"foreignKey:AuthorID" json:"author"`
	Title             string     `gorm:"not null" json:"title"`
	Content           string     `gorm:"type:text;not null" json:"content"`
	Status            string     `gorm:"not null;default:active;index" json:"status"`
	EngagementScore   int        `gorm:"not null;default:0" json:"engagement_score"`
	SolutionCommentID *uint      `json:"solution_comment_id,omitempty"`
	Categories        []Category `gorm:"many2many:post_categories" json:"categories"`
	// Favorited/Subscribed are not persisted; computed at query time for the
	// requesting user.
	Favorited  bool      `gorm:"->" json:"favorited"`
	Subscribed bool      `gorm:"->" json:"subscribed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Active reports whether the post is in the active lifecycle state.
func (p *Post) Active() bool {
	return p.Status == StatusActive
}
