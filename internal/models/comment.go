package models

import (
	"time"
)

// TombstoneContent replaces a comment's content on soft delete. The original
// content is unrecoverable afterwards.
const TombstoneContent = "[deleted]"

// Comment represents an answer or reply under a post.
//
// Soft delete is a domain state, not a gorm soft delete: the row stays, the
// content is overwritten with TombstoneContent and Deleted is set. Deletion
// is terminal; no further content or status edits are accepted.
// A reply's ParentID must reference a comment on the same post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	ParentID  *uint     `gorm:"index" json:"parent_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Status    string    `gorm:"not null;default:active" json:"status"`
	Deleted   bool      `gorm:"not null;default:false" json:"deleted"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the comment is active and not tombstoned.
func (c *Comment) Active() bool {
	return c.Status == StatusActive && !c.Deleted
}
