// Package policy implements the content visibility and mutation rules.
// Every function is pure: it maps (actor, content state) to a decision and
// performs no I/O, so the same rules can gate direct fetches, listings and
// writes without re-querying.
package policy

import (
	"agora/internal/models"
)

// CanViewPost reports whether the actor may see the post at all.
// Active posts are public. Inactive posts are visible only to admins and to
// their own author; everyone else is denied so the post's existence is not
// leaked.
func CanViewPost(actor models.Actor, post *models.Post) bool {
	if post.Active() {
		return true
	}
	if actor.IsAdmin() {
		return true
	}
	return !actor.Anonymous() && actor.ID == post.AuthorID
}

// CanViewComment reports whether the actor may fetch the comment directly by
// id. The comment inherits visibility from its post first: if the post is
// hidden from the actor the whole comment tree is hidden, regardless of the
// comment's own status. A tombstoned comment is always viewable wherever its
// post is, since only the placeholder content remains.
func CanViewComment(actor models.Actor, post *models.Post, comment *models.Comment) bool {
	if !CanViewPost(actor, post) {
		return false
	}
	if comment.Deleted {
		return true
	}
	if comment.Status == models.StatusActive {
		return true
	}
	if actor.IsAdmin() {
		return true
	}
	return !actor.Anonymous() && actor.ID == comment.AuthorID
}

// CommentVisibleInListing reports whether the comment appears when listing
// the post's comments. Same rule as CanViewComment, but callers use it to
// silently omit rows rather than return a denial: hiding a sibling is an
// omission, fetching it directly is a Forbidden.
func CommentVisibleInListing(actor models.Actor, comment *models.Comment) bool {
	if comment.Deleted || comment.Status == models.StatusActive {
		return true
	}
	if actor.IsAdmin() {
		return true
	}
	return !actor.Anonymous() && actor.ID == comment.AuthorID
}

// PostFields is the set of post fields a given actor may mutate.
type PostFields struct {
	Title      bool
	Content    bool
	Categories bool
	Status     bool
}

// Empty reports whether the actor may mutate nothing at all.
func (f PostFields) Empty() bool {
	return !f.Title && !f.Content && !f.Categories && !f.Status
}

// AllowedPostFields returns which post fields the actor may write.
// Authors own the content fields (title, content, categories); the status
// field is admin-only. An admin who also authored the post gets both.
func AllowedPostFields(actor models.Actor, post *models.Post) PostFields {
	var fields PostFields
	if !actor.Anonymous() && actor.ID == post.AuthorID {
		fields.Title = true
		fields.Content = true
		fields.Categories = true
	}
	if actor.IsAdmin() {
		fields.Status = true
	}
	return fields
}

// CanEditCommentContent reports whether the actor may rewrite the comment's
// content. Author-only, and never after soft delete.
func CanEditCommentContent(actor models.Actor, comment *models.Comment) bool {
	if comment.Deleted {
		return false
	}
	return !actor.Anonymous() && actor.ID == comment.AuthorID
}

// CanSetCommentStatus reports whether the actor may flip a comment between
// active and inactive. Admin-only.
func CanSetCommentStatus(actor models.Actor) bool {
	return actor.IsAdmin()
}

// CanDeletePost reports whether the actor may hard-delete the post.
func CanDeletePost(actor models.Actor, post *models.Post) bool {
	if actor.IsAdmin() {
		return true
	}
	return !actor.Anonymous() && actor.ID == post.AuthorID
}

// CanDeleteComment reports whether the actor may soft-delete the comment.
func CanDeleteComment(actor models.Actor, comment *models.Comment) bool {
	if actor.IsAdmin() {
		return true
	}
	return !actor.Anonymous() && actor.ID == comment.AuthorID
}

// CanManageSolution reports whether the actor may mark or unmark the post's
// accepted solution. Post author or admin; authoring the comment alone grants
// nothing.
func CanManageSolution(actor models.Actor, post *models.Post) bool {
	if actor.IsAdmin() {
		return true
	}
	return !actor.Anonymous() && actor.ID == post.AuthorID
}

// CanVote reports whether the actor may vote on content authored by
// targetAuthorID. Self-voting is forbidden for everyone, admins included.
func CanVote(actor models.Actor, targetAuthorID uint) bool {
	if actor.Anonymous() {
		return false
	}
	return actor.ID != targetAuthorID
}

// CanCreateContent reports whether the actor may author new posts or
// comments. Requires an authenticated, email-verified account.
func CanCreateContent(actor models.Actor) bool {
	return !actor.Anonymous() && actor.EmailVerified
}
