package service

import (
	"context"

	"agora/internal/featureflags"
	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
)

// SubscriberNotifier fans a new-comment event out to the post's subscribers.
// Delivery is best-effort; a failed publish never fails the write.
type SubscriberNotifier interface {
	NotifyCommentCreated(ctx context.Context, post *models.Post, comment *models.Comment, subscriberIDs []uint)
}

// FlagGate answers per-user feature-flag checks. Satisfied by
// *featureflags.Manager; a nil gate means every default applies.
type FlagGate interface {
	EnabledOrDefault(name string, userID uint, def bool) bool
}

type CommentService struct {
	commentRepo      repository.CommentRepository
	postRepo         repository.PostRepository
	subscriptionRepo repository.SubscriptionRepository
	notifier         SubscriberNotifier
	flags            FlagGate
}

type CreateCommentInput struct {
	Actor    models.Actor
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	Actor     models.Actor
	CommentID uint
	Content   string
}

type SetCommentStatusInput struct {
	Actor     models.Actor
	CommentID uint
	Status    string
}

type DeleteCommentInput struct {
	Actor     models.Actor
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	subscriptionRepo repository.SubscriptionRepository,
	notifier SubscriberNotifier,
	flags FlagGate,
) *CommentService {
	return &CommentService{
		commentRepo:      commentRepo,
		postRepo:         postRepo,
		subscriptionRepo: subscriptionRepo,
		notifier:         notifier,
		flags:            flags,
	}
}

const maxCommentLen = 10000

// CreateComment adds a comment, or a reply when ParentID is set. Replies must
// stay within the same post and cannot attach to a deleted or deactivated
// parent.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if !policy.CanCreateContent(in.Actor) {
		return nil, models.NewForbiddenError("A verified account is required to comment")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", in.PostID)
	}
	if !policy.CanViewPost(in.Actor, post) {
		return nil, models.NewForbiddenError("You do not have access to this post")
	}
	if !post.Active() {
		return nil, models.NewInvalidStateError("Post is not active")
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, notFoundOr(err, "Comment", *in.ParentID)
		}
		if parent.PostID != post.ID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
		if !parent.Active() {
			return nil, models.NewInvalidStateError("Parent comment is not active")
		}
	}

	comment := &models.Comment{
		Content:  in.Content,
		AuthorID: in.Actor.ID,
		PostID:   post.ID,
		ParentID: in.ParentID,
		Status:   models.StatusActive,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		subscriberIDs, err := s.subscriptionRepo.SubscriberIDs(ctx, post.ID)
		if err == nil {
			if audience := s.fanoutAudience(subscriberIDs); len(audience) > 0 {
				s.notifier.NotifyCommentCreated(ctx, post, comment, audience)
			}
		}
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// fanoutAudience filters subscribers through the comment_fanout flag. The
// fan-out ships enabled, so an unset flag keeps everyone in; configuring the
// flag can switch it off outright or roll it out by percentage.
func (s *CommentService) fanoutAudience(subscriberIDs []uint) []uint {
	if s.flags == nil {
		return subscriberIDs
	}
	audience := make([]uint, 0, len(subscriberIDs))
	for _, id := range subscriberIDs {
		if s.flags.EnabledOrDefault(featureflags.FlagCommentFanout, id, true) {
			audience = append(audience, id)
		}
	}
	return audience
}

// GetComment fetches a single comment, enforcing the post-first visibility
// chain. A direct fetch the actor may not see is a denial, not a 404.
func (s *CommentService) GetComment(ctx context.Context, actor models.Actor, commentID uint) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, notFoundOr(err, "Comment", commentID)
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", comment.PostID)
	}
	if !policy.CanViewComment(actor, post, comment) {
		return nil, models.NewForbiddenError("You do not have access to this comment")
	}
	return comment, nil
}

// ListComments returns the post's comment tree as the actor is allowed to see
// it. Hidden comments are silently omitted; tombstones stay in place so reply
// chains keep their shape.
func (s *CommentService) ListComments(ctx context.Context, actor models.Actor, postID uint) ([]*models.Comment, error) {
	post, err := s.postRepo.GetByID(ctx, postID, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", postID)
	}
	if !policy.CanViewPost(actor, post) {
		return nil, models.NewForbiddenError("You do not have access to this post")
	}

	comments, err := s.commentRepo.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	visible := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		if policy.CommentVisibleInListing(actor, c) {
			visible = append(visible, c)
		}
	}
	return visible, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundOr(err, "Comment", in.CommentID)
	}
	if !policy.CanEditCommentContent(in.Actor, comment) {
		if comment.Deleted {
			return nil, models.NewInvalidStateError("Comment has been deleted")
		}
		return nil, models.NewForbiddenError("You can only update your own comments")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// SetCommentStatus flips a comment between active and inactive. Admin only;
// tombstoned comments are terminal and cannot change status.
func (s *CommentService) SetCommentStatus(ctx context.Context, in SetCommentStatusInput) (*models.Comment, error) {
	if !policy.CanSetCommentStatus(in.Actor) {
		return nil, models.NewForbiddenError("Only admins can change comment status")
	}
	if in.Status != models.StatusActive && in.Status != models.StatusInactive {
		return nil, models.NewValidationError("Status must be 'active' or 'inactive'")
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundOr(err, "Comment", in.CommentID)
	}
	if comment.Deleted {
		return nil, models.NewInvalidStateError("Comment has been deleted")
	}
	if comment.Status == in.Status {
		return comment, nil
	}

	if err := s.commentRepo.UpdateFields(ctx, comment.ID, map[string]any{"status": in.Status}); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment soft-deletes: the row stays, content becomes the tombstone
// placeholder, and the transition is terminal.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundOr(err, "Comment", in.CommentID)
	}
	if !policy.CanDeleteComment(in.Actor, comment) {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}
	// Deleting an already-tombstoned comment is idempotent.
	if comment.Deleted {
		return comment, nil
	}

	if err := s.commentRepo.SoftDelete(ctx, comment.ID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}
