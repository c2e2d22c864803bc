package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/policy"
	"agora/internal/repository"
)

type PostService struct {
	postRepo         repository.PostRepository
	categoryRepo     repository.CategoryRepository
	commentRepo      repository.CommentRepository
	favoriteRepo     repository.FavoriteRepository
	subscriptionRepo repository.SubscriptionRepository
}

type CreatePostInput struct {
	Actor       models.Actor
	Title       string
	Content     string
	CategoryIDs []uint
}

type UpdatePostInput struct {
	Actor       models.Actor
	PostID      uint
	Title       *string
	Content     *string
	CategoryIDs []uint
}

type SetPostStatusInput struct {
	Actor  models.Actor
	PostID uint
	Status string
}

type DeletePostInput struct {
	Actor  models.Actor
	PostID uint
}

type ListPostsInput struct {
	Actor      models.Actor
	Limit      int
	Offset     int
	Sort       string
	CategoryID uint
	AuthorID   uint
	Status     string
}

type SolutionInput struct {
	Actor     models.Actor
	PostID    uint
	CommentID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	categoryRepo repository.CategoryRepository,
	commentRepo repository.CommentRepository,
	favoriteRepo repository.FavoriteRepository,
	subscriptionRepo repository.SubscriptionRepository,
) *PostService {
	return &PostService{
		postRepo:         postRepo,
		categoryRepo:     categoryRepo,
		commentRepo:      commentRepo,
		favoriteRepo:     favoriteRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

const (
	maxTitleLen = 300
	maxPostLen  = 40000
)

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if !policy.CanCreateContent(in.Actor) {
		return nil, models.NewForbiddenError("A verified account is required to post")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxPostLen {
		return nil, models.NewValidationError("Content too long (max 40000 characters)")
	}
	if len(in.CategoryIDs) == 0 {
		return nil, models.NewValidationError("At least one category is required")
	}

	categories, err := s.categoryRepo.GetByIDs(ctx, in.CategoryIDs)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(dedupe(in.CategoryIDs)) {
		return nil, models.NewValidationError("One or more categories do not exist")
	}

	post := &models.Post{
		Title:      in.Title,
		Content:    in.Content,
		AuthorID:   in.Actor.ID,
		Status:     models.StatusActive,
		Categories: categories,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	// Authors follow their own threads by default.
	if err := s.subscriptionRepo.Add(ctx, in.Actor.ID, post.ID); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.Actor.ID)
}

func (s *PostService) GetPost(ctx context.Context, actor models.Actor, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", postID)
	}
	if !policy.CanViewPost(actor, post) {
		return nil, models.NewForbiddenError("You do not have access to this post")
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	// Filtering by explicit status is reserved for admins; everyone else gets
	// the visibility-filtered listing.
	if in.Status != "" && !in.Actor.IsAdmin() {
		return nil, models.NewForbiddenError("Status filter requires admin role")
	}

	return s.postRepo.List(ctx, repository.PostQuery{
		Limit:         limit,
		Offset:        in.Offset,
		Sort:          in.Sort,
		CategoryID:    in.CategoryID,
		AuthorID:      in.AuthorID,
		Status:        in.Status,
		ViewerID:      in.Actor.ID,
		ViewerIsAdmin: in.Actor.IsAdmin(),
	})
}

// UpdatePost applies the content fields the actor is allowed to write. Status
// changes go through SetPostStatus, not here.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", in.PostID)
	}
	if !policy.CanViewPost(in.Actor, post) {
		return nil, models.NewForbiddenError("You do not have access to this post")
	}

	allowed := policy.AllowedPostFields(in.Actor, post)
	if !allowed.Title && !allowed.Content && !allowed.Categories {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	fields := map[string]any{}
	if in.Title != nil {
		if *in.Title == "" || len(*in.Title) > maxTitleLen {
			return nil, models.NewValidationError("Title must be 1-300 characters")
		}
		fields["title"] = *in.Title
	}
	if in.Content != nil {
		if *in.Content == "" || len(*in.Content) > maxPostLen {
			return nil, models.NewValidationError("Content must be 1-40000 characters")
		}
		fields["content"] = *in.Content
	}
	if len(fields) > 0 {
		if err := s.postRepo.UpdateFields(ctx, post.ID, fields); err != nil {
			return nil, err
		}
	}

	if in.CategoryIDs != nil {
		if len(in.CategoryIDs) == 0 {
			return nil, models.NewValidationError("At least one category is required")
		}
		categories, err := s.categoryRepo.GetByIDs(ctx, in.CategoryIDs)
		if err != nil {
			return nil, err
		}
		if len(categories) != len(dedupe(in.CategoryIDs)) {
			return nil, models.NewValidationError("One or more categories do not exist")
		}
		if err := s.postRepo.ReplaceCategories(ctx, post, categories); err != nil {
			return nil, err
		}
	}

	return s.postRepo.GetByID(ctx, post.ID, in.Actor.ID)
}

// SetPostStatus flips a post between active and inactive. Admin only.
// Deactivation cascades: every favorite and subscription row for the post is
// removed, and a later reactivation does not bring them back.
func (s *PostService) SetPostStatus(ctx context.Context, in SetPostStatusInput) (*models.Post, error) {
	if !in.Actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only admins can change post status")
	}
	if in.Status != models.StatusActive && in.Status != models.StatusInactive {
		return nil, models.NewValidationError("Status must be 'active' or 'inactive'")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", in.PostID)
	}
	if post.Status == in.Status {
		return post, nil
	}

	if err := s.postRepo.UpdateFields(ctx, post.ID, map[string]any{"status": in.Status}); err != nil {
		return nil, err
	}

	if in.Status == models.StatusInactive {
		favs, err := s.favoriteRepo.DeleteByPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		subs, err := s.subscriptionRepo.DeleteByPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		observability.CascadeDeletions.WithLabelValues("favorites").Add(float64(favs))
		observability.CascadeDeletions.WithLabelValues("subscriptions").Add(float64(subs))
	}

	return s.postRepo.GetByID(ctx, post.ID, in.Actor.ID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return notFoundOr(err, "Post", in.PostID)
	}
	if !policy.CanDeletePost(in.Actor, post) {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, post.ID)
}

// MarkSolution points the post at the comment that answers it. Only the post
// author or an admin may mark, the comment must belong to the post, and a
// deleted or deactivated comment cannot be the answer.
func (s *PostService) MarkSolution(ctx context.Context, in SolutionInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", in.PostID)
	}
	if !policy.CanManageSolution(in.Actor, post) {
		return nil, models.NewForbiddenError("Only the post author or an admin can mark a solution")
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, notFoundOr(err, "Comment", in.CommentID)
	}
	if comment.PostID != post.ID {
		return nil, models.NewValidationError("Comment does not belong to this post")
	}
	if !comment.Active() {
		return nil, models.NewInvalidStateError("Comment is not active")
	}

	if err := s.postRepo.SetSolution(ctx, post.ID, &comment.ID); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.Actor.ID)
}

// UnmarkSolution clears the solution pointer. Unmarking a comment that is not
// the current solution is a state mismatch, reported as a conflict.
func (s *PostService) UnmarkSolution(ctx context.Context, in SolutionInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.Actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", in.PostID)
	}
	if !policy.CanManageSolution(in.Actor, post) {
		return nil, models.NewForbiddenError("Only the post author or an admin can unmark a solution")
	}
	if post.SolutionCommentID == nil || *post.SolutionCommentID != in.CommentID {
		return nil, models.NewConflictError("Comment is not the current solution")
	}

	if err := s.postRepo.SetSolution(ctx, post.ID, nil); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.Actor.ID)
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
