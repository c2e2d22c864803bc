package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/policy"
	"agora/internal/repository"
)

// FavoriteService manages favorite and subscription memberships. Both are
// plain (user, post) pairs: adds are idempotent, and deactivating a post
// wipes its rows (handled by PostService).
type FavoriteService struct {
	favoriteRepo     repository.FavoriteRepository
	subscriptionRepo repository.SubscriptionRepository
	postRepo         repository.PostRepository
}

type MembershipInput struct {
	Actor  models.Actor
	PostID uint
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	subscriptionRepo repository.SubscriptionRepository,
	postRepo repository.PostRepository,
) *FavoriteService {
	return &FavoriteService{
		favoriteRepo:     favoriteRepo,
		subscriptionRepo: subscriptionRepo,
		postRepo:         postRepo,
	}
}

// loadActivePost fetches the post and checks it can take new memberships.
func (s *FavoriteService) loadActivePost(ctx context.Context, actor models.Actor, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "Post", postID)
	}
	if !policy.CanViewPost(actor, post) {
		return nil, models.NewForbiddenError("You do not have access to this post")
	}
	if !post.Active() {
		return nil, models.NewInvalidStateError("Post is not active")
	}
	return post, nil
}

func (s *FavoriteService) AddFavorite(ctx context.Context, in MembershipInput) error {
	if in.Actor.Anonymous() {
		return models.NewForbiddenError("Authentication required")
	}
	if _, err := s.loadActivePost(ctx, in.Actor, in.PostID); err != nil {
		return err
	}
	return s.favoriteRepo.Add(ctx, in.Actor.ID, in.PostID)
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, in MembershipInput) error {
	if in.Actor.Anonymous() {
		return models.NewForbiddenError("Authentication required")
	}
	return s.favoriteRepo.Remove(ctx, in.Actor.ID, in.PostID)
}

// ListFavorites returns the actor's favorited posts, newest favorite first.
func (s *FavoriteService) ListFavorites(ctx context.Context, actor models.Actor, limit, offset int) ([]*models.Post, error) {
	if actor.Anonymous() {
		return nil, models.NewForbiddenError("Authentication required")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.postRepo.ListFavoritedBy(ctx, actor.ID, limit, offset)
}

func (s *FavoriteService) Subscribe(ctx context.Context, in MembershipInput) error {
	if in.Actor.Anonymous() {
		return models.NewForbiddenError("Authentication required")
	}
	if _, err := s.loadActivePost(ctx, in.Actor, in.PostID); err != nil {
		return err
	}
	return s.subscriptionRepo.Add(ctx, in.Actor.ID, in.PostID)
}

func (s *FavoriteService) Unsubscribe(ctx context.Context, in MembershipInput) error {
	if in.Actor.Anonymous() {
		return models.NewForbiddenError("Authentication required")
	}
	return s.subscriptionRepo.Remove(ctx, in.Actor.ID, in.PostID)
}
