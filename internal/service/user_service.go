package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/repository"
)

type UserService struct {
	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
}

type UpdateProfileInput struct {
	Actor    models.Actor
	FullName string
	Avatar   string
}

func NewUserService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
}

func (s *UserService) ListUsers(ctx context.Context, actor models.Actor, limit, offset int) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only admins can list users")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.userRepo.List(ctx, limit, offset)
}

// GetUserByID returns a user's public profile, including the rating derived
// from the vote ledger.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUserPosts returns the user's posts as the viewing actor may see them.
func (s *UserService) ListUserPosts(ctx context.Context, actor models.Actor, userID uint, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.postRepo.List(ctx, repository.PostQuery{
		Limit:         limit,
		Offset:        offset,
		AuthorID:      userID,
		ViewerID:      actor.ID,
		ViewerIsAdmin: actor.IsAdmin(),
	})
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.Actor.Anonymous() {
		return nil, models.NewForbiddenError("Authentication required")
	}
	user, err := s.userRepo.GetByID(ctx, in.Actor.ID)
	if err != nil {
		return nil, err
	}

	const maxFullNameLen = 100

	if in.FullName != "" {
		if len(in.FullName) > maxFullNameLen {
			return nil, models.NewValidationError("Full name too long (max 100 characters)")
		}
		user.FullName = in.FullName
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SetRole promotes or demotes a user. Admin only.
func (s *UserService) SetRole(ctx context.Context, actor models.Actor, targetID uint, role string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only admins can change roles")
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, models.NewValidationError("Role must be 'user' or 'admin'")
	}

	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}
