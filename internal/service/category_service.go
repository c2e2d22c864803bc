package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/repository"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

type CreateCategoryInput struct {
	Actor       models.Actor
	Title       string
	Description string
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CategoryService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	if !in.Actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only admins can create categories")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}

	category := &models.Category{Title: in.Title, Description: in.Description}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}
