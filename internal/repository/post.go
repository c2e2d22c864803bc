// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// PostQuery narrows and orders a post listing. Zero values mean "no filter".
type PostQuery struct {
	Limit      int
	Offset     int
	Sort       string
	CategoryID uint
	AuthorID   uint
	Status     string
	// ViewerID and ViewerIsAdmin control which inactive posts appear.
	// Admins see everything; other viewers see active posts plus their own.
	ViewerID      uint
	ViewerIsAdmin bool
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	List(ctx context.Context, q PostQuery) ([]*models.Post, error)
	ListFavoritedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	ReplaceCategories(ctx context.Context, post *models.Post, categories []models.Category) error
	Delete(ctx context.Context, id uint) error
	SetEngagementScore(ctx context.Context, id uint, score int) error
	SetSolution(ctx context.Context, id uint, commentID *uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByID always reads from the database. Post rows carry ledger-derived
// values (engagement score, comment count), and a vote must be reflected in
// the very next read, so they are never served from the cache.
func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	var post models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), currentUserID).
		Preload("Author").
		Preload("Categories").
		First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	var posts []*models.Post
	base := r.applyPostDetails(readDB(r.db).WithContext(ctx), q.ViewerID).
		Preload("Author").
		Preload("Categories")

	if q.CategoryID != 0 {
		base = base.Joins(
			"JOIN post_categories pc ON pc.post_id = posts.id AND pc.category_id = ?",
			q.CategoryID,
		)
	}
	if q.AuthorID != 0 {
		base = base.Where("posts.author_id = ?", q.AuthorID)
	}
	if q.Status != "" {
		base = base.Where("posts.status = ?", q.Status)
	}
	if !q.ViewerIsAdmin {
		if q.ViewerID != 0 {
			base = base.Where("posts.status = ? OR posts.author_id = ?", models.StatusActive, q.ViewerID)
		} else {
			base = base.Where("posts.status = ?", models.StatusActive)
		}
	}

	err := r.applySort(base, q.Sort).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) ListFavoritedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(r.db.WithContext(ctx), userID).
		Preload("Author").
		Preload("Categories").
		Joins("JOIN favorites f ON f.post_id = posts.id AND f.user_id = ?", userID).
		Order("f.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// applySort appends the ORDER BY clause for the requested sort type.
// comments_count is a SELECT alias from applyPostDetails; PostgreSQL allows
// referencing it in ORDER BY within the same query level.
func (r *postRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "top":
		return db.Order("posts.engagement_score DESC, posts.created_at DESC")
	case "discussed":
		return db.Order("comments_count DESC, posts.created_at DESC")
	case "old":
		return db.Order("posts.created_at ASC")
	default: // "new" and anything unrecognized
		return db.Order("posts.created_at DESC")
	}
}

// applyPostDetails adds subqueries to fetch the comment count and the
// viewer's favorite/subscription flags in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted = false) as comments_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM favorites WHERE favorites.post_id = posts.id AND favorites.user_id = ?) as favorited"+
			", EXISTS(SELECT 1 FROM subscriptions WHERE subscriptions.post_id = posts.id AND subscriptions.user_id = ?) as subscribed",
			currentUserID, currentUserID)
	}

	return db.Select(selectQuery + ", false as favorited, false as subscribed")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *postRepository) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *postRepository) ReplaceCategories(ctx context.Context, post *models.Post, categories []models.Category) error {
	return r.db.WithContext(ctx).
		Model(post).
		Association("Categories").
		Replace(categories)
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

func (r *postRepository) SetEngagementScore(ctx context.Context, id uint, score int) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("engagement_score", score).Error
}

func (r *postRepository) SetSolution(ctx context.Context, id uint, commentID *uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("solution_comment_id", commentID).Error
}
