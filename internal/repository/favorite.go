package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// FavoriteRepository defines the interface for favorite membership rows.
type FavoriteRepository interface {
	Add(ctx context.Context, userID, postID uint) error
	Remove(ctx context.Context, userID, postID uint) error
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
}

// SubscriptionRepository defines the interface for post subscriptions.
type SubscriptionRepository interface {
	Add(ctx context.Context, userID, postID uint) error
	Remove(ctx context.Context, userID, postID uint) error
	Exists(ctx context.Context, userID, postID uint) (bool, error)
	SubscriberIDs(ctx context.Context, postID uint) ([]uint, error)
	DeleteByPost(ctx context.Context, postID uint) (int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository.
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Add(ctx context.Context, userID, postID uint) error {
	// ON CONFLICT DO NOTHING keeps a double-add idempotent under races.
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO favorites (user_id, post_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID,
	).Error
}

func (r *favoriteRepository) Remove(ctx context.Context, userID, postID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Favorite{}).Error
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *favoriteRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.Favorite{})
	return result.RowsAffected, result.Error
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Add(ctx context.Context, userID, postID uint) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (user_id, post_id, created_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID,
	).Error
}

func (r *subscriptionRepository) Remove(ctx context.Context, userID, postID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Subscription{}).Error
}

func (r *subscriptionRepository) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

func (r *subscriptionRepository) SubscriberIDs(ctx context.Context, postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("post_id = ?", postID).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *subscriptionRepository) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.Subscription{})
	return result.RowsAffected, result.Error
}
