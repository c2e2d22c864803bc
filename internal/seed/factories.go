// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"agora/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Login:         gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:         gofakeit.Email(),
		FullName:      gofakeit.Name(),
		Avatar:        fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Role:          models.RoleUser,
		EmailVerified: true,
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: login=%s role=%s", user.Login, user.Role)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCategory constructs and persists a `models.Category`. Existing
// categories with the same title are reused.
func (f *Factory) CreateCategory(title string, overrides ...func(*models.Category)) (*models.Category, error) {
	category := &models.Category{
		Title:       title,
		Description: gofakeit.Sentence(8),
	}

	for _, override := range overrides {
		override(category)
	}

	if f.opts.DryRun {
		f.nextID++
		category.ID = f.nextID
		return category, nil
	}

	if err := f.db.Where(models.Category{Title: category.Title}).
		Attrs(models.Category{Description: category.Description}).
		FirstOrCreate(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// BuildPost constructs a post struct without persisting it. Useful for
// batching.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Title:    gofakeit.Question(),
		Content:  gofakeit.Paragraph(1, 3, 5, "\n"),
		AuthorID: author.ID,
		Status:   models.StatusActive,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	// #nosec G404: acceptable for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	daysBack := r.Intn(maxDays)
	hoursBack := r.Intn(24)
	minsBack := r.Intn(60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost constructs and persists a sample `models.Post` for the given
// author, attached to the given categories.
func (f *Factory) CreatePost(author *models.User, categories []models.Category, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author, overrides...)
	post.Categories = categories

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: author=%d title=%q", post.AuthorID, post.Title)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content:  gofakeit.Sentence(12),
		AuthorID: author.ID,
		PostID:   post.ID,
		Status:   models.StatusActive,
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateVote records a ledger row from `user` on the given target. Duplicate
// pairs are silently skipped so random seeding never trips the unique index.
func (f *Factory) CreateVote(user *models.User, targetKind string, targetID uint, value string) error {
	if f.opts.DryRun {
		return nil
	}
	vote := &models.Vote{
		UserID:     user.ID,
		TargetKind: targetKind,
		TargetID:   targetID,
		Value:      value,
	}
	return f.db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(vote).Error
}

// CreateFavorite persists a favorite from `user` on `post`.
func (f *Factory) CreateFavorite(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	favorite := &models.Favorite{
		UserID: user.ID,
		PostID: post.ID,
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(favorite).Error
}

// CreateSubscription persists a comment subscription from `user` on `post`.
func (f *Factory) CreateSubscription(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	subscription := &models.Subscription{
		UserID: user.ID,
		PostID: post.ID,
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(subscription).Error
}
