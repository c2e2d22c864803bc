package service

import (
	"context"
	"errors"
	"testing"

	"agora/internal/models"
	"agora/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Repository stubs with overridable function fields. Each noop constructor
// returns a stub whose every call succeeds with zero values; tests override
// only the calls they care about.

type postRepoStub struct {
	createFn            func(context.Context, *models.Post) error
	getByIDFn           func(context.Context, uint, uint) (*models.Post, error)
	listFn              func(context.Context, repository.PostQuery) ([]*models.Post, error)
	listFavoritedByFn   func(context.Context, uint, int, int) ([]*models.Post, error)
	updateFn            func(context.Context, *models.Post) error
	updateFieldsFn      func(context.Context, uint, map[string]any) error
	replaceCategoriesFn func(context.Context, *models.Post, []models.Category) error
	deleteFn            func(context.Context, uint) error
	setScoreFn          func(context.Context, uint, int) error
	setSolutionFn       func(context.Context, uint, *uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, q repository.PostQuery) ([]*models.Post, error) {
	return s.listFn(ctx, q)
}
func (s *postRepoStub) ListFavoritedBy(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.listFavoritedByFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *postRepoStub) ReplaceCategories(ctx context.Context, post *models.Post, categories []models.Category) error {
	return s.replaceCategoriesFn(ctx, post, categories)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) SetEngagementScore(ctx context.Context, id uint, score int) error {
	return s.setScoreFn(ctx, id, score)
}
func (s *postRepoStub) SetSolution(ctx context.Context, id uint, commentID *uint) error {
	return s.setSolutionFn(ctx, id, commentID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, Status: models.StatusActive}, nil
		},
		listFn:              func(_ context.Context, _ repository.PostQuery) ([]*models.Post, error) { return nil, nil },
		listFavoritedByFn:   func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn:            func(_ context.Context, _ *models.Post) error { return nil },
		updateFieldsFn:      func(_ context.Context, _ uint, _ map[string]any) error { return nil },
		replaceCategoriesFn: func(_ context.Context, _ *models.Post, _ []models.Category) error { return nil },
		deleteFn:            func(_ context.Context, _ uint) error { return nil },
		setScoreFn:          func(_ context.Context, _ uint, _ int) error { return nil },
		setSolutionFn:       func(_ context.Context, _ uint, _ *uint) error { return nil },
	}
}

type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByPostFn   func(context.Context, uint) ([]*models.Comment, error)
	listByAuthorFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	updateFn       func(context.Context, *models.Comment) error
	updateFieldsFn func(context.Context, uint, map[string]any) error
	softDeleteFn   func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Comment, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, Status: models.StatusActive}, nil
		},
		listByPostFn:   func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listByAuthorFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		updateFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		updateFieldsFn: func(_ context.Context, _ uint, _ map[string]any) error { return nil },
		softDeleteFn:   func(_ context.Context, _ uint) error { return nil },
	}
}

type voteRepoStub struct {
	getFn          func(context.Context, uint, string, uint) (*models.Vote, error)
	insertFn       func(context.Context, *models.Vote) (bool, error)
	updateValueFn  func(context.Context, uint, string, uint, string, string) (bool, error)
	deleteFn       func(context.Context, uint, string, uint) error
	sumForTargetFn func(context.Context, string, uint) (int, error)
	sumForAuthorFn func(context.Context, uint) (int, error)
}

func (s *voteRepoStub) Get(ctx context.Context, userID uint, kind string, targetID uint) (*models.Vote, error) {
	return s.getFn(ctx, userID, kind, targetID)
}
func (s *voteRepoStub) Insert(ctx context.Context, vote *models.Vote) (bool, error) {
	return s.insertFn(ctx, vote)
}
func (s *voteRepoStub) UpdateValue(ctx context.Context, userID uint, kind string, targetID uint, from, to string) (bool, error) {
	return s.updateValueFn(ctx, userID, kind, targetID, from, to)
}
func (s *voteRepoStub) Delete(ctx context.Context, userID uint, kind string, targetID uint) error {
	return s.deleteFn(ctx, userID, kind, targetID)
}
func (s *voteRepoStub) SumForTarget(ctx context.Context, kind string, targetID uint) (int, error) {
	return s.sumForTargetFn(ctx, kind, targetID)
}
func (s *voteRepoStub) SumForAuthor(ctx context.Context, authorID uint) (int, error) {
	return s.sumForAuthorFn(ctx, authorID)
}

func noopVoteRepo() *voteRepoStub {
	return &voteRepoStub{
		getFn:    func(_ context.Context, _ uint, _ string, _ uint) (*models.Vote, error) { return nil, nil },
		insertFn: func(_ context.Context, _ *models.Vote) (bool, error) { return true, nil },
		updateValueFn: func(_ context.Context, _ uint, _ string, _ uint, _, _ string) (bool, error) {
			return true, nil
		},
		deleteFn:       func(_ context.Context, _ uint, _ string, _ uint) error { return nil },
		sumForTargetFn: func(_ context.Context, _ string, _ uint) (int, error) { return 0, nil },
		sumForAuthorFn: func(_ context.Context, _ uint) (int, error) { return 0, nil },
	}
}

type membershipRepoStub struct {
	addFn           func(context.Context, uint, uint) error
	removeFn        func(context.Context, uint, uint) error
	existsFn        func(context.Context, uint, uint) (bool, error)
	subscriberIDsFn func(context.Context, uint) ([]uint, error)
	deleteByPostFn  func(context.Context, uint) (int64, error)
}

func (s *membershipRepoStub) Add(ctx context.Context, userID, postID uint) error {
	return s.addFn(ctx, userID, postID)
}
func (s *membershipRepoStub) Remove(ctx context.Context, userID, postID uint) error {
	return s.removeFn(ctx, userID, postID)
}
func (s *membershipRepoStub) Exists(ctx context.Context, userID, postID uint) (bool, error) {
	return s.existsFn(ctx, userID, postID)
}
func (s *membershipRepoStub) SubscriberIDs(ctx context.Context, postID uint) ([]uint, error) {
	return s.subscriberIDsFn(ctx, postID)
}
func (s *membershipRepoStub) DeleteByPost(ctx context.Context, postID uint) (int64, error) {
	return s.deleteByPostFn(ctx, postID)
}

func noopMembershipRepo() *membershipRepoStub {
	return &membershipRepoStub{
		addFn:           func(_ context.Context, _, _ uint) error { return nil },
		removeFn:        func(_ context.Context, _, _ uint) error { return nil },
		existsFn:        func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		subscriberIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		deleteByPostFn:  func(_ context.Context, _ uint) (int64, error) { return 0, nil },
	}
}

type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByLoginFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	setRatingFn  func(context.Context, uint, int) error
	listFn       func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return s.getByLoginFn(ctx, login)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) SetRating(ctx context.Context, id uint, rating int) error {
	return s.setRatingFn(ctx, id, rating)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByLoginFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:     func(_ context.Context, _ *models.User) error { return nil },
		updateFn:     func(_ context.Context, _ *models.User) error { return nil },
		setRatingFn:  func(_ context.Context, _ uint, _ int) error { return nil },
		listFn:       func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

type categoryRepoStub struct {
	listFn     func(context.Context) ([]models.Category, error)
	getByIDsFn func(context.Context, []uint) ([]models.Category, error)
	createFn   func(context.Context, *models.Category) error
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.listFn(ctx)
}
func (s *categoryRepoStub) GetByIDs(ctx context.Context, ids []uint) ([]models.Category, error) {
	return s.getByIDsFn(ctx, ids)
}
func (s *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	return s.createFn(ctx, category)
}

func noopCategoryRepo() *categoryRepoStub {
	return &categoryRepoStub{
		listFn: func(_ context.Context) ([]models.Category, error) { return nil, nil },
		getByIDsFn: func(_ context.Context, ids []uint) ([]models.Category, error) {
			categories := make([]models.Category, len(ids))
			for i, id := range ids {
				categories[i] = models.Category{ID: id}
			}
			return categories, nil
		},
		createFn: func(_ context.Context, _ *models.Category) error { return nil },
	}
}

// ratingStub satisfies ratingRecomputer and records invocations.
type ratingStub struct {
	postRecomputes []uint
	userRecomputes []uint
	postScore      int
	userRating     int
}

func (s *ratingStub) RecomputePostScore(_ context.Context, postID uint) (int, error) {
	s.postRecomputes = append(s.postRecomputes, postID)
	return s.postScore, nil
}

func (s *ratingStub) RecomputeUserRating(_ context.Context, userID uint) (int, error) {
	s.userRecomputes = append(s.userRecomputes, userID)
	return s.userRating, nil
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeForbidden)
}

func assertInvalidStateError(t *testing.T, err error) {
	t.Helper()
	assertAppError(t, err, models.CodeInvalidState)
}
