package repository

import (
	"context"
	"errors"

	"agora/internal/models"
	"agora/internal/observability"

	"gorm.io/gorm"
)

// VoteRepository defines the interface for engagement ledger operations.
type VoteRepository interface {
	Get(ctx context.Context, userID uint, targetKind string, targetID uint) (*models.Vote, error)
	Insert(ctx context.Context, vote *models.Vote) (bool, error)
	UpdateValue(ctx context.Context, userID uint, targetKind string, targetID uint, from, to string) (bool, error)
	Delete(ctx context.Context, userID uint, targetKind string, targetID uint) error
	SumForTarget(ctx context.Context, targetKind string, targetID uint) (int, error)
	SumForAuthor(ctx context.Context, authorID uint) (int, error)
}

type voteRepository struct {
	db      *gorm.DB
	metrics *observability.DatabaseMetrics
	log     *observability.RepoLogger
}

// NewVoteRepository creates a new vote repository.
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{
		db:      db,
		metrics: observability.NewDatabaseMetrics(db),
		log:     observability.NewRepoLogger("votes"),
	}
}

func (r *voteRepository) Get(ctx context.Context, userID uint, targetKind string, targetID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, targetKind, targetID).
		First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// Insert records a new ledger row. Returns false when a row for the same
// (user, target) already exists: the unique constraint is the arbiter of
// concurrent votes, so a lost race surfaces as a no-op, not an error.
func (r *voteRepository) Insert(ctx context.Context, vote *models.Vote) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO votes (user_id, target_kind, target_id, value, created_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (user_id, target_kind, target_id) DO NOTHING`,
		vote.UserID, vote.TargetKind, vote.TargetID, vote.Value,
	)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		r.log.LogError(ctx, result.Error, "insert")
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateValue flips an existing row from one value to the other in a single
// statement. Returns false when no row matched, meaning a concurrent request
// already changed or removed it.
func (r *voteRepository) UpdateValue(ctx context.Context, userID uint, targetKind string, targetID uint, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("user_id = ? AND target_kind = ? AND target_id = ? AND value = ?", userID, targetKind, targetID, from).
		Update("value", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *voteRepository) Delete(ctx context.Context, userID uint, targetKind string, targetID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, targetKind, targetID).
		Delete(&models.Vote{}).Error
}

// SumForTarget recomputes the target's score from the full ledger.
func (r *voteRepository) SumForTarget(ctx context.Context, targetKind string, targetID uint) (int, error) {
	defer r.metrics.TrackQuery("sum_for_target", "votes")()
	var score int
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN value = ? THEN 1 ELSE -1 END), 0)
		 FROM votes WHERE target_kind = ? AND target_id = ?`,
		models.VoteUp, targetKind, targetID,
	).Scan(&score).Error
	return score, err
}

// SumForAuthor recomputes a user's rating as the sum of vote values across
// every post and comment they authored.
func (r *voteRepository) SumForAuthor(ctx context.Context, authorID uint) (int, error) {
	defer r.metrics.TrackQuery("sum_for_author", "votes")()
	var score int
	err := r.db.WithContext(ctx).Raw(
		`SELECT
		   COALESCE((SELECT SUM(CASE WHEN v.value = @up THEN 1 ELSE -1 END)
		     FROM votes v JOIN posts p ON v.target_id = p.id
		     WHERE v.target_kind = @postKind AND p.author_id = @author), 0)
		 + COALESCE((SELECT SUM(CASE WHEN v.value = @up THEN 1 ELSE -1 END)
		     FROM votes v JOIN comments c ON v.target_id = c.id
		     WHERE v.target_kind = @commentKind AND c.author_id = @author), 0)`,
		map[string]any{
			"up":          models.VoteUp,
			"postKind":    models.TargetPost,
			"commentKind": models.TargetComment,
			"author":      authorID,
		},
	).Scan(&score).Error
	return score, err
}
