package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
)

// RatingService recomputes derived engagement values from the vote ledger.
// Scores are always rebuilt from the full ledger, never adjusted in place, so
// a recompute after any sequence of votes converges to the same value.
type RatingService struct {
	voteRepo repository.VoteRepository
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

// NewRatingService creates a new RatingService.
func NewRatingService(
	voteRepo repository.VoteRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
) *RatingService {
	return &RatingService{
		voteRepo: voteRepo,
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

// RecomputePostScore rebuilds the post's engagement score from the ledger and
// persists it. Returns the fresh score.
func (s *RatingService) RecomputePostScore(ctx context.Context, postID uint) (int, error) {
	score, err := s.voteRepo.SumForTarget(ctx, models.TargetPost, postID)
	if err != nil {
		// The aggregate read is side-effect free, so a transient failure
		// gets one retry before the caller sees it.
		observability.RecomputeRetries.WithLabelValues("post").Inc()
		score, err = s.voteRepo.SumForTarget(ctx, models.TargetPost, postID)
	}
	if err != nil {
		return 0, err
	}
	if err := s.postRepo.SetEngagementScore(ctx, postID, score); err != nil {
		return 0, err
	}
	observability.ScoreRecomputes.WithLabelValues("post").Inc()
	return score, nil
}

// RecomputeUserRating rebuilds the user's rating as the sum of votes across
// all of their posts and comments, and persists it.
func (s *RatingService) RecomputeUserRating(ctx context.Context, userID uint) (int, error) {
	rating, err := s.voteRepo.SumForAuthor(ctx, userID)
	if err != nil {
		observability.RecomputeRetries.WithLabelValues("user").Inc()
		rating, err = s.voteRepo.SumForAuthor(ctx, userID)
	}
	if err != nil {
		return 0, err
	}
	if err := s.userRepo.SetRating(ctx, userID, rating); err != nil {
		return 0, err
	}
	observability.ScoreRecomputes.WithLabelValues("user").Inc()
	return rating, nil
}
