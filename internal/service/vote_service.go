package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/policy"
	"agora/internal/repository"
)

// ratingRecomputer is the slice of RatingService the vote flow needs.
type ratingRecomputer interface {
	RecomputePostScore(ctx context.Context, postID uint) (int, error)
	RecomputeUserRating(ctx context.Context, userID uint) (int, error)
}

// VoteService owns the engagement ledger: at most one vote per actor per
// target, with duplicate casts collapsing to a no-op and opposite casts
// replacing the previous row.
type VoteService struct {
	voteRepo    repository.VoteRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	rating      ratingRecomputer
}

// CastVoteInput carries one vote request.
type CastVoteInput struct {
	Actor      models.Actor
	TargetKind string
	TargetID   uint
	Value      string
}

// RetractVoteInput removes the actor's vote from a target.
type RetractVoteInput struct {
	Actor      models.Actor
	TargetKind string
	TargetID   uint
}

// VoteResult reports what the ledger did and the target's fresh score.
type VoteResult struct {
	Outcome models.VoteOutcome `json:"outcome"`
	Value   string             `json:"value"`
	// Score is the recomputed post engagement score; zero for comment targets.
	Score int `json:"score"`
}

// NewVoteService creates a new VoteService.
func NewVoteService(
	voteRepo repository.VoteRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	rating ratingRecomputer,
) *VoteService {
	return &VoteService{
		voteRepo:    voteRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		rating:      rating,
	}
}

// CastVote records the actor's vote. Outcomes:
//   - no prior vote: a ledger row is created
//   - same value already recorded: duplicate, nothing written
//   - opposite value recorded: the row is flipped in one statement
//
// Created and replaced outcomes trigger a full recompute of the target's
// score and the target author's rating before returning.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (*VoteResult, error) {
	if !models.ValidTargetKind(in.TargetKind) {
		return nil, models.NewValidationError("Unknown vote target kind")
	}
	if !models.ValidVoteValue(in.Value) {
		return nil, models.NewValidationError("Vote value must be 'up' or 'down'")
	}

	authorID, postID, err := s.loadVotableTarget(ctx, in.Actor, in.TargetKind, in.TargetID)
	if err != nil {
		return nil, err
	}
	if !policy.CanVote(in.Actor, authorID) {
		if in.Actor.Anonymous() {
			return nil, models.NewForbiddenError("Authentication required to vote")
		}
		return nil, models.NewForbiddenError("You cannot vote on your own content")
	}

	outcome, err := s.record(ctx, in)
	if err != nil {
		return nil, err
	}
	observability.VotesTotal.WithLabelValues(in.TargetKind, string(outcome)).Inc()

	result := &VoteResult{Outcome: outcome, Value: in.Value}
	if outcome == models.VoteDuplicate {
		return result, nil
	}

	if in.TargetKind == models.TargetPost {
		score, err := s.rating.RecomputePostScore(ctx, postID)
		if err != nil {
			return nil, err
		}
		result.Score = score
	}
	if _, err := s.rating.RecomputeUserRating(ctx, authorID); err != nil {
		return nil, err
	}
	return result, nil
}

// RetractVote deletes the actor's ledger row for the target, if any, and
// recomputes the derived scores. Unlike casting, retraction skips lifecycle
// checks: a voter can always withdraw a vote, even after the target was
// deactivated.
func (s *VoteService) RetractVote(ctx context.Context, in RetractVoteInput) error {
	if !models.ValidTargetKind(in.TargetKind) {
		return models.NewValidationError("Unknown vote target kind")
	}
	if in.Actor.Anonymous() {
		return models.NewForbiddenError("Authentication required to vote")
	}

	authorID, postID, err := s.locateTarget(ctx, in.Actor, in.TargetKind, in.TargetID)
	if err != nil {
		return err
	}

	existing, err := s.voteRepo.Get(ctx, in.Actor.ID, in.TargetKind, in.TargetID)
	if err != nil {
		return err
	}
	if existing == nil {
		return models.NewNotFoundError("Vote", in.TargetID)
	}
	if err := s.voteRepo.Delete(ctx, in.Actor.ID, in.TargetKind, in.TargetID); err != nil {
		return err
	}
	observability.VotesTotal.WithLabelValues(in.TargetKind, "retracted").Inc()

	if in.TargetKind == models.TargetPost {
		if _, err := s.rating.RecomputePostScore(ctx, postID); err != nil {
			return err
		}
	}
	_, err = s.rating.RecomputeUserRating(ctx, authorID)
	return err
}

// locateTarget resolves the target's author and owning post without any
// lifecycle checks.
func (s *VoteService) locateTarget(ctx context.Context, actor models.Actor, kind string, id uint) (authorID, postID uint, err error) {
	switch kind {
	case models.TargetPost:
		post, err := s.postRepo.GetByID(ctx, id, actor.ID)
		if err != nil {
			return 0, 0, notFoundOr(err, "Post", id)
		}
		return post.AuthorID, post.ID, nil

	case models.TargetComment:
		comment, err := s.commentRepo.GetByID(ctx, id)
		if err != nil {
			return 0, 0, notFoundOr(err, "Comment", id)
		}
		return comment.AuthorID, comment.PostID, nil
	}
	return 0, 0, models.NewValidationError("Unknown vote target kind")
}

// loadVotableTarget fetches the target and checks it accepts votes. Returns
// the target author and the owning post id.
func (s *VoteService) loadVotableTarget(ctx context.Context, actor models.Actor, kind string, id uint) (authorID, postID uint, err error) {
	switch kind {
	case models.TargetPost:
		post, err := s.postRepo.GetByID(ctx, id, actor.ID)
		if err != nil {
			return 0, 0, notFoundOr(err, "Post", id)
		}
		if !post.Active() {
			return 0, 0, models.NewInvalidStateError("Post is not active")
		}
		return post.AuthorID, post.ID, nil

	case models.TargetComment:
		comment, err := s.commentRepo.GetByID(ctx, id)
		if err != nil {
			return 0, 0, notFoundOr(err, "Comment", id)
		}
		if !comment.Active() {
			return 0, 0, models.NewInvalidStateError("Comment is not active")
		}
		post, err := s.postRepo.GetByID(ctx, comment.PostID, actor.ID)
		if err != nil {
			return 0, 0, notFoundOr(err, "Post", comment.PostID)
		}
		if !post.Active() {
			return 0, 0, models.NewInvalidStateError("Post is not active")
		}
		return comment.AuthorID, post.ID, nil
	}
	return 0, 0, models.NewValidationError("Unknown vote target kind")
}

// record applies the ledger transition for the vote. Concurrent casts are
// resolved by the database: a lost insert race or flip race degrades to the
// duplicate outcome rather than an error.
func (s *VoteService) record(ctx context.Context, in CastVoteInput) (models.VoteOutcome, error) {
	existing, err := s.voteRepo.Get(ctx, in.Actor.ID, in.TargetKind, in.TargetID)
	if err != nil {
		return "", err
	}

	if existing == nil {
		inserted, err := s.voteRepo.Insert(ctx, &models.Vote{
			UserID:     in.Actor.ID,
			TargetKind: in.TargetKind,
			TargetID:   in.TargetID,
			Value:      in.Value,
		})
		if err != nil {
			return "", err
		}
		if inserted {
			return models.VoteCreated, nil
		}
		// Lost a race with another request from the same actor. Re-read and
		// fall through to the duplicate/replace logic.
		existing, err = s.voteRepo.Get(ctx, in.Actor.ID, in.TargetKind, in.TargetID)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return models.VoteDuplicate, nil
		}
	}

	if existing.Value == in.Value {
		return models.VoteDuplicate, nil
	}

	flipped, err := s.voteRepo.UpdateValue(ctx, in.Actor.ID, in.TargetKind, in.TargetID, existing.Value, in.Value)
	if err != nil {
		return "", err
	}
	if !flipped {
		return models.VoteDuplicate, nil
	}
	return models.VoteReplaced, nil
}
