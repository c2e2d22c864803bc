package service

import (
	"context"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voter() models.Actor {
	return models.Actor{ID: 2, Role: models.RoleUser, EmailVerified: true}
}

// postOwnedBy returns a post repo whose every post is active and authored by
// the given user.
func postOwnedBy(authorID uint) *postRepoStub {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: authorID, Status: models.StatusActive}, nil
	}
	return repo
}

func TestVoteService_CastVote_Validation(t *testing.T) {
	t.Parallel()

	svc := NewVoteService(noopVoteRepo(), noopPostRepo(), noopCommentRepo(), &ratingStub{})
	ctx := context.Background()

	t.Run("unknown target kind", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CastVote(ctx, CastVoteInput{Actor: voter(), TargetKind: "poll", TargetID: 1, Value: models.VoteUp})
		assertValidationError(t, err)
	})

	t.Run("unknown vote value", func(t *testing.T) {
		t.Parallel()
		_, err := svc.CastVote(ctx, CastVoteInput{Actor: voter(), TargetKind: models.TargetPost, TargetID: 1, Value: "sideways"})
		assertValidationError(t, err)
	})
}

func TestVoteService_CastVote_Policy(t *testing.T) {
	t.Parallel()

	t.Run("anonymous actor is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewVoteService(noopVoteRepo(), postOwnedBy(1), noopCommentRepo(), &ratingStub{})
		_, err := svc.CastVote(context.Background(), CastVoteInput{
			TargetKind: models.TargetPost, TargetID: 1, Value: models.VoteUp,
		})
		assertForbiddenError(t, err)
	})

	t.Run("self-vote is rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewVoteService(noopVoteRepo(), postOwnedBy(voter().ID), noopCommentRepo(), &ratingStub{})
		_, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 1, Value: models.VoteUp,
		})
		assertForbiddenError(t, err)
	})

	t.Run("inactive post is invalid state", func(t *testing.T) {
		t.Parallel()
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 1, Status: models.StatusInactive}, nil
		}
		svc := NewVoteService(noopVoteRepo(), postRepo, noopCommentRepo(), &ratingStub{})
		_, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 1, Value: models.VoteUp,
		})
		assertInvalidStateError(t, err)
	})

	t.Run("deleted comment is invalid state", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1, AuthorID: 1, Status: models.StatusActive, Deleted: true}, nil
		}
		svc := NewVoteService(noopVoteRepo(), postOwnedBy(1), commentRepo, &ratingStub{})
		_, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetComment, TargetID: 5, Value: models.VoteUp,
		})
		assertInvalidStateError(t, err)
	})
}

func TestVoteService_CastVote_Outcomes(t *testing.T) {
	t.Parallel()

	t.Run("first vote creates and recomputes", func(t *testing.T) {
		t.Parallel()
		rating := &ratingStub{postScore: 1}
		svc := NewVoteService(noopVoteRepo(), postOwnedBy(1), noopCommentRepo(), rating)

		result, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 7, Value: models.VoteUp,
		})
		require.NoError(t, err)
		assert.Equal(t, models.VoteCreated, result.Outcome)
		assert.Equal(t, 1, result.Score)
		assert.Equal(t, []uint{7}, rating.postRecomputes)
		assert.Equal(t, []uint{1}, rating.userRecomputes)
	})

	t.Run("same value is a duplicate no-op", func(t *testing.T) {
		t.Parallel()
		voteRepo := noopVoteRepo()
		voteRepo.getFn = func(_ context.Context, _ uint, _ string, _ uint) (*models.Vote, error) {
			return &models.Vote{Value: models.VoteUp}, nil
		}
		rating := &ratingStub{}
		svc := NewVoteService(voteRepo, postOwnedBy(1), noopCommentRepo(), rating)

		result, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 7, Value: models.VoteUp,
		})
		require.NoError(t, err)
		assert.Equal(t, models.VoteDuplicate, result.Outcome)
		assert.Empty(t, rating.postRecomputes, "duplicate must not trigger a recompute")
		assert.Empty(t, rating.userRecomputes)
	})

	t.Run("opposite value replaces", func(t *testing.T) {
		t.Parallel()
		voteRepo := noopVoteRepo()
		voteRepo.getFn = func(_ context.Context, _ uint, _ string, _ uint) (*models.Vote, error) {
			return &models.Vote{Value: models.VoteDown}, nil
		}
		var from, to string
		voteRepo.updateValueFn = func(_ context.Context, _ uint, _ string, _ uint, f, tv string) (bool, error) {
			from, to = f, tv
			return true, nil
		}
		rating := &ratingStub{postScore: 2}
		svc := NewVoteService(voteRepo, postOwnedBy(1), noopCommentRepo(), rating)

		result, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 7, Value: models.VoteUp,
		})
		require.NoError(t, err)
		assert.Equal(t, models.VoteReplaced, result.Outcome)
		assert.Equal(t, models.VoteDown, from)
		assert.Equal(t, models.VoteUp, to)
		assert.Equal(t, 2, result.Score)
		assert.Equal(t, []uint{7}, rating.postRecomputes)
	})

	t.Run("lost insert race degrades to duplicate", func(t *testing.T) {
		t.Parallel()
		calls := 0
		voteRepo := noopVoteRepo()
		voteRepo.getFn = func(_ context.Context, _ uint, _ string, _ uint) (*models.Vote, error) {
			calls++
			if calls == 1 {
				return nil, nil
			}
			// A concurrent request inserted the same value meanwhile.
			return &models.Vote{Value: models.VoteUp}, nil
		}
		voteRepo.insertFn = func(_ context.Context, _ *models.Vote) (bool, error) { return false, nil }
		rating := &ratingStub{}
		svc := NewVoteService(voteRepo, postOwnedBy(1), noopCommentRepo(), rating)

		result, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 7, Value: models.VoteUp,
		})
		require.NoError(t, err)
		assert.Equal(t, models.VoteDuplicate, result.Outcome)
		assert.Empty(t, rating.postRecomputes)
	})

	t.Run("comment vote recomputes only the author rating", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1, AuthorID: 9, Status: models.StatusActive}, nil
		}
		rating := &ratingStub{}
		svc := NewVoteService(noopVoteRepo(), postOwnedBy(1), commentRepo, rating)

		result, err := svc.CastVote(context.Background(), CastVoteInput{
			Actor: voter(), TargetKind: models.TargetComment, TargetID: 5, Value: models.VoteDown,
		})
		require.NoError(t, err)
		assert.Equal(t, models.VoteCreated, result.Outcome)
		assert.Zero(t, result.Score)
		assert.Empty(t, rating.postRecomputes)
		assert.Equal(t, []uint{9}, rating.userRecomputes)
	})
}

func TestVoteService_RetractVote(t *testing.T) {
	t.Parallel()

	t.Run("missing vote is not found", func(t *testing.T) {
		t.Parallel()
		svc := NewVoteService(noopVoteRepo(), postOwnedBy(1), noopCommentRepo(), &ratingStub{})
		err := svc.RetractVote(context.Background(), RetractVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 7,
		})
		assertAppError(t, err, models.CodeNotFound)
	})

	t.Run("existing vote is removed and scores recomputed", func(t *testing.T) {
		t.Parallel()
		voteRepo := noopVoteRepo()
		voteRepo.getFn = func(_ context.Context, _ uint, _ string, _ uint) (*models.Vote, error) {
			return &models.Vote{Value: models.VoteUp}, nil
		}
		deleted := false
		voteRepo.deleteFn = func(_ context.Context, _ uint, _ string, _ uint) error {
			deleted = true
			return nil
		}
		rating := &ratingStub{}
		svc := NewVoteService(voteRepo, postOwnedBy(1), noopCommentRepo(), rating)

		err := svc.RetractVote(context.Background(), RetractVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 7,
		})
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, []uint{7}, rating.postRecomputes)
		assert.Equal(t, []uint{1}, rating.userRecomputes)
	})

	t.Run("retraction works on a deactivated post", func(t *testing.T) {
		t.Parallel()
		postRepo := noopPostRepo()
		postRepo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, AuthorID: 1, Status: models.StatusInactive}, nil
		}
		voteRepo := noopVoteRepo()
		voteRepo.getFn = func(_ context.Context, _ uint, _ string, _ uint) (*models.Vote, error) {
			return &models.Vote{Value: models.VoteUp}, nil
		}
		deleted := false
		voteRepo.deleteFn = func(_ context.Context, _ uint, _ string, _ uint) error {
			deleted = true
			return nil
		}
		rating := &ratingStub{}
		svc := NewVoteService(voteRepo, postRepo, noopCommentRepo(), rating)

		err := svc.RetractVote(context.Background(), RetractVoteInput{
			Actor: voter(), TargetKind: models.TargetPost, TargetID: 7,
		})
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, []uint{7}, rating.postRecomputes)
	})

	t.Run("retraction works on a tombstoned comment", func(t *testing.T) {
		t.Parallel()
		commentRepo := noopCommentRepo()
		commentRepo.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 3, AuthorID: 9, Deleted: true, Content: models.TombstoneContent}, nil
		}
		voteRepo := noopVoteRepo()
		voteRepo.getFn = func(_ context.Context, _ uint, _ string, _ uint) (*models.Vote, error) {
			return &models.Vote{Value: models.VoteDown}, nil
		}
		rating := &ratingStub{}
		svc := NewVoteService(voteRepo, noopPostRepo(), commentRepo, rating)

		err := svc.RetractVote(context.Background(), RetractVoteInput{
			Actor: voter(), TargetKind: models.TargetComment, TargetID: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, []uint{9}, rating.userRecomputes)
	})
}
