package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"agora/internal/cache"
	"agora/internal/database"
	"agora/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newSQLiteDB opens an isolated in-memory database with the full schema.
// SQLite understands the same ON CONFLICT and CURRENT_TIMESTAMP constructs
// the raw ledger SQL uses, so the repositories run against it unchanged.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func seedUserAndPost(t *testing.T, db *gorm.DB) (*models.User, *models.Post) {
	t.Helper()
	user := &models.User{Login: "author", Email: "author@example.com", Role: models.RoleUser}
	require.NoError(t, db.Create(user).Error)
	post := &models.Post{AuthorID: user.ID, Title: "How do I test this?", Content: "Body", Status: models.StatusActive}
	require.NoError(t, db.Create(post).Error)
	return user, post
}

func TestVoteLedger_EndToEnd(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	_, post := seedUserAndPost(t, db)

	voter := &models.User{Login: "voter", Email: "voter@example.com", Role: models.RoleUser}
	require.NoError(t, db.Create(voter).Error)

	// first vote inserts a row
	inserted, err := repo.Insert(ctx, &models.Vote{
		UserID: voter.ID, TargetKind: models.TargetPost, TargetID: post.ID, Value: models.VoteUp,
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	// same vote again hits the unique index and becomes a no-op
	inserted, err = repo.Insert(ctx, &models.Vote{
		UserID: voter.ID, TargetKind: models.TargetPost, TargetID: post.ID, Value: models.VoteUp,
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	// the stored row is readable
	vote, err := repo.Get(ctx, voter.ID, models.TargetPost, post.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)
	assert.Equal(t, models.VoteUp, vote.Value)

	// flipping requires the old value to still match
	flipped, err := repo.UpdateValue(ctx, voter.ID, models.TargetPost, post.ID, models.VoteUp, models.VoteDown)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.UpdateValue(ctx, voter.ID, models.TargetPost, post.ID, models.VoteUp, models.VoteDown)
	require.NoError(t, err)
	assert.False(t, flipped, "second flip must miss: the row no longer holds the old value")

	score, err := repo.SumForTarget(ctx, models.TargetPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, score)

	// retract and the ledger is empty again
	require.NoError(t, repo.Delete(ctx, voter.ID, models.TargetPost, post.ID))
	score, err = repo.SumForTarget(ctx, models.TargetPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, score)
}

func TestVoteLedger_ScoreAcrossVoters(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewVoteRepository(db)
	ctx := context.Background()
	_, post := seedUserAndPost(t, db)

	for i, value := range []string{models.VoteUp, models.VoteUp, models.VoteUp, models.VoteDown} {
		voter := &models.User{Login: fmt.Sprintf("voter%d", i), Email: fmt.Sprintf("voter%d@example.com", i), Role: models.RoleUser}
		require.NoError(t, db.Create(voter).Error)
		inserted, err := repo.Insert(ctx, &models.Vote{
			UserID: voter.ID, TargetKind: models.TargetPost, TargetID: post.ID, Value: value,
		})
		require.NoError(t, err)
		require.True(t, inserted)
	}

	score, err := repo.SumForTarget(ctx, models.TargetPost, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, score)
}

// Derived values bypass Redis entirely: the read following a recompute must
// observe the fresh value even with a healthy cache in front, and no post or
// user row may be parked in Redis where a stale score could outlive a vote.
func TestDerivedScores_NeverServedFromCache(t *testing.T) {
	db := newSQLiteDB(t)
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	posts := NewPostRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()
	author, post := seedUserAndPost(t, db)

	// anonymous read before any votes
	got, err := posts.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.EngagementScore)

	require.NoError(t, posts.SetEngagementScore(ctx, post.ID, 1))
	require.NoError(t, users.SetRating(ctx, author.ID, 1))

	got, err = posts.GetByID(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.EngagementScore, "recomputed score must be visible on the next read")

	gotUser, err := users.GetByID(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotUser.Rating, "recomputed rating must be visible on the next read")

	assert.Empty(t, mr.Keys(), "post and user rows must never land in Redis")
}

func TestMemberships_CascadeDeleteByPost(t *testing.T) {
	db := newSQLiteDB(t)
	favorites := NewFavoriteRepository(db)
	subscriptions := NewSubscriptionRepository(db)
	ctx := context.Background()
	_, post := seedUserAndPost(t, db)

	var userIDs []uint
	for i := 0; i < 3; i++ {
		u := &models.User{Login: fmt.Sprintf("fan%d", i), Email: fmt.Sprintf("fan%d@example.com", i), Role: models.RoleUser}
		require.NoError(t, db.Create(u).Error)
		userIDs = append(userIDs, u.ID)
		require.NoError(t, favorites.Add(ctx, u.ID, post.ID))
		require.NoError(t, subscriptions.Add(ctx, u.ID, post.ID))
	}

	// double-add stays idempotent
	require.NoError(t, favorites.Add(ctx, userIDs[0], post.ID))
	exists, err := favorites.Exists(ctx, userIDs[0], post.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	subs, err := subscriptions.SubscriberIDs(ctx, post.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, userIDs, subs)

	// the post going inactive wipes both membership tables
	removedFavs, err := favorites.DeleteByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removedFavs)

	removedSubs, err := subscriptions.DeleteByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, removedSubs)

	exists, err = favorites.Exists(ctx, userIDs[0], post.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCommentTombstone_RowSurvives(t *testing.T) {
	db := newSQLiteDB(t)
	comments := NewCommentRepository(db)
	ctx := context.Background()
	user, post := seedUserAndPost(t, db)

	comment := &models.Comment{PostID: post.ID, AuthorID: user.ID, Content: "original text", Status: models.StatusActive}
	require.NoError(t, comments.Create(ctx, comment))

	reply := &models.Comment{PostID: post.ID, AuthorID: user.ID, ParentID: &comment.ID, Content: "a reply", Status: models.StatusActive}
	require.NoError(t, comments.Create(ctx, reply))

	require.NoError(t, comments.SoftDelete(ctx, comment.ID))

	got, err := comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.True(t, got.Deleted)
	assert.Equal(t, models.TombstoneContent, got.Content)

	// the reply still points at a live row
	gotReply, err := comments.GetByID(ctx, reply.ID)
	require.NoError(t, err)
	require.NotNil(t, gotReply.ParentID)
	assert.Equal(t, comment.ID, *gotReply.ParentID)
}
