package notifications

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"agora/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishUser(t *testing.T) {
	// Notifier with nil Redis should return nil error (fail-open/noop)
	n := NewNotifier(nil)
	err := n.PublishUser(context.Background(), 1, "test payload")
	assert.NoError(t, err)
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		userID   uint
		expected string
	}{
		{1, "notifications:user:1"},
		{100, "notifications:user:100"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, UserChannel(tt.userID))
	}
}

func TestNotifier_NotifyCommentCreated(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	sub := rdb.PSubscribe(context.Background(), "notifications:user:*")
	defer func() { _ = sub.Close() }()
	// Wait for the subscription before publishing.
	_, err = sub.Receive(context.Background())
	require.NoError(t, err)
	ch := sub.Channel()

	n := NewNotifier(rdb)
	post := &models.Post{ID: 7, Title: "How do I rebase?"}
	comment := &models.Comment{
		ID:       42,
		PostID:   7,
		AuthorID: 3,
		Author:   models.User{ID: 3, Login: "carol"},
	}

	// Subscriber 3 is the comment author and must be skipped.
	n.NotifyCommentCreated(context.Background(), post, comment, []uint{3, 5})

	select {
	case msg := <-ch:
		assert.Equal(t, "notifications:user:5", msg.Channel)
		var event CommentEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
		assert.Equal(t, "comment.created", event.Type)
		assert.Equal(t, uint(7), event.PostID)
		assert.Equal(t, uint(42), event.CommentID)
		assert.Equal(t, "carol", event.AuthorLogin)
		assert.NotEmpty(t, event.ID)
	case <-time.After(time.Second):
		t.Fatal("expected a published comment event")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected extra message on %s", msg.Channel)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifier_StartPatternSubscriber_StopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var received int32
	payloads := make(chan string, 2)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(_ string, payload string) {
		atomic.AddInt32(&received, 1)
		payloads <- payload
	}))

	// Give the pattern subscription time to establish.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, n.PublishUser(context.Background(), 1, "before-cancel"))
	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&received) >= 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)

	// Drain the pre-cancel message to avoid false positives.
	select {
	case <-payloads:
	default:
	}

	require.NoError(t, n.PublishUser(context.Background(), 1, "after-cancel"))
	assert.Never(t, func() bool {
		select {
		case payload := <-payloads:
			return payload == "after-cancel"
		default:
			return false
		}
	}, 200*time.Millisecond, 10*time.Millisecond)
}
