// Package notifications delivers new-comment events to post subscribers over
// Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"agora/internal/models"
	"agora/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CommentEvent is the payload published to each subscriber's channel when a
// new comment lands on a post they follow.
type CommentEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	PostID      uint      `json:"post_id"`
	PostTitle   string    `json:"post_title"`
	CommentID   uint      `json:"comment_id"`
	AuthorID    uint      `json:"author_id"`
	AuthorLogin string    `json:"author_login"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notifier publishes notification payloads into per-user Redis channels.
// A nil client makes every method a no-op so tests and single-node setups
// work without Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// NotifyCommentCreated fans a new-comment event out to every subscriber of
// the post except the comment's own author. Delivery is best-effort: publish
// failures are logged and dropped.
func (n *Notifier) NotifyCommentCreated(
	ctx context.Context, post *models.Post, comment *models.Comment, subscriberIDs []uint,
) {
	if n.rdb == nil || len(subscriberIDs) == 0 {
		return
	}

	event := CommentEvent{
		ID:          uuid.NewString(),
		Type:        "comment.created",
		PostID:      post.ID,
		PostTitle:   post.Title,
		CommentID:   comment.ID,
		AuthorID:    comment.AuthorID,
		AuthorLogin: comment.Author.Login,
		CreatedAt:   comment.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		observability.GlobalLogger.ErrorContext(ctx, "failed to marshal comment event",
			slog.String("error", err.Error()),
		)
		return
	}

	for _, userID := range subscriberIDs {
		if userID == comment.AuthorID {
			continue
		}
		if err := n.PublishUser(ctx, userID, string(payload)); err != nil {
			observability.GlobalLogger.ErrorContext(ctx, "failed to publish comment event",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()),
			)
		}
	}
}

// PublishUser sends a notification payload to a user's channel.
func (n *Notifier) PublishUser(
	ctx context.Context, userID uint, payload string,
) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// PublishBroadcast sends a notification payload to all connected users.
func (n *Notifier) PublishBroadcast(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, "notifications:broadcast", payload).Err()
}

// StartPatternSubscriber subscribes to pattern `notifications:user:*` and calls onMessage
// for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "notifications:user:*", "notifications:broadcast")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.GlobalLogger.Error("panic in pattern subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return "notifications:user:" + strconv.FormatUint(uint64(userID), 10)
}
