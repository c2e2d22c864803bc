package models

import (
	"time"
)

// Vote target kinds.
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

// Vote values.
const (
	VoteUp   = "up"
	VoteDown = "down"
)

// Vote is one row in the engagement ledger.
// The combination of (UserID, TargetKind, TargetID) must be unique; the
// database constraint is the single arbiter of concurrent votes.
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_votes_user_target" json:"user_id"`
	TargetKind string    `gorm:"not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"target_kind"`
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_votes_user_target;index:idx_votes_target" json:"target_id"`
	Value      string    `gorm:"not null" json:"value"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidVoteValue reports whether v is one of the accepted vote values.
func ValidVoteValue(v string) bool {
	return v == VoteUp || v == VoteDown
}

// ValidTargetKind reports whether k names a votable target kind.
func ValidTargetKind(k string) bool {
	return k == TargetPost || k == TargetComment
}

// VoteOutcome describes the result of recording a vote.
type VoteOutcome string

const (
	// VoteCreated means a new ledger row was inserted.
	VoteCreated VoteOutcome = "created"
	// VoteReplaced means an opposite-value row was atomically replaced.
	VoteReplaced VoteOutcome = "replaced"
	// VoteDuplicate means the actor had already voted this way; the call had
	// no additional effect. This is a non-error outcome.
	VoteDuplicate VoteOutcome = "duplicate"
)
