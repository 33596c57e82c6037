// Package model defines the data models for the community coin bot.
package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a community member's coin account.
// ExternalID is the stable chat-platform identifier and the primary key.
// Coins is the cached authoritative balance; it must always be derivable
// from the approved-request log minus the cost of owned rewards.
type User struct {
	ExternalID   string    `db:"external_id"`
	DisplayName  string    `db:"display_name"`
	Coins        int64     `db:"coins"`
	OwnedRewards []string  `db:"owned_rewards"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// OwnsReward reports whether the user already owns the given reward.
func (u *User) OwnsReward(rewardID string) bool {
	for _, r := range u.OwnedRewards {
		if r == rewardID {
			return true
		}
	}
	return false
}

// RequestStatus is the review state of a coin request.
// Status is set by an external reviewer, never by this system.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusDeclined RequestStatus = "Declined"
)

// Request is one user's claim to have performed an action.
// CoinsGiven is nil for variable-value actions until a reviewer fills it in.
// Processed guards against applying the same request to a balance twice.
type Request struct {
	ID          int64         `db:"id"`
	Reference   uuid.UUID     `db:"reference"`
	UserID      string        `db:"user_id"`
	DisplayName string        `db:"display_name"`
	Action      string        `db:"action"`
	Status      RequestStatus `db:"status"`
	CoinsGiven  *int64        `db:"coins_given"`
	Processed   bool          `db:"processed"`
	ProofLink   string        `db:"proof_link"`
	Note        string        `db:"note"`
	SubmittedAt time.Time     `db:"submitted_at"`
}

// RankedUser pairs a user with their leaderboard position.
type RankedUser struct {
	Rank int
	User *User
}
