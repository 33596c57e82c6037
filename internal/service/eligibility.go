package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"community-coin-bot/internal/catalog"
)

// EligibilityService answers how many more times each capped action may
// be claimed by a user. It is strictly read-only.
type EligibilityService struct {
	requestStore RequestStore
	actions      *catalog.Actions
	timeout      time.Duration
}

// NewEligibilityService creates a new EligibilityService instance.
func NewEligibilityService(requestStore RequestStore, actions *catalog.Actions, timeout time.Duration) *EligibilityService {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &EligibilityService{
		requestStore: requestStore,
		actions:      actions,
		timeout:      timeout,
	}
}

// RemainingClaims returns actionID -> remaining claims for every capped
// action; uncapped actions are omitted (always eligible). A store
// failure must not block users, so the lookup is bounded by a timeout
// and fails open to the full-cap table when it errors out: the unknown
// is treated as "not yet exhausted", never as "denied".
func (s *EligibilityService) RemainingClaims(ctx context.Context, externalID string) map[string]int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	approved, err := s.requestStore.CountApprovedByAction(ctx, externalID)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user_id", externalID).
			Msg("Eligibility lookup failed, falling back to full caps")
		return s.actions.FullCaps()
	}

	remaining := make(map[string]int)
	for _, a := range s.actions.Capped() {
		left := a.MaxClaims - approved[a.ID]
		if left < 0 {
			left = 0
		}
		remaining[a.ID] = left
	}
	return remaining
}

// CanClaim reports whether the user may submit another claim for the
// action. Uncapped actions are always claimable; unknown actions never.
func (s *EligibilityService) CanClaim(ctx context.Context, externalID, actionID string) bool {
	action, ok := s.actions.Get(actionID)
	if !ok {
		return false
	}
	if action.MaxClaims == 0 {
		return true
	}
	return s.RemainingClaims(ctx, externalID)[actionID] > 0
}
