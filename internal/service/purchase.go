package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/pkg/lock"
)

// Receipt is the confirmation data for a completed purchase.
type Receipt struct {
	Reward      catalog.Reward
	Balance     int64
	OwnedCount  int
	OwnedReward []string
}

// PurchaseService authorizes reward purchases: prerequisite chain,
// duplicate ownership, and balance sufficiency, in that order.
type PurchaseService struct {
	userStore UserStore
	rewards   *catalog.Rewards
	balance   *BalanceService
	userLock  *lock.UserLock
}

// NewPurchaseService creates a new PurchaseService instance.
func NewPurchaseService(
	userStore UserStore,
	rewards *catalog.Rewards,
	balance *BalanceService,
	userLock *lock.UserLock,
) *PurchaseService {
	return &PurchaseService{
		userStore: userStore,
		rewards:   rewards,
		balance:   balance,
		userLock:  userLock,
	}
}

// RewardStatus annotates one catalog reward with the viewing user's
// standing toward it, for shop presentation.
type RewardStatus struct {
	Reward     catalog.Reward
	Owned      bool
	Locked     bool // prerequisite not yet owned
	Affordable bool
}

// Storefront returns the reward tier list annotated for the given user,
// plus their current balance. Unknown users see the catalog as a fresh
// account would: nothing owned, nothing affordable.
func (s *PurchaseService) Storefront(ctx context.Context, externalID string) ([]RewardStatus, int64, error) {
	var owned []string
	var balance int64

	user, err := s.userStore.GetByID(ctx, externalID)
	if err == nil {
		owned = user.OwnedRewards
		balance = user.Coins
	}

	ownedSet := make(map[string]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}

	var statuses []RewardStatus
	for _, reward := range s.rewards.All() {
		statuses = append(statuses, RewardStatus{
			Reward:     reward,
			Owned:      ownedSet[reward.ID],
			Locked:     reward.Prerequisite != "" && !ownedSet[reward.Prerequisite],
			Affordable: balance >= reward.Cost,
		})
	}
	return statuses, balance, nil
}

// Purchase validates and executes a reward purchase. Checks run in a
// fixed order and the first failure wins, so the user always sees the
// most actionable rejection: unknown reward, missing prerequisite,
// duplicate ownership, then insufficient funds. On success the cost is
// debited and the reward appended as two store writes under the user's
// lock; the writes are not a transaction (see the store model), the
// lock only serializes same-user attempts.
func (s *PurchaseService) Purchase(ctx context.Context, externalID, rewardID string) (*Receipt, error) {
	reward, ok := s.rewards.Get(rewardID)
	if !ok {
		return nil, ErrUnknownReward
	}

	s.userLock.Lock(externalID)
	defer s.userLock.Unlock(externalID)

	user, err := s.userStore.GetByID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if reward.Prerequisite != "" && !user.OwnsReward(reward.Prerequisite) {
		return nil, ErrPrerequisiteMissing
	}
	if user.OwnsReward(reward.ID) {
		return nil, ErrAlreadyOwned
	}
	if user.Coins < reward.Cost {
		return nil, ErrInsufficientFunds
	}

	newBalance, err := s.balance.debitLocked(ctx, externalID, reward.Cost)
	if err != nil {
		return nil, err
	}

	if err := s.userStore.AppendOwnedReward(ctx, externalID, reward.ID); err != nil {
		// Debit landed but the grant did not. Reconciliation cannot see
		// rewards that were never appended, so surface loudly for an
		// operator instead of pretending the purchase completed.
		log.Error().
			Err(err).
			Str("user_id", externalID).
			Str("reward", reward.ID).
			Msg("Debit succeeded but reward grant failed")
		return nil, fmt.Errorf("failed to grant reward: %w", err)
	}

	owned := append(append([]string{}, user.OwnedRewards...), reward.ID)

	log.Info().
		Str("user_id", externalID).
		Str("reward", reward.ID).
		Int64("cost", reward.Cost).
		Int64("balance", newBalance).
		Msg("Reward purchased")

	return &Receipt{
		Reward:      reward,
		Balance:     newBalance,
		OwnedCount:  len(owned),
		OwnedReward: owned,
	}, nil
}
