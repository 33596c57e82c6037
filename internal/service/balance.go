package service

import (
	"context"
	"errors"
	"fmt"

	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/pkg/lock"
	"community-coin-bot/internal/repository"
)

// BalanceService is the balance engine: it owns every coin mutation and
// the full-recompute reconciliation path.
type BalanceService struct {
	userStore    UserStore
	requestStore RequestStore
	rewards      *catalog.Rewards
	userLock     *lock.UserLock
	seedCoins    int64
}

// NewBalanceService creates a new BalanceService instance.
func NewBalanceService(
	userStore UserStore,
	requestStore RequestStore,
	rewards *catalog.Rewards,
	userLock *lock.UserLock,
	seedCoins int64,
) *BalanceService {
	return &BalanceService{
		userStore:    userStore,
		requestStore: requestStore,
		rewards:      rewards,
		userLock:     userLock,
		seedCoins:    seedCoins,
	}
}

// Reconcile recomputes a user's balance from its sources of truth: the
// sum of coins_given over Approved requests minus the catalog cost of
// owned rewards. Because it full-recomputes instead of incrementing, it
// never double counts and is safe to run at any time. The user record
// is created first if absent. Returns the reconciled balance.
func (s *BalanceService) Reconcile(ctx context.Context, externalID, displayName string) (int64, error) {
	s.userLock.Lock(externalID)
	defer s.userLock.Unlock(externalID)

	user, _, err := s.userStore.GetOrCreate(ctx, externalID, displayName, s.seedCoins)
	if err != nil {
		return 0, fmt.Errorf("failed to load user for reconcile: %w", err)
	}

	granted, err := s.requestStore.SumApprovedCoins(ctx, externalID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum approved coins: %w", err)
	}

	balance := granted - s.rewards.CostOf(user.OwnedRewards)
	if balance < 0 {
		balance = 0
	}

	if balance == user.Coins {
		return balance, nil
	}

	if _, err := s.userStore.SetCoins(ctx, externalID, balance); err != nil {
		return 0, fmt.Errorf("failed to write reconciled balance: %w", err)
	}
	return balance, nil
}

// Credit adds amount to a user's balance, creating the record with the
// configured seed on first contact.
func (s *BalanceService) Credit(ctx context.Context, externalID, displayName string, amount int64) (int64, error) {
	s.userLock.Lock(externalID)
	defer s.userLock.Unlock(externalID)
	return s.creditLocked(ctx, externalID, displayName, amount)
}

// creditLocked is Credit without lock acquisition, for callers that
// already hold the user's lock.
func (s *BalanceService) creditLocked(ctx context.Context, externalID, displayName string, amount int64) (int64, error) {
	if _, _, err := s.userStore.GetOrCreate(ctx, externalID, displayName, s.seedCoins); err != nil {
		return 0, fmt.Errorf("failed to ensure user for credit: %w", err)
	}

	user, err := s.userStore.AddCoins(ctx, externalID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to credit coins: %w", err)
	}
	return user.Coins, nil
}

// Debit subtracts amount from a user's balance. The store-level guard
// makes the check-and-subtract atomic; ErrInsufficientFunds leaves the
// balance unchanged.
func (s *BalanceService) Debit(ctx context.Context, externalID string, amount int64) (int64, error) {
	s.userLock.Lock(externalID)
	defer s.userLock.Unlock(externalID)
	return s.debitLocked(ctx, externalID, amount)
}

func (s *BalanceService) debitLocked(ctx context.Context, externalID string, amount int64) (int64, error) {
	user, err := s.userStore.DebitCoins(ctx, externalID, amount)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("failed to debit coins: %w", err)
	}
	return user.Coins, nil
}

// Balance returns a user's current cached balance.
func (s *BalanceService) Balance(ctx context.Context, externalID string) (int64, error) {
	user, err := s.userStore.GetByID(ctx, externalID)
	if err != nil {
		return 0, err
	}
	return user.Coins, nil
}
