package service

import (
	"context"
	"fmt"

	"community-coin-bot/internal/model"
)

// Standings is a leaderboard snapshot: the top entries plus the
// caller's own position, which may fall outside the top.
type Standings struct {
	Top        []model.RankedUser
	Caller     model.RankedUser
	TotalUsers int64
}

// LeaderboardService builds coin leaderboards. The caller's balance is
// reconciled first so the board never shows them a stale number.
type LeaderboardService struct {
	userStore UserStore
	balance   *BalanceService
	topN      int
}

// NewLeaderboardService creates a new LeaderboardService instance.
func NewLeaderboardService(userStore UserStore, balance *BalanceService, topN int) *LeaderboardService {
	if topN <= 0 {
		topN = 10
	}
	return &LeaderboardService{
		userStore: userStore,
		balance:   balance,
		topN:      topN,
	}
}

// Top reconciles the caller's balance and returns the top N users by
// coins along with the caller's rank.
func (s *LeaderboardService) Top(ctx context.Context, callerID, callerName string) (*Standings, error) {
	if _, err := s.balance.Reconcile(ctx, callerID, callerName); err != nil {
		return nil, fmt.Errorf("failed to reconcile caller: %w", err)
	}

	top, err := s.userStore.TopByCoins(ctx, s.topN)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	standings := &Standings{}
	for i, u := range top {
		standings.Top = append(standings.Top, model.RankedUser{Rank: i + 1, User: u})
	}

	rank, err := s.userStore.Rank(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get caller rank: %w", err)
	}
	caller, err := s.userStore.GetByID(ctx, callerID)
	if err != nil {
		return nil, err
	}
	standings.Caller = model.RankedUser{Rank: rank, User: caller}

	standings.TotalUsers, err = s.userStore.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	return standings, nil
}
