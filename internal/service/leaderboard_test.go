package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"community-coin-bot/internal/model"
	"community-coin-bot/internal/pkg/lock"
)

func TestLeaderboardTop(t *testing.T) {
	store := newMemStore()
	userLock := lock.NewUserLock()
	balance := NewBalanceService(store, store, testRewards(), userLock, 0)
	svc := NewLeaderboardService(store, balance, 2)
	ctx := context.Background()

	for _, seed := range []struct {
		id    string
		coins int64
	}{{"U1", 5}, {"U2", 30}, {"U3", 12}} {
		_, err := store.Create(ctx, &model.Request{
			UserID: seed.id, DisplayName: seed.id, Action: "event",
			Status: model.StatusApproved, CoinsGiven: &seed.coins,
		})
		require.NoError(t, err)
		_, err = balance.Reconcile(ctx, seed.id, seed.id)
		require.NoError(t, err)
	}

	standings, err := svc.Top(ctx, "U1", "Alice")
	require.NoError(t, err)

	require.Len(t, standings.Top, 2, "board is capped at topN")
	assert.Equal(t, "U2", standings.Top[0].User.ExternalID)
	assert.Equal(t, 1, standings.Top[0].Rank)
	assert.Equal(t, "U3", standings.Top[1].User.ExternalID)

	assert.Equal(t, 3, standings.Caller.Rank, "caller shown even outside the top")
	assert.Equal(t, int64(5), standings.Caller.User.Coins)
	assert.Equal(t, int64(3), standings.TotalUsers)
}

// The caller's balance is reconciled before the board is built, so a
// stale cached number never reaches the leaderboard.
func TestLeaderboardReconcilesCaller(t *testing.T) {
	store := newMemStore()
	userLock := lock.NewUserLock()
	balance := NewBalanceService(store, store, testRewards(), userLock, 0)
	svc := NewLeaderboardService(store, balance, 10)
	ctx := context.Background()

	_, _, err := store.GetOrCreate(ctx, "U1", "Alice", 0)
	require.NoError(t, err)
	_, err = store.SetCoins(ctx, "U1", 999)
	require.NoError(t, err)

	standings, err := svc.Top(ctx, "U1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), standings.Caller.User.Coins, "no approved history, so the stale 999 is corrected")
}
