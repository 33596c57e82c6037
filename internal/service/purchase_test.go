package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/pkg/lock"
	"community-coin-bot/internal/repository"
)

func newPurchaseFixture(rewards *catalog.Rewards) (*memStore, *PurchaseService, *BalanceService) {
	store := newMemStore()
	userLock := lock.NewUserLock()
	balance := NewBalanceService(store, store, rewards, userLock, 0)
	return store, NewPurchaseService(store, rewards, balance, userLock), balance
}

func TestPurchaseUnknownReward(t *testing.T) {
	_, svc, _ := newPurchaseFixture(testRewards())

	_, err := svc.Purchase(context.Background(), "U1", "moon")
	assert.ErrorIs(t, err, ErrUnknownReward)
}

// TestPurchasePrerequisiteChain covers the tier gate: a user with
// plenty of coins still cannot buy Galaxy before owning Planet.
func TestPurchasePrerequisiteChain(t *testing.T) {
	_, svc, balance := newPurchaseFixture(testRewards())
	ctx := context.Background()

	_, err := balance.Credit(ctx, "U1", "Alice", 100)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, "U1", "galaxy")
	assert.ErrorIs(t, err, ErrPrerequisiteMissing)

	got, err := balance.Balance(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got, "rejected purchase must not debit")

	receipt, err := svc.Purchase(ctx, "U1", "planet")
	require.NoError(t, err)
	assert.Equal(t, int64(90), receipt.Balance)

	receipt, err = svc.Purchase(ctx, "U1", "galaxy")
	require.NoError(t, err)
	assert.Equal(t, int64(70), receipt.Balance)
	assert.Equal(t, []string{"planet", "galaxy"}, receipt.OwnedReward)
}

func TestPurchaseAlreadyOwned(t *testing.T) {
	_, svc, balance := newPurchaseFixture(testRewards())
	ctx := context.Background()

	_, err := balance.Credit(ctx, "U1", "Alice", 25)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, "U1", "planet")
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, "U1", "planet")
	assert.ErrorIs(t, err, ErrAlreadyOwned)

	got, err := balance.Balance(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), got, "duplicate purchase must not debit again")
}

func TestPurchaseUnknownUser(t *testing.T) {
	_, svc, _ := newPurchaseFixture(testRewards())

	_, err := svc.Purchase(context.Background(), "nobody", "planet")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestPurchaseInsufficientFunds(t *testing.T) {
	_, svc, balance := newPurchaseFixture(testRewards())
	ctx := context.Background()

	_, err := balance.Credit(ctx, "U1", "Alice", 9)
	require.NoError(t, err)

	_, err = svc.Purchase(ctx, "U1", "planet")
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

// Prerequisite outranks ownership and funds in the rejection order, so
// the user is told the most actionable reason first.
func TestPurchaseValidationOrder(t *testing.T) {
	store, svc, _ := newPurchaseFixture(testRewards())
	ctx := context.Background()

	// Broke AND missing the prerequisite: prerequisite wins.
	_, _, err := store.GetOrCreate(ctx, "U1", "Alice", 0)
	require.NoError(t, err)
	_, err = svc.Purchase(ctx, "U1", "galaxy")
	assert.ErrorIs(t, err, ErrPrerequisiteMissing)
}

func TestStorefrontAnnotations(t *testing.T) {
	store, svc, balance := newPurchaseFixture(testRewards())
	ctx := context.Background()

	_, err := balance.Credit(ctx, "U1", "Alice", 15)
	require.NoError(t, err)
	require.NoError(t, store.AppendOwnedReward(ctx, "U1", "planet"))

	statuses, coins, err := svc.Storefront(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, int64(15), coins)
	require.Len(t, statuses, 2)

	planet, galaxy := statuses[0], statuses[1]
	assert.True(t, planet.Owned)
	assert.False(t, galaxy.Owned)
	assert.False(t, galaxy.Locked, "prerequisite satisfied")
	assert.False(t, galaxy.Affordable, "15 < 20")
}

func TestStorefrontUnknownUser(t *testing.T) {
	_, svc, _ := newPurchaseFixture(testRewards())

	statuses, coins, err := svc.Storefront(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), coins)
	for _, s := range statuses {
		assert.False(t, s.Owned)
		assert.False(t, s.Affordable)
	}
}

// TestPurchaseSequenceProperty fires random purchase attempts at the
// full tier ladder and checks the invariants that must hold under any
// interleaving: the balance never goes negative, owned rewards stay
// duplicate-free, and ownership always satisfies the prerequisite
// chain.
func TestPurchaseSequenceProperty(t *testing.T) {
	rewards := catalog.DefaultRewards()
	tiers := rewards.All()

	rapid.Check(t, func(rt *rapid.T) {
		store, svc, balance := newPurchaseFixture(rewards)
		ctx := context.Background()

		funds := rapid.Int64Range(0, 200).Draw(rt, "funds")
		if _, err := balance.Credit(ctx, "U1", "Alice", funds); err != nil {
			rt.Fatalf("failed to fund user: %v", err)
		}

		numAttempts := rapid.IntRange(1, 30).Draw(rt, "numAttempts")
		for i := 0; i < numAttempts; i++ {
			idx := rapid.IntRange(0, len(tiers)-1).Draw(rt, "tier")
			_, err := svc.Purchase(ctx, "U1", tiers[idx].ID)
			switch err {
			case nil, ErrPrerequisiteMissing, ErrAlreadyOwned, ErrInsufficientFunds:
			default:
				rt.Fatalf("unexpected purchase error: %v", err)
			}
		}

		user, err := store.GetByID(ctx, "U1")
		if err != nil {
			rt.Fatalf("failed to load user: %v", err)
		}

		if user.Coins < 0 {
			rt.Fatalf("balance went negative: %d", user.Coins)
		}
		if user.Coins != funds-rewards.CostOf(user.OwnedRewards) {
			rt.Fatalf("balance %d does not match funds %d minus owned cost %d",
				user.Coins, funds, rewards.CostOf(user.OwnedRewards))
		}

		seen := make(map[string]bool)
		for _, id := range user.OwnedRewards {
			if seen[id] {
				rt.Fatalf("reward %q owned twice", id)
			}
			seen[id] = true
		}
		for _, id := range user.OwnedRewards {
			r, ok := rewards.Get(id)
			if !ok {
				rt.Fatalf("unknown owned reward %q", id)
			}
			if r.Prerequisite != "" && !seen[r.Prerequisite] {
				rt.Fatalf("reward %q owned without prerequisite %q", id, r.Prerequisite)
			}
		}
	})
}
