package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionsLookupAndOrder(t *testing.T) {
	actions := NewActions([]Action{
		{ID: "b", Label: "B", Coins: 2},
		{ID: "a", Label: "A", Coins: 1, MaxClaims: 3},
		{ID: "b", Label: "B duplicate", Coins: 9},
	})

	all := actions.All()
	require.Len(t, all, 2, "duplicate IDs are dropped")
	assert.Equal(t, "b", all[0].ID, "insertion order preserved")
	assert.Equal(t, "B", all[0].Label, "first entry wins")

	a, ok := actions.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), a.Coins)

	_, ok = actions.Get("missing")
	assert.False(t, ok)
}

func TestActionsCappedAndFullCaps(t *testing.T) {
	actions := NewActions([]Action{
		{ID: "free", Coins: 1},
		{ID: "once", Coins: 10, MaxClaims: 1},
		{ID: "thrice", Coins: 4, MaxClaims: 3},
	})

	capped := actions.Capped()
	require.Len(t, capped, 2)
	assert.Equal(t, "once", capped[0].ID)

	assert.Equal(t, map[string]int{"once": 1, "thrice": 3}, actions.FullCaps())
}

func TestHasFixedCoins(t *testing.T) {
	assert.True(t, Action{Coins: 3}.HasFixedCoins())
	assert.True(t, Action{Coins: 0}.HasFixedCoins())
	assert.False(t, Action{Coins: VariableCoins}.HasFixedCoins())
}

func TestDefaultActionsWellFormed(t *testing.T) {
	actions := DefaultActions()

	for _, a := range actions.All() {
		assert.NotEmpty(t, a.ID)
		assert.NotEmpty(t, a.Label)
		if a.Coins != VariableCoins {
			assert.Positive(t, a.Coins, "action %q", a.ID)
		}
		assert.GreaterOrEqual(t, a.MaxClaims, 0, "action %q", a.ID)
	}

	// The reserved stray ID must never collide with a claimable action.
	_, ok := actions.Get(StrayAction)
	assert.False(t, ok)
}

func TestRewardsCostOf(t *testing.T) {
	rewards := NewRewards([]Reward{
		{ID: "planet", Cost: 10},
		{ID: "galaxy", Cost: 20, Prerequisite: "planet"},
	})

	assert.Equal(t, int64(0), rewards.CostOf(nil))
	assert.Equal(t, int64(30), rewards.CostOf([]string{"planet", "galaxy"}))
	assert.Equal(t, int64(10), rewards.CostOf([]string{"planet", "retired_reward"}), "unknown IDs cost zero")
}

func TestDefaultRewardsChainIsClosed(t *testing.T) {
	rewards := DefaultRewards()

	for _, r := range rewards.All() {
		assert.Positive(t, r.Cost, "reward %q", r.ID)
		if r.Prerequisite == "" {
			continue
		}
		prereq, ok := rewards.Get(r.Prerequisite)
		require.True(t, ok, "reward %q requires unknown %q", r.ID, r.Prerequisite)
		assert.Less(t, prereq.Cost, r.Cost, "tiers cost more as they climb")
	}
}
