package catalog

// Reward is one purchasable shop entry. Prerequisite, when set, names
// the reward that must already be owned before this one can be bought.
type Reward struct {
	ID           string
	Name         string
	Emoji        string
	Cost         int64
	Prerequisite string
	Description  string
}

// Rewards is an immutable ordered reward catalog (tier order).
type Rewards struct {
	order []Reward
	byID  map[string]Reward
}

// NewRewards builds a catalog from the given entries, preserving order.
func NewRewards(entries []Reward) *Rewards {
	byID := make(map[string]Reward, len(entries))
	order := make([]Reward, 0, len(entries))
	for _, r := range entries {
		if _, dup := byID[r.ID]; dup {
			continue
		}
		byID[r.ID] = r
		order = append(order, r)
	}
	return &Rewards{order: order, byID: byID}
}

// Get returns the reward with the given ID.
func (c *Rewards) Get(id string) (Reward, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// All returns the rewards in tier order.
func (c *Rewards) All() []Reward {
	out := make([]Reward, len(c.order))
	copy(out, c.order)
	return out
}

// CostOf sums the catalog cost of the given owned-reward IDs.
// Unknown IDs (retired rewards) cost zero.
func (c *Rewards) CostOf(ids []string) int64 {
	var total int64
	for _, id := range ids {
		if r, ok := c.byID[id]; ok {
			total += r.Cost
		}
	}
	return total
}

// DefaultRewards returns the production reward tier list.
func DefaultRewards() *Rewards {
	return NewRewards([]Reward{
		{ID: "sticker_pack", Name: "Sticker Pack", Emoji: "🧩", Cost: 5,
			Description: "A pack of community stickers, mailed to you"},
		{ID: "planet", Name: "Planet", Emoji: "🪐", Cost: 10,
			Description: "Your own planet badge on the community board"},
		{ID: "galaxy", Name: "Galaxy", Emoji: "🌌", Cost: 20, Prerequisite: "planet",
			Description: "Upgrade your planet into a whole galaxy"},
		{ID: "nebula", Name: "Nebula", Emoji: "☁️", Cost: 35, Prerequisite: "galaxy",
			Description: "A glowing nebula frame around your name"},
		{ID: "supernova", Name: "Supernova", Emoji: "💥", Cost: 50, Prerequisite: "nebula",
			Description: "The final tier. Bragging rights forever"},
	})
}
