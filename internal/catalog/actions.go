// Package catalog holds the static action and reward configuration.
// Catalogs are built once at startup and passed explicitly to the
// services that need them, so tests can run with alternate tables.
package catalog

// VariableCoins marks an action whose value is assigned by a reviewer
// at approval time instead of being fixed at submission.
const VariableCoins = -1

// Action is one recognized activity a user can claim coins for.
// Coins is the fixed grant, or VariableCoins for reviewer-decided actions.
// MaxClaims caps how many Approved requests one user may accumulate
// for this action; 0 means unlimited.
type Action struct {
	ID        string
	Label     string
	Emoji     string
	Coins     int64
	MaxClaims int
}

// HasFixedCoins reports whether the action's value is known at submission.
func (a Action) HasFixedCoins() bool {
	return a.Coins != VariableCoins
}

// Actions is an immutable ordered action catalog.
type Actions struct {
	order []Action
	byID  map[string]Action
}

// NewActions builds a catalog from the given entries, preserving order.
func NewActions(entries []Action) *Actions {
	byID := make(map[string]Action, len(entries))
	order := make([]Action, 0, len(entries))
	for _, a := range entries {
		if _, dup := byID[a.ID]; dup {
			continue
		}
		byID[a.ID] = a
		order = append(order, a)
	}
	return &Actions{order: order, byID: byID}
}

// Get returns the action with the given ID.
func (c *Actions) Get(id string) (Action, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// All returns the actions in display order.
func (c *Actions) All() []Action {
	out := make([]Action, len(c.order))
	copy(out, c.order)
	return out
}

// Capped returns only the actions that carry a claim cap.
func (c *Actions) Capped() []Action {
	var out []Action
	for _, a := range c.order {
		if a.MaxClaims > 0 {
			out = append(out, a)
		}
	}
	return out
}

// FullCaps returns the remaining-claims table assuming no approved
// history, i.e. every capped action at its full cap. Used as the
// fail-open fallback when the store is unavailable.
func (c *Actions) FullCaps() map[string]int {
	caps := make(map[string]int)
	for _, a := range c.order {
		if a.MaxClaims > 0 {
			caps[a.ID] = a.MaxClaims
		}
	}
	return caps
}

// DefaultActions returns the production action catalog.
func DefaultActions() *Actions {
	return NewActions([]Action{
		{ID: "comment", Label: "Comment on another game", Emoji: "💬", Coins: 1},
		{ID: "help", Label: "Help someone fix a problem", Emoji: "🛠️", Coins: VariableCoins},
		{ID: "post_idea", Label: "Post your game idea", Emoji: "💡", Coins: 3, MaxClaims: 1},
		{ID: "event", Label: "Attend an event", Emoji: "📅", Coins: 3},
		{ID: "update", Label: "Post a progress update", Emoji: "📈", Coins: 3},
		{ID: "suggest", Label: "Suggest a new coin idea", Emoji: "🪙", Coins: 4, MaxClaims: 3},
		{ID: "share", Label: "Tell a friend & post it", Emoji: "📣", Coins: 5, MaxClaims: 2},
		{ID: "host", Label: "Host a workshop", Emoji: "🎓", Coins: 7, MaxClaims: 3},
		{ID: "sticker", Label: "Draw a sticker & get it in prizes", Emoji: "🎨", Coins: 7, MaxClaims: 1},
		{ID: "poster", Label: "Post Jumpstart poster pic", Emoji: "🖼️", Coins: 10, MaxClaims: 1},
		{ID: "record", Label: "Record game explanation (face+voice)", Emoji: "🎥", Coins: 10, MaxClaims: 1},
		{ID: "assets", Label: "Draw/make all assets", Emoji: "✏️", Coins: 20, MaxClaims: 1},
		{ID: "pr", Label: "Open PR & do a task", Emoji: "🔀", Coins: VariableCoins},
		{ID: "meetup", Label: "Meetup w/ Jumpstarter IRL", Emoji: "🤝", Coins: 30, MaxClaims: 1},
	})
}

// StrayAction is the reserved action ID used to record stray-coin
// button claims in the request log.
const StrayAction = "stray"
