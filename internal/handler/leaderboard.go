package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"community-coin-bot/internal/service"
)

// LeaderboardHandler handles the /leaderboard command.
type LeaderboardHandler struct {
	leaderboard *service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboard *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// HandleLeaderboard reconciles the caller's balance and shows the top
// collectors plus the caller's own rank.
func (h *LeaderboardHandler) HandleLeaderboard(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	userID := externalID(sender)
	standings, err := h.leaderboard.Top(context.Background(), userID, displayName(sender))
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Leaderboard query failed")
		return c.Reply("❌ Something went wrong, please try again later")
	}

	msg := "🏆 Coin Leaderboard\n"
	msg += "━━━━━━━━━━━━━━━\n"
	medals := []string{"🥇", "🥈", "🥉"}
	for _, entry := range standings.Top {
		prefix := fmt.Sprintf("%2d.", entry.Rank)
		if entry.Rank <= len(medals) {
			prefix = medals[entry.Rank-1]
		}
		msg += fmt.Sprintf("%s %s — %d🪙\n", prefix, entry.User.DisplayName, entry.User.Coins)
	}
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("You: #%d of %d with %d🪙", standings.Caller.Rank, standings.TotalUsers, standings.Caller.User.Coins)

	return c.Reply(msg)
}
