package handler

import (
	tele "gopkg.in/telebot.v3"
)

// HelpHandler handles the static /what help display.
type HelpHandler struct{}

// NewHelpHandler creates a new HelpHandler.
func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

// HandleWhat handles /what: static help text plus the stray-coin
// claim button.
func (h *HelpHandler) HandleWhat(c tele.Context) error {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🪙 Claim a stray coin", CallbackStray)))

	msg := "🪙 What is this?\n" +
		"━━━━━━━━━━━━━━━\n" +
		"Do stuff for the community, claim coins, spend them on rewards.\n\n" +
		"• /collect — claim coins for something you did\n" +
		"• /shop — spend coins on rewards\n" +
		"• /leaderboard — see who's collected the most\n\n" +
		"Claims are reviewed by a human before coins land.\n" +
		"Found a stray coin on the floor? Grab it below."

	return c.Reply(msg, markup)
}
