// Package handler provides chat command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/service"
)

// Callback data prefixes.
const (
	CallbackCollect = "collect:" // collect:<action_id>
	CallbackStray   = "stray_claim"
)

// CollectHandler handles the claim-submission flow.
type CollectHandler struct {
	actions     *catalog.Actions
	lifecycle   *service.LifecycleService
	eligibility *service.EligibilityService
}

// NewCollectHandler creates a new CollectHandler.
func NewCollectHandler(
	actions *catalog.Actions,
	lifecycle *service.LifecycleService,
	eligibility *service.EligibilityService,
) *CollectHandler {
	return &CollectHandler{
		actions:     actions,
		lifecycle:   lifecycle,
		eligibility: eligibility,
	}
}

// externalID converts a platform sender into the core's string ID.
func externalID(sender *tele.User) string {
	return strconv.FormatInt(sender.ID, 10)
}

// displayName picks the best-effort human label for a sender.
func displayName(sender *tele.User) string {
	if sender.Username != "" {
		return sender.Username
	}
	return strings.TrimSpace(sender.FirstName + " " + sender.LastName)
}

// messageLink builds a permalink to the message a command was issued
// from, used as the claim's proof link. Best effort: private chats have
// no public permalink and yield an empty string.
func messageLink(msg *tele.Message) string {
	if msg == nil || msg.Chat == nil {
		return ""
	}
	if msg.Chat.Username != "" {
		return fmt.Sprintf("https://t.me/%s/%d", msg.Chat.Username, msg.ID)
	}
	if msg.Chat.Type == tele.ChatSuperGroup || msg.Chat.Type == tele.ChatChannel {
		// internal chat IDs carry a -100 prefix that the t.me/c form drops
		id := strconv.FormatInt(msg.Chat.ID, 10)
		id = strings.TrimPrefix(id, "-100")
		return fmt.Sprintf("https://t.me/c/%s/%d", id, msg.ID)
	}
	return ""
}

// HandleCollect handles /collect: shows the action menu with each
// action's value and the caller's remaining cap.
func (h *CollectHandler) HandleCollect(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	remaining := h.eligibility.RemainingClaims(context.Background(), externalID(sender))

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, action := range h.actions.All() {
		label := action.Emoji + " " + action.Label
		if action.HasFixedCoins() {
			label += fmt.Sprintf(" (%d🪙)", action.Coins)
		} else {
			label += " (reviewer decides)"
		}
		if action.MaxClaims > 0 {
			label += fmt.Sprintf(" [%d left]", remaining[action.ID])
		}
		rows = append(rows, markup.Row(markup.Data(label, CallbackCollect+action.ID)))
	}
	markup.Inline(rows...)

	msg := "🪙 Collect Coins\n" +
		"━━━━━━━━━━━━━━━\n" +
		"What did you do? Pick an action below.\n" +
		"A reviewer will approve your claim before coins land."
	return c.Reply(msg, markup)
}

// HandleCollectCallback handles an action selection: submits the claim
// and confirms, or explains why the cap blocks it.
func (h *CollectHandler) HandleCollectCallback(c tele.Context) error {
	ctx := context.Background()
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	actionID := strings.TrimPrefix(strings.TrimPrefix(callback.Data, "\f"), CallbackCollect)
	action, ok := h.actions.Get(actionID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown action", ShowAlert: true})
	}

	userID := externalID(sender)
	req, err := h.lifecycle.SubmitRequest(ctx, userID, displayName(sender), actionID, messageLink(callback.Message), "")
	if err != nil {
		if errors.Is(err, service.ErrActionCapReached) {
			remaining := h.eligibility.RemainingClaims(ctx, userID)
			return c.Respond(&tele.CallbackResponse{
				Text: fmt.Sprintf("❌ Cap reached for %q — %d claims left (max %d approved).",
					action.Label, remaining[actionID], action.MaxClaims),
				ShowAlert: true,
			})
		}
		log.Error().Err(err).Str("user_id", userID).Str("action", actionID).Msg("Claim submission failed")
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ Something went wrong, please try again later",
			ShowAlert: true,
		})
	}

	// Confirmation is best-effort: the request is already stored.
	c.Respond(&tele.CallbackResponse{Text: "✅ Claim submitted!"})
	return c.Send(fmt.Sprintf(
		"✅ Got it! Your *%s* coin request is submitted and awaiting review.\n"+
			"📎 Reference: `%s`",
		action.Label, req.Reference,
	), tele.ModeMarkdown)
}

// HandleStrayCallback handles the stray-coin claim button.
func (h *CollectHandler) HandleStrayCallback(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	userID := externalID(sender)
	balance, err := h.lifecycle.ClaimStray(ctx, userID, displayName(sender))
	if err != nil {
		if errors.Is(err, service.ErrStrayAlreadyClaimed) {
			return c.Respond(&tele.CallbackResponse{
				Text:      "❌ You already picked up a stray coin recently. Come back later!",
				ShowAlert: true,
			})
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Stray claim failed")
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ Something went wrong, please try again later",
			ShowAlert: true,
		})
	}

	return c.Respond(&tele.CallbackResponse{
		Text: fmt.Sprintf("🪙 Stray coin claimed! Balance: %d", balance),
	})
}
