package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"community-coin-bot/internal/config"
	"community-coin-bot/internal/service"
)

// AdminHandler handles admin-only commands. Access is enforced by the
// admin middleware; these handlers assume the sender is trusted.
type AdminHandler struct {
	cfg        *config.Config
	reconciler *service.Reconciler
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg *config.Config, reconciler *service.Reconciler) *AdminHandler {
	return &AdminHandler{
		cfg:        cfg,
		reconciler: reconciler,
	}
}

// HandleUpdateCoins handles /update_coins: runs one reconciliation pass
// and reports the counts.
func (h *AdminHandler) HandleUpdateCoins(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	outcome, err := h.reconciler.Run(context.Background())
	if err != nil {
		if err == service.ErrReconcileBusy {
			return c.Reply("⏳ A reconciliation pass is already running, try again in a moment")
		}
		log.Error().Err(err).Int64("admin_id", sender.ID).Msg("Manual reconciliation failed")
		return c.Reply("❌ Reconciliation failed, check the logs")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int("approved", outcome.Approved.Processed).
		Int("declined", outcome.Declined.Processed).
		Str("operation", "update_coins").
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Coins updated\n\n"+
			"➕ Approved processed: %d (%d coins granted)\n"+
			"⏭️ Skipped (awaiting value): %d\n"+
			"➖ Declined closed: %d\n"+
			"⚠️ Failed: %d",
		outcome.Approved.Processed,
		outcome.Approved.CoinsGranted,
		outcome.Approved.Skipped,
		outcome.Declined.Processed,
		outcome.Approved.Failed+outcome.Declined.Failed,
	))
}

// HandleAnnounce handles /announce <text>: broadcasts to the configured
// announcement chat.
func (h *AdminHandler) HandleAnnounce(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	text := strings.TrimSpace(strings.Join(c.Args(), " "))
	if text == "" {
		return c.Reply("❌ Usage: /announce <text>")
	}
	if h.cfg.Bot.AnnounceChatID == 0 {
		return c.Reply("❌ No announcement chat configured")
	}

	if _, err := c.Bot().Send(tele.ChatID(h.cfg.Bot.AnnounceChatID), "📢 "+text); err != nil {
		log.Error().Err(err).Int64("admin_id", sender.ID).Msg("Announcement failed")
		return c.Reply("❌ Failed to send the announcement")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Str("operation", "announce").
		Msg("Admin operation executed")

	return c.Reply("✅ Announcement sent")
}
