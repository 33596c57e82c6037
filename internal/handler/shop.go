package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/repository"
	"community-coin-bot/internal/service"
)

// Shop callback data prefixes.
const (
	CallbackShopItem = "shop_item:" // shop_item:<reward_id>
	CallbackShopBuy  = "shop_buy:"  // shop_buy:<reward_id>
	CallbackShopBack = "shop_back"
)

// ShopHandler handles the reward-shop flow.
type ShopHandler struct {
	rewards  *catalog.Rewards
	purchase *service.PurchaseService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(rewards *catalog.Rewards, purchase *service.PurchaseService) *ShopHandler {
	return &ShopHandler{
		rewards:  rewards,
		purchase: purchase,
	}
}

// HandleShop handles /shop: the reward panel annotated with the
// caller's standing toward each tier.
func (h *ShopHandler) HandleShop(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	msg, markup, err := h.buildShopPanel(context.Background(), externalID(sender))
	if err != nil {
		return c.Reply("❌ Something went wrong, please try again later")
	}
	return c.Reply(msg, markup)
}

// buildShopPanel renders the storefront message and keyboard.
func (h *ShopHandler) buildShopPanel(ctx context.Context, userID string) (string, *tele.ReplyMarkup, error) {
	statuses, balance, err := h.purchase.Storefront(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	msg := "🏪 Reward Shop\n" +
		"━━━━━━━━━━━━━━━\n" +
		fmt.Sprintf("💰 Your balance: %d coins\n", balance) +
		"━━━━━━━━━━━━━━━\n"

	for _, st := range statuses {
		r := st.Reward
		switch {
		case st.Owned:
			msg += fmt.Sprintf("✅ %s %s — owned\n", r.Emoji, r.Name)
		case st.Locked:
			prereq, _ := h.rewards.Get(r.Prerequisite)
			msg += fmt.Sprintf("🔒 %s %s (%d🪙) — needs %s first\n", r.Emoji, r.Name, r.Cost, prereq.Name)
		default:
			msg += fmt.Sprintf("%s %s (%d🪙)\n", r.Emoji, r.Name, r.Cost)
			rows = append(rows, markup.Row(markup.Data(
				fmt.Sprintf("%s %s (%d🪙)", r.Emoji, r.Name, r.Cost),
				CallbackShopItem+r.ID,
			)))
		}
	}
	msg += "━━━━━━━━━━━━━━━\nTap a reward to see details."

	markup.Inline(rows...)
	return msg, markup, nil
}

// HandleShopCallback routes shop button presses.
func (h *ShopHandler) HandleShopCallback(c tele.Context) error {
	ctx := context.Background()
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")
	userID := externalID(sender)

	if data == CallbackShopBack {
		msg, markup, err := h.buildShopPanel(ctx, userID)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "❌ Shop unavailable", ShowAlert: true})
		}
		return c.Edit(msg, markup)
	}

	if rewardID, ok := strings.CutPrefix(data, CallbackShopItem); ok {
		return h.showDetail(c, userID, rewardID)
	}

	if rewardID, ok := strings.CutPrefix(data, CallbackShopBuy); ok {
		return h.buy(ctx, c, userID, rewardID)
	}

	return nil
}

// showDetail renders one reward's detail + confirmation panel.
func (h *ShopHandler) showDetail(c tele.Context, userID, rewardID string) error {
	reward, ok := h.rewards.Get(rewardID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ That reward doesn't exist"})
	}

	_, balance, err := h.purchase.Storefront(context.Background(), userID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Shop unavailable", ShowAlert: true})
	}

	msg := fmt.Sprintf("%s %s\n", reward.Emoji, reward.Name)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("💰 Cost: %d coins\n", reward.Cost)
	if reward.Prerequisite != "" {
		if prereq, ok := h.rewards.Get(reward.Prerequisite); ok {
			msg += fmt.Sprintf("🔗 Requires: %s\n", prereq.Name)
		}
	}
	msg += fmt.Sprintf("📝 %s\n", reward.Description)
	msg += "━━━━━━━━━━━━━━━\n"
	msg += fmt.Sprintf("💰 Your balance: %d coins\n", balance)
	if balance < reward.Cost {
		msg += "❌ Not enough coins yet!"
	} else {
		msg += "Buy it?"
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(
		markup.Data("✅ Buy", CallbackShopBuy+reward.ID),
		markup.Data("↩️ Back", CallbackShopBack),
	))
	return c.Edit(msg, markup)
}

// buy executes the purchase and translates rejections into remediation
// text, each failure class with its own message.
func (h *ShopHandler) buy(ctx context.Context, c tele.Context, userID, rewardID string) error {
	receipt, err := h.purchase.Purchase(ctx, userID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownReward):
			return c.Respond(&tele.CallbackResponse{Text: "❌ That reward doesn't exist", ShowAlert: true})
		case errors.Is(err, service.ErrPrerequisiteMissing):
			reward, _ := h.rewards.Get(rewardID)
			prereq, _ := h.rewards.Get(reward.Prerequisite)
			return c.Respond(&tele.CallbackResponse{
				Text:      fmt.Sprintf("❌ You need %s before you can buy %s", prereq.Name, reward.Name),
				ShowAlert: true,
			})
		case errors.Is(err, service.ErrAlreadyOwned):
			return c.Respond(&tele.CallbackResponse{Text: "❌ You already own that one", ShowAlert: true})
		case errors.Is(err, service.ErrInsufficientFunds):
			return c.Respond(&tele.CallbackResponse{Text: "❌ Not enough coins — go collect some!", ShowAlert: true})
		case errors.Is(err, repository.ErrUserNotFound):
			// never collected anything, so there is nothing to spend
			return c.Respond(&tele.CallbackResponse{Text: "❌ Collect some coins first!", ShowAlert: true})
		}
		log.Error().Err(err).Str("user_id", userID).Str("reward", rewardID).Msg("Purchase failed")
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ Something went wrong, please try again later",
			ShowAlert: true,
		})
	}

	c.Respond(&tele.CallbackResponse{
		Text: fmt.Sprintf("✅ %s %s is yours! Balance: %d, rewards owned: %d",
			receipt.Reward.Emoji, receipt.Reward.Name, receipt.Balance, receipt.OwnedCount),
	})

	msg, markup, err := h.buildShopPanel(ctx, userID)
	if err != nil {
		return nil
	}
	return c.Edit(msg, markup)
}
