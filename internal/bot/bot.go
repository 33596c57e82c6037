// Package bot provides the chat bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"community-coin-bot/internal/catalog"
	"community-coin-bot/internal/config"
	"community-coin-bot/internal/handler"
	"community-coin-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	collectHandler     *handler.CollectHandler
	shopHandler        *handler.ShopHandler
	leaderboardHandler *handler.LeaderboardHandler
	adminHandler       *handler.AdminHandler
	helpHandler        *handler.HelpHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config      *config.Config
	Actions     *catalog.Actions
	Rewards     *catalog.Rewards
	Lifecycle   *service.LifecycleService
	Eligibility *service.EligibilityService
	Purchase    *service.PurchaseService
	Leaderboard *service.LeaderboardService
	Reconciler  *service.Reconciler
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:                teleBot,
		cfg:                deps.Config,
		collectHandler:     handler.NewCollectHandler(deps.Actions, deps.Lifecycle, deps.Eligibility),
		shopHandler:        handler.NewShopHandler(deps.Rewards, deps.Purchase),
		leaderboardHandler: handler.NewLeaderboardHandler(deps.Leaderboard),
		adminHandler:       handler.NewAdminHandler(deps.Config, deps.Reconciler),
		helpHandler:        handler.NewHelpHandler(),
	}

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/collect", b.collectHandler.HandleCollect)
	b.bot.Handle("/shop", b.shopHandler.HandleShop)
	b.bot.Handle("/leaderboard", b.leaderboardHandler.HandleLeaderboard)
	b.bot.Handle("/what", b.helpHandler.HandleWhat)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/update_coins", b.adminHandler.HandleUpdateCoins)
	adminGroup.Handle("/announce", b.adminHandler.HandleAnnounce)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes button callbacks to the owning handler.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")

	switch {
	case strings.HasPrefix(data, handler.CallbackCollect):
		return b.collectHandler.HandleCollectCallback(c)
	case data == handler.CallbackStray:
		return b.collectHandler.HandleStrayCallback(c)
	case strings.HasPrefix(data, "shop_"):
		return b.shopHandler.HandleShopCallback(c)
	}
	return nil
}

// Start starts the bot polling. Blocks until Stop is called.
func (b *Bot) Start() {
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	b.bot.Stop()
}
