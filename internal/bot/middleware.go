package bot

import (
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"community-coin-bot/internal/config"
)

// AdminMiddleware creates a middleware that rejects non-admin senders.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if !cfg.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return c.Reply("❌ That one's admins-only")
			}

			return next(c)
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming updates.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received update")

			return next(c)
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					_ = c.Reply("❌ Something went wrong, please try again later")
				}
			}()
			return next(c)
		}
	}
}
