package middleware

import (
	"context"
	"strconv"

	"linguo/internal/session"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Sessions hands out the controller of a chat
type Sessions interface {
	Get(chatID int64) (*session.Controller, bool)
}

// DeviceKey is the identity key of a Telegram user
func DeviceKey(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

// IdentityMiddleware establishes the anonymous identity of the sender's session.
// Updates are not handled until it succeeds.
func IdentityMiddleware(ctx context.Context, sessions Sessions, identities session.IdentityProvider, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			ctrl, created := sessions.Get(sender.ID)
			if created {
				logger.Debug("Session opened", zap.Int64("user_id", sender.ID))
			}

			if !ctrl.Snapshot().IdentityReady {
				if err := ctrl.EstablishIdentity(ctx, identities, DeviceKey(sender.ID)); err != nil {
					logger.Error("Failed to establish identity in middleware",
						zap.Int64("user_id", sender.ID),
						zap.Error(err),
					)
					if c.Callback() != nil {
						return c.Respond(&tele.CallbackResponse{Text: "Sign-in failed. Please try again later.", ShowAlert: true})
					}
					return c.Send("Sign-in failed. Please try again later.")
				}
			}

			return next(c)
		}
	}
}
