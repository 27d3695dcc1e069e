package handler

import (
	"strings"

	"linguo/internal/domain"
	"linguo/internal/session"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleText translates every plain text message
func (h *Handler) handleText(c tele.Context) error {
	text := c.Text()

	// Ignore commands (starting with /)
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return nil
	}

	return h.translate(c, h.session(c), text)
}

// translate submits text and answers with the refreshed menu
func (h *Handler) translate(c tele.Context, ctrl *session.Controller, text string) error {
	userID := c.Sender().ID
	_ = c.Notify(tele.Typing)

	out, err := ctrl.SubmitTranslation(h.ctx, text)
	switch {
	case err == nil:
		h.logger.Info("Translation delivered",
			zap.Int64("user_id", userID),
			zap.Int("translation_count", out.TranslationCount),
		)
	case domain.KindOf(err) == domain.ErrRequestInFlight:
		// The running request will answer; this message is dropped
		return c.Send("⏳ Still working on your previous text.")
	default:
		h.logger.Info("Translation not completed",
			zap.Int64("user_id", userID),
			zap.String("kind", string(domain.KindOf(err))),
		)
	}

	reply, markup := h.menu(ctrl)
	return c.Send(reply, markup)
}
