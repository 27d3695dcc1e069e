package handler

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID
	ctrl := h.session(c)

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
		zap.String("identity_id", ctrl.Snapshot().IdentityID),
	)

	return h.showMenu(c)
}

// showMenu draws the main menu, editing the message when called from a button
func (h *Handler) showMenu(c tele.Context) error {
	text, markup := h.menu(h.session(c))
	if c.Callback() != nil {
		return h.editOrSend(c, text, markup)
	}
	return c.Send(text, markup)
}
