package handler

import (
	"io"

	"linguo/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleVoice transcribes a voice message into the input and translates it.
// Without a recognizer the menu comes back with the speech error shown.
func (h *Handler) handleVoice(c tele.Context) error {
	userID := c.Sender().ID
	ctrl := h.session(c)

	var audio io.Reader
	if _, canListen := ctrl.SpeechAvailable(); canListen {
		msg := c.Message()
		if msg == nil || msg.Voice == nil {
			return nil
		}

		rc, err := h.files.File(&msg.Voice.File)
		if err != nil {
			h.logger.Warn("Failed to download voice message",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return c.Send("Could not download the voice message.")
		}
		defer rc.Close()
		audio = rc
	}

	transcript, err := ctrl.Listen(h.ctx, audio)
	if err != nil {
		h.logger.Info("Voice message not transcribed",
			zap.Int64("user_id", userID),
			zap.String("kind", string(domain.KindOf(err))),
		)
		reply, markup := h.menu(ctrl)
		return c.Send(reply, markup)
	}

	return h.translate(c, ctrl, transcript)
}
