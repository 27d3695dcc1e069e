package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"

	"linguo/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// parseCallback splits a callback into its button unique and payload.
// Callbacks that missed their endpoint still carry the raw "\funique|payload" data.
func parseCallback(cb *tele.Callback) (unique, payload string) {
	if cb.Unique != "" {
		return cb.Unique, cleanCallbackData(cb.Data)
	}
	unique, payload, _ = strings.Cut(cleanCallbackData(cb.Data), "|")
	return unique, payload
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Same content as before: a double tap, nothing to redraw
	if errors.Is(err, tele.ErrSameMessageContent) || strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already up to date, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		_ = c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	// Always acknowledge callback before sending new message
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// editOrSend redraws the callback's message, falling back to a new message
func (h *Handler) editOrSend(c tele.Context, text string, markup *tele.ReplyMarkup, resp ...*tele.CallbackResponse) error {
	if err := c.Edit(text, markup); err != nil {
		if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
			return nil
		}
		return c.Send(text, markup)
	}
	return c.Respond(resp...)
}

// handleCallback handles ALL callback queries
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	unique, payload := parseCallback(callback)
	h.logger.Debug("Processing callback",
		zap.String("unique", unique),
		zap.String("payload", payload),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch unique {
	case btnSourceMenu.Unique:
		return h.handleLanguageMenu(c, btnSetSource.Unique)
	case btnTargetMenu.Unique:
		return h.handleLanguageMenu(c, btnSetTarget.Unique)
	case btnSetSource.Unique, btnSetTarget.Unique:
		return h.handleSetLanguage(c, unique, payload)
	case btnSwap.Unique:
		h.session(c).SwapLanguages()
		return h.showMenu(c)
	case btnSpeak.Unique:
		return h.handleSpeak(c)
	case btnHistory.Unique:
		return h.handleHistory(c, parsePage(payload))
	case btnHistoryLoad.Unique:
		return h.handleHistoryLoad(c, payload)
	case btnHistoryDelete.Unique:
		return h.handleHistoryDelete(c, payload)
	case btnMainMenu.Unique:
		return h.showMenu(c)
	}

	// If it's not handled, acknowledge it anyway
	h.logger.Warn("Unhandled callback",
		zap.String("unique", unique),
		zap.String("data_raw", callback.Data),
	)
	return c.Respond()
}

func parsePage(payload string) int {
	page, err := strconv.Atoi(strings.TrimSpace(payload))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// handleLanguageMenu shows the language picker for source or target
func (h *Handler) handleLanguageMenu(c tele.Context, unique string) error {
	ctrl := h.session(c)
	s := ctrl.Snapshot()

	selected, title := s.SourceLanguage, "Translate from:"
	if unique == btnSetTarget.Unique {
		selected, title = s.TargetLanguage, "Translate to:"
	}

	text, markup := renderLanguagePicker(ctrl.Languages(), unique, selected, title)
	return h.editOrSend(c, text, markup)
}

// handleSetLanguage applies the picked language and returns to the menu
func (h *Handler) handleSetLanguage(c tele.Context, unique, code string) error {
	ctrl := h.session(c)

	set := ctrl.SetSourceLanguage
	if unique == btnSetTarget.Unique {
		set = ctrl.SetTargetLanguage
	}
	if err := set(code); err != nil {
		h.logger.Warn("Rejected language selection",
			zap.Int64("user_id", c.Sender().ID),
			zap.String("code", code),
		)
	}

	text, markup := h.menu(ctrl)
	return h.editOrSend(c, text, markup)
}

// handleSpeak reads the current translation aloud
func (h *Handler) handleSpeak(c tele.Context) error {
	if err := h.session(c).Speak(h.ctx); err != nil {
		var derr *domain.Error
		msg := "Could not read the translation aloud."
		if errors.As(err, &derr) {
			msg = derr.Message
		}
		return c.Respond(&tele.CallbackResponse{Text: msg, ShowAlert: true})
	}
	return c.Respond()
}

// handleHistory shows one page of the translation history
func (h *Handler) handleHistory(c tele.Context, page int) error {
	ctrl := h.session(c)
	text, markup := renderHistory(ctrl.History(), page, time.Now())
	return h.editOrSend(c, text, markup)
}

// handleHistoryLoad copies an entry into the session and shows it in the menu
func (h *Handler) handleHistoryLoad(c tele.Context, entryID string) error {
	ctrl := h.session(c)

	entry, ok := ctrl.HistoryEntry(entryID)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "This translation is no longer in your history."})
	}
	ctrl.LoadFromHistory(entry)

	text, markup := h.menu(ctrl)
	return h.editOrSend(c, text, markup)
}

// handleHistoryDelete removes an entry and redraws its page
func (h *Handler) handleHistoryDelete(c tele.Context, payload string) error {
	ctrl := h.session(c)
	entryID, pageStr, _ := strings.Cut(payload, "|")

	if err := ctrl.DeleteHistoryEntry(h.ctx, entryID); err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Could not delete the translation.", ShowAlert: true})
	}

	// The live mirror catches up on its own; the deleted row is hidden right away
	remaining := []domain.HistoryEntry{}
	for _, e := range ctrl.History() {
		if e.ID != entryID {
			remaining = append(remaining, e)
		}
	}

	text, markup := renderHistory(remaining, parsePage(pageStr), time.Now())
	return h.editOrSend(c, text, markup, &tele.CallbackResponse{Text: "Deleted"})
}
