package handler

import (
	"context"
	"io"

	"linguo/internal/session"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Sessions hands out the controller of a chat
type Sessions interface {
	Get(chatID int64) (*session.Controller, bool)
}

// fileSource downloads files attached to messages
type fileSource interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// Handler manages all bot interactions
type Handler struct {
	ctx      context.Context
	bot      *tele.Bot
	files    fileSource
	sessions Sessions
	logger   *zap.Logger
}

// NewHandler creates a new handler instance. ctx bounds every translation and store call.
func NewHandler(
	ctx context.Context,
	bot *tele.Bot,
	sessions Sessions,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		ctx:      ctx,
		bot:      bot,
		files:    bot,
		sessions: sessions,
		logger:   logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers() {
	// Commands
	h.bot.Handle("/start", h.handleStart)

	// Text messages
	h.bot.Handle(tele.OnText, h.handleText)
	h.bot.Handle(tele.OnVoice, h.handleVoice)

	// Callback queries (inline buttons)
	for _, btn := range []*tele.Btn{
		&btnSourceMenu, &btnTargetMenu, &btnSetSource, &btnSetTarget, &btnSwap, &btnSpeak,
		&btnHistory, &btnHistoryLoad, &btnHistoryDelete, &btnMainMenu,
	} {
		h.bot.Handle(btn, h.handleCallback)
	}

	// Generic callback handler for buttons whose endpoint did not match
	h.bot.Handle(tele.OnCallback, h.handleCallback)
}

// session returns the controller of the sender's chat
func (h *Handler) session(c tele.Context) *session.Controller {
	ctrl, _ := h.sessions.Get(c.Sender().ID)
	return ctrl
}

// menu renders the main menu of ctrl
func (h *Handler) menu(ctrl *session.Controller) (string, *tele.ReplyMarkup) {
	canSpeak, canListen := ctrl.SpeechAvailable()
	return renderMenu(menuView{
		Session:     ctrl.Snapshot(),
		Remaining:   ctrl.Remaining(),
		Limit:       ctrl.Limit(),
		Languages:   ctrl.Languages(),
		CanSpeak:    canSpeak,
		CanListen:   canListen,
		HistorySize: len(ctrl.History()),
	})
}

// Inline keyboard buttons
var (
	btnSourceMenu = tele.Btn{
		Unique: "src_menu",
		Text:   "From",
	}
	btnTargetMenu = tele.Btn{
		Unique: "tgt_menu",
		Text:   "To",
	}
	btnSetSource = tele.Btn{
		Unique: "set_src",
	}
	btnSetTarget = tele.Btn{
		Unique: "set_tgt",
	}
	btnSwap = tele.Btn{
		Unique: "swap",
		Text:   "⇄",
	}
	btnSpeak = tele.Btn{
		Unique: "speak",
		Text:   "🔊 Speak",
	}
	btnHistory = tele.Btn{
		Unique: "history",
		Text:   "🕘 History",
	}
	btnHistoryLoad = tele.Btn{
		Unique: "hist_load",
	}
	btnHistoryDelete = tele.Btn{
		Unique: "hist_del",
	}
	btnMainMenu = tele.Btn{
		Unique: "main_menu",
		Text:   "🏠 Main menu",
	}
)
