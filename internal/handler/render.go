package handler

import (
	"fmt"
	"strings"
	"time"

	"linguo/internal/domain"
	"linguo/internal/language"

	tele "gopkg.in/telebot.v3"
)

// HistoryPageSize is the number of entries shown per history page
const HistoryPageSize = 5

// MaxMessageLength is the longest text Telegram accepts in one message, in UTF-16 code units
const MaxMessageLength = 4096

// Per-field limits keep every rendered screen under MaxMessageLength
const (
	menuTextLimit    = 1500
	menuErrorLimit   = 500
	historyTextLimit = 150
)

// messageLength counts s the way Telegram does: runes outside the BMP take two units
func messageLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16Len(r)
	}
	return n
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

// truncate cuts s to at most limit UTF-16 units, ending with an ellipsis when cut.
// Surrogate pairs are never split.
func truncate(s string, limit int) string {
	if messageLength(s) <= limit {
		return s
	}
	n := 0
	for i, r := range s {
		// the ellipsis takes one unit
		if n+utf16Len(r) > limit-1 {
			return s[:i] + "…"
		}
		n += utf16Len(r)
	}
	return s
}

// menuView is everything the main menu shows
type menuView struct {
	Session     domain.Session
	Remaining   int
	Limit       int
	Languages   *language.Catalog
	CanSpeak    bool
	CanListen   bool
	HistorySize int
}

func renderMenu(v menuView) (string, *tele.ReplyMarkup) {
	var b strings.Builder
	s := v.Session

	b.WriteString("🌐 Translator\n\n")
	fmt.Fprintf(&b, "From: %s → To: %s\n", v.Languages.Name(s.SourceLanguage), v.Languages.Name(s.TargetLanguage))
	fmt.Fprintf(&b, "Free translations left: %d/%d\n", v.Remaining, v.Limit)

	if s.TranslatedText != "" {
		fmt.Fprintf(&b, "\n📝 %s\n✅ %s\n", truncate(s.InputText, menuTextLimit), truncate(s.TranslatedText, menuTextLimit))
	}
	if s.ErrorMessage != "" {
		fmt.Fprintf(&b, "\n⚠️ %s\n", truncate(s.ErrorMessage, menuErrorLimit))
	}
	switch {
	case v.Remaining == 0:
		b.WriteString("\nYou have used all free translations.")
	case v.CanListen:
		b.WriteString("\nSend me any text or a voice message to translate.")
	default:
		b.WriteString("\nSend me any text to translate.")
	}

	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{
		markup.Row(btnSourceMenu, btnSwap, btnTargetMenu),
	}
	if v.CanSpeak && s.TranslatedText != "" {
		rows = append(rows, markup.Row(btnSpeak))
	}
	historyBtn := btnHistory
	historyBtn.Data = "1"
	if v.HistorySize > 0 {
		historyBtn.Text = fmt.Sprintf("%s (%d)", btnHistory.Text, v.HistorySize)
	}
	rows = append(rows, markup.Row(historyBtn))
	markup.Inline(rows...)

	return b.String(), markup
}

// renderLanguagePicker lists every language; the selected one is marked
func renderLanguagePicker(langs *language.Catalog, unique, selected, title string) (string, *tele.ReplyMarkup) {
	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}
	row := tele.Row{}

	for _, l := range langs.All() {
		label := l.Name
		if l.Code == selected {
			label = "• " + label
		}
		row = append(row, markup.Data(label, unique, l.Code))
		if len(row) == 3 {
			rows = append(rows, row)
			row = tele.Row{}
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return title, markup
}

// historyPage returns the entries of page (1-based) and the total number of pages
func historyPage(entries []domain.HistoryEntry, page int) ([]domain.HistoryEntry, int, int) {
	total := (len(entries) + HistoryPageSize - 1) / HistoryPageSize
	if total == 0 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * HistoryPageSize
	end := start + HistoryPageSize
	if start > len(entries) {
		start = len(entries)
	}
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], page, total
}

func renderHistory(entries []domain.HistoryEntry, page int, now time.Time) (string, *tele.ReplyMarkup) {
	items, page, total := historyPage(entries, page)
	markup := &tele.ReplyMarkup{}
	rows := []tele.Row{}

	var b strings.Builder
	if len(items) == 0 {
		b.WriteString("🕘 History\n\nNo translations yet.")
	} else {
		fmt.Fprintf(&b, "🕘 History (page %d/%d)\n\n", page, total)
	}

	for i, e := range items {
		n := (page-1)*HistoryPageSize + i + 1
		fmt.Fprintf(&b, "%d. [%s → %s] %s\n   %s\n   %s\n\n",
			n, strings.ToUpper(e.SourceLanguage), strings.ToUpper(e.TargetLanguage),
			truncate(e.OriginalText, historyTextLimit), truncate(e.TranslatedText, historyTextLimit), e.DisplayDate(now))

		rows = append(rows, markup.Row(
			markup.Data(fmt.Sprintf("📥 %d", n), btnHistoryLoad.Unique, e.ID),
			markup.Data(fmt.Sprintf("🗑 %d", n), btnHistoryDelete.Unique, e.ID, fmt.Sprint(page)),
		))
	}

	if total > 1 {
		nav := tele.Row{}
		if page > 1 {
			nav = append(nav, markup.Data("⬅️", btnHistory.Unique, fmt.Sprint(page-1)))
		}
		if page < total {
			nav = append(nav, markup.Data("➡️", btnHistory.Unique, fmt.Sprint(page+1)))
		}
		rows = append(rows, nav)
	}
	rows = append(rows, markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return strings.TrimRight(b.String(), "\n"), markup
}
