package handler

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"linguo/internal/domain"
	"linguo/internal/language"
	"linguo/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(n int) []domain.HistoryEntry {
	entries := make([]domain.HistoryEntry, 0, n)
	for i := n; i >= 1; i-- {
		entries = append(entries, testutil.NewTestEntry(
			fmt.Sprintf("e%d", i), "uuid-1", fmt.Sprintf("orig %d", i), fmt.Sprintf("tr %d", i),
			testStart.Add(time.Duration(i)*time.Minute),
		))
	}
	return entries
}

func TestHistoryPage(t *testing.T) {
	tests := []struct {
		name          string
		entries       int
		page          int
		expectedLen   int
		expectedPage  int
		expectedTotal int
	}{
		{name: "empty history", entries: 0, page: 1, expectedLen: 0, expectedPage: 1, expectedTotal: 1},
		{name: "single page", entries: 3, page: 1, expectedLen: 3, expectedPage: 1, expectedTotal: 1},
		{name: "exact page", entries: 5, page: 1, expectedLen: 5, expectedPage: 1, expectedTotal: 1},
		{name: "last partial page", entries: 12, page: 3, expectedLen: 2, expectedPage: 3, expectedTotal: 3},
		{name: "page past end is clamped", entries: 7, page: 9, expectedLen: 2, expectedPage: 2, expectedTotal: 2},
		{name: "page below one is clamped", entries: 7, page: 0, expectedLen: 5, expectedPage: 1, expectedTotal: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, page, total := historyPage(makeEntries(tt.entries), tt.page)

			assert.Len(t, items, tt.expectedLen)
			assert.Equal(t, tt.expectedPage, page)
			assert.Equal(t, tt.expectedTotal, total)
		})
	}
}

func TestRenderHistory(t *testing.T) {
	text, markup := renderHistory(makeEntries(7), 2, testStart.Add(time.Hour))

	assert.Contains(t, text, "page 2/2")
	assert.Contains(t, text, "6. [ES → EN] orig 2")
	assert.Contains(t, text, "Today 12:02")
	assert.NotContains(t, text, "orig 7")

	var nav []string
	var deletes []string
	for _, b := range buttons(markup) {
		switch b.Unique {
		case btnHistory.Unique:
			nav = append(nav, b.Text+":"+b.Data)
		case btnHistoryDelete.Unique:
			deletes = append(deletes, b.Data)
		}
	}
	assert.Equal(t, []string{"⬅️:1"}, nav)
	assert.Equal(t, []string{"e2|2", "e1|2"}, deletes)
	assert.True(t, hasButton(markup, btnMainMenu.Unique))
}

func TestRenderHistory_Empty(t *testing.T) {
	text, markup := renderHistory(nil, 1, testStart)

	assert.Contains(t, text, "No translations yet.")
	require.Len(t, buttons(markup), 1)
	assert.Equal(t, btnMainMenu.Unique, buttons(markup)[0].Unique)
}

func TestRenderMenu(t *testing.T) {
	base := menuView{
		Session: domain.Session{
			SourceLanguage: "es",
			TargetLanguage: "en",
		},
		Remaining: 10,
		Limit:     10,
		Languages: language.Default(),
	}

	t.Run("fresh session", func(t *testing.T) {
		text, markup := renderMenu(base)

		assert.Contains(t, text, "From: Spanish → To: English")
		assert.Contains(t, text, "Free translations left: 10/10")
		assert.Contains(t, text, "Send me any text")
		assert.NotContains(t, text, "⚠️")
		assert.False(t, hasButton(markup, btnSpeak.Unique))
	})

	t.Run("result with speech", func(t *testing.T) {
		v := base
		v.Session.InputText = "Hola"
		v.Session.TranslatedText = "Hello"
		v.CanSpeak = true
		v.HistorySize = 3

		text, markup := renderMenu(v)

		assert.Contains(t, text, "📝 Hola\n✅ Hello")
		assert.True(t, hasButton(markup, btnSpeak.Unique))
		for _, b := range buttons(markup) {
			switch b.Unique {
			case btnHistory.Unique:
				assert.Equal(t, "🕘 History (3)", b.Text)
			case btnSpeak.Unique:
				assert.Equal(t, "🔊 Speak", b.Text)
			}
		}
	})

	t.Run("speech without result", func(t *testing.T) {
		v := base
		v.CanSpeak = true

		_, markup := renderMenu(v)

		assert.False(t, hasButton(markup, btnSpeak.Unique))
	})

	t.Run("error and exhausted quota", func(t *testing.T) {
		v := base
		v.Remaining = 0
		v.Session.ErrorMessage = "You have reached the limit of 10 free translations."

		text, _ := renderMenu(v)

		assert.Contains(t, text, "⚠️ You have reached the limit")
		assert.Contains(t, text, "Free translations left: 0/10")
		assert.Contains(t, text, "used all free translations")
	})
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{name: "short text untouched", input: "Hola", limit: 10, expected: "Hola"},
		{name: "exact limit untouched", input: "Hola", limit: 4, expected: "Hola"},
		{name: "long text cut", input: "Buenos días", limit: 6, expected: "Bueno…"},
		{name: "multibyte runes kept whole", input: "ññññññ", limit: 3, expected: "ññ…"},
		{name: "empty string", input: "", limit: 3, expected: ""},
		{name: "emoji count as two units", input: "😀😀😀😀", limit: 5, expected: "😀😀…"},
		{name: "surrogate pair not split", input: "a😀😀", limit: 3, expected: "a…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := truncate(tt.input, tt.limit)
			assert.Equal(t, tt.expected, result)
			assert.True(t, utf8.ValidString(result))
			assert.LessOrEqual(t, messageLength(result), tt.limit)
		})
	}
}

func TestRenderMenu_LongTextFitsInMessage(t *testing.T) {
	v := menuView{
		Session: domain.Session{
			SourceLanguage: "es",
			TargetLanguage: "en",
			InputText:      strings.Repeat("á", 3600),
			TranslatedText: strings.Repeat("a", 3500),
			ErrorMessage:   "Translation error: " + strings.Repeat("x", 2000),
		},
		Remaining: 3,
		Limit:     10,
		Languages: language.Default(),
		CanSpeak:  true,
	}

	text, _ := renderMenu(v)

	assert.LessOrEqual(t, messageLength(text), MaxMessageLength)
	assert.Contains(t, text, "📝 ááá")
	assert.Contains(t, text, "…\n✅ aaa")
	assert.Contains(t, text, "Free translations left: 3/10")
}

func TestRenderMenu_EmojiTextFitsInMessage(t *testing.T) {
	v := menuView{
		Session: domain.Session{
			SourceLanguage: "es",
			TargetLanguage: "en",
			InputText:      strings.Repeat("😀", 1500),
			TranslatedText: strings.Repeat("🎉", 1500),
			ErrorMessage:   strings.Repeat("🔥", 600),
		},
		Remaining: 3,
		Limit:     10,
		Languages: language.Default(),
	}

	text, _ := renderMenu(v)

	assert.LessOrEqual(t, messageLength(text), MaxMessageLength)
	assert.Contains(t, text, "📝 😀😀")
	assert.Contains(t, text, "✅ 🎉🎉")
}

func TestRenderHistory_EmojiEntriesFitInMessage(t *testing.T) {
	entries := makeEntries(HistoryPageSize)
	for i := range entries {
		entries[i].OriginalText = strings.Repeat("😀", 2000)
		entries[i].TranslatedText = strings.Repeat("🎉", 2000)
	}

	text, _ := renderHistory(entries, 1, testStart)

	assert.LessOrEqual(t, messageLength(text), MaxMessageLength)
}

func TestRenderHistory_LongEntriesFitInMessage(t *testing.T) {
	entries := makeEntries(HistoryPageSize)
	for i := range entries {
		entries[i].OriginalText = strings.Repeat("o", 3600)
		entries[i].TranslatedText = strings.Repeat("t", 3500)
	}

	text, markup := renderHistory(entries, 1, testStart)

	assert.LessOrEqual(t, messageLength(text), MaxMessageLength)
	assert.Contains(t, text, "5. [ES → EN]")
	deletes := 0
	for _, b := range buttons(markup) {
		if b.Unique == btnHistoryDelete.Unique {
			deletes++
		}
	}
	assert.Equal(t, HistoryPageSize, deletes)
}
