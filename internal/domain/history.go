package domain

import (
	"sort"
	"time"
)

// HistoryEntry represents one stored translation of an identity
type HistoryEntry struct {
	ID             string
	IdentityID     string
	OriginalText   string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
	CreatedAt      time.Time
}

// DisplayDate returns user-friendly creation date relative to now
func (e HistoryEntry) DisplayDate(now time.Time) string {
	date := e.CreatedAt.In(now.Location())

	// Check if today
	if sameDay(date, now) {
		return "Today " + date.Format("15:04")
	}

	// Check if yesterday
	if sameDay(date, now.AddDate(0, 0, -1)) {
		return "Yesterday " + date.Format("15:04")
	}

	return date.Format("2 Jan 2006")
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// SortNewestFirst orders entries by CreatedAt descending, ties broken by ID descending
func SortNewestFirst(entries []HistoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}
