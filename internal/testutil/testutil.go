package testutil

import (
	"time"

	"linguo/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestIdentity creates a test identity
func NewTestIdentity(id, deviceKey string) *domain.Identity {
	return &domain.Identity{
		ID:        id,
		DeviceKey: deviceKey,
		CreatedAt: time.Now(),
	}
}

// NewTestEntry creates a test history entry
func NewTestEntry(id, identityID, original, translated string, createdAt time.Time) domain.HistoryEntry {
	return domain.HistoryEntry{
		ID:             id,
		IdentityID:     identityID,
		OriginalText:   original,
		TranslatedText: translated,
		SourceLanguage: "es",
		TargetLanguage: "en",
		CreatedAt:      createdAt,
	}
}

// FixedClock always reports the same instant unless advanced
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
