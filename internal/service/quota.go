package service

import (
	"context"

	"linguo/internal/repository"
)

// DefaultFreeTranslations is the number of free translations per identity
const DefaultFreeTranslations = 10

// QuotaService applies the free-usage limit on top of device-local counters
type QuotaService struct {
	store repository.QuotaStore
	limit int
}

// NewQuotaService creates a new quota service; non-positive limits fall back to the default
func NewQuotaService(store repository.QuotaStore, limit int) *QuotaService {
	if limit <= 0 {
		limit = DefaultFreeTranslations
	}
	return &QuotaService{store: store, limit: limit}
}

// Limit returns the maximum number of free translations
func (s *QuotaService) Limit() int {
	return s.limit
}

// Load returns the stored counter clamped to [0, Limit]
func (s *QuotaService) Load(ctx context.Context, identityID string) (int, error) {
	count, err := s.store.Load(ctx, identityID)
	if err != nil {
		return 0, err
	}
	if count < 0 {
		count = 0
	}
	if count > s.limit {
		count = s.limit
	}
	return count, nil
}

// Save persists the counter
func (s *QuotaService) Save(ctx context.Context, identityID string, count int) error {
	return s.store.Save(ctx, identityID, count)
}

// Reset sets the counter of the identity back to zero
func (s *QuotaService) Reset(ctx context.Context, identityID string) error {
	return s.store.Reset(ctx, identityID)
}
