package repository

import (
	"context"
	"errors"

	"linguo/internal/domain"
)

var (
	// ErrHistoryEntryNotFound is returned when deleting an entry that does not exist
	ErrHistoryEntryNotFound = errors.New("history entry not found")
	// ErrIdentityExists is returned when a device key already has an identity
	ErrIdentityExists = errors.New("identity already exists")
)

// IdentityRepository defines anonymous identity operations
type IdentityRepository interface {
	GetByDeviceKey(ctx context.Context, deviceKey string) (*domain.Identity, error)
	Create(ctx context.Context, identity domain.Identity) (*domain.Identity, error)
}

// HistoryRepository defines translation history operations
type HistoryRepository interface {
	Append(ctx context.Context, entry domain.HistoryEntry) (*domain.HistoryEntry, error)
	Delete(ctx context.Context, identityID, entryID string) error
	ListByIdentity(ctx context.Context, identityID string) ([]domain.HistoryEntry, error)
}

// HistorySubscription delivers full, newest-first history snapshots until closed
type HistorySubscription interface {
	Snapshots() <-chan []domain.HistoryEntry
	Errors() <-chan error
	Close() error
}

// HistoryFeed opens live history queries scoped to an identity
type HistoryFeed interface {
	Subscribe(ctx context.Context, identityID string) (HistorySubscription, error)
}

// QuotaStore defines device-local usage counter operations
type QuotaStore interface {
	Load(ctx context.Context, identityID string) (int, error)
	Save(ctx context.Context, identityID string, count int) error
	Reset(ctx context.Context, identityID string) error
}
