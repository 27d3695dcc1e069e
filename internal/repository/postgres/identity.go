package postgres

import (
	"context"
	"database/sql"
	"errors"

	"linguo/internal/domain"
	"linguo/internal/repository"

	"github.com/lib/pq"
)

// IdentityRepo implements repository.IdentityRepository
type IdentityRepo struct {
	db *sql.DB
}

// NewIdentityRepo creates a new identity repository
func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

// GetByDeviceKey returns the identity bound to a device, or nil if none
func (r *IdentityRepo) GetByDeviceKey(ctx context.Context, deviceKey string) (*domain.Identity, error) {
	var id domain.Identity
	query := `SELECT id, device_key, created_at FROM identities WHERE device_key = $1`
	err := r.db.QueryRowContext(ctx, query, deviceKey).Scan(&id.ID, &id.DeviceKey, &id.CreatedAt)

	if err == sql.ErrNoRows {
		// Device has not signed in yet
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &id, nil
}

// Create stores a new identity; the creation time is assigned by the database
func (r *IdentityRepo) Create(ctx context.Context, identity domain.Identity) (*domain.Identity, error) {
	query := `
		INSERT INTO identities (id, device_key)
		VALUES ($1, $2)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, identity.ID, identity.DeviceKey).Scan(&identity.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, repository.ErrIdentityExists
		}
		return nil, err
	}

	return &identity, nil
}
