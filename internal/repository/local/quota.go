// Package local keeps state that belongs to this device only and is never synced.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

const createQuotaTable = `
	CREATE TABLE IF NOT EXISTS quota_counters (
		identity_id TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 0
	)`

// QuotaStore implements repository.QuotaStore on an embedded SQLite file
type QuotaStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite file at path
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create quota dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open quota db: %w", err)
	}
	// A single connection keeps :memory: databases alive and serializes writes
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("quota db ping failed: %w", err)
	}
	return db, nil
}

// NewQuotaStore creates the counters table if missing
func NewQuotaStore(db *sql.DB) (*QuotaStore, error) {
	if _, err := db.Exec(createQuotaTable); err != nil {
		return nil, fmt.Errorf("failed to create quota table: %w", err)
	}
	return &QuotaStore{db: db}, nil
}

// Load returns the stored counter, 0 when the identity has none
func (s *QuotaStore) Load(ctx context.Context, identityID string) (int, error) {
	query, args, err := sq.Select("count").
		From("quota_counters").
		Where(sq.Eq{"identity_id": identityID}).
		ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load quota: %w", err)
	}
	return count, nil
}

// Save writes the counter for the identity
func (s *QuotaStore) Save(ctx context.Context, identityID string, count int) error {
	query, args, err := sq.Insert("quota_counters").
		Columns("identity_id", "count").
		Values(identityID, count).
		Suffix("ON CONFLICT(identity_id) DO UPDATE SET count = excluded.count").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save quota: %w", err)
	}
	return nil
}

// Reset forgets the counter for the identity
func (s *QuotaStore) Reset(ctx context.Context, identityID string) error {
	query, args, err := sq.Delete("quota_counters").
		Where(sq.Eq{"identity_id": identityID}).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to reset quota: %w", err)
	}
	return nil
}
