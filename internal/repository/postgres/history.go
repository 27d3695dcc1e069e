package postgres

import (
	"context"
	"database/sql"

	"linguo/internal/domain"
	"linguo/internal/repository"
)

// HistoryRepo implements repository.HistoryRepository
type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo creates a new history repository
func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Append saves a translation; id is taken from entry, created_at is assigned by the database
func (r *HistoryRepo) Append(ctx context.Context, entry domain.HistoryEntry) (*domain.HistoryEntry, error) {
	query := `
		INSERT INTO translation_history (id, identity_id, original_text, translated_text, source_lang, target_lang)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.IdentityID, entry.OriginalText, entry.TranslatedText, entry.SourceLanguage, entry.TargetLanguage,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

// Delete removes one entry owned by the identity
func (r *HistoryRepo) Delete(ctx context.Context, identityID, entryID string) error {
	query := `
		DELETE FROM translation_history
		WHERE identity_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, identityID, entryID)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrHistoryEntryNotFound
	}
	return nil
}

// ListByIdentity returns all entries of the identity, newest first
func (r *HistoryRepo) ListByIdentity(ctx context.Context, identityID string) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, identity_id, original_text, translated_text, source_lang, target_lang, created_at
		FROM translation_history
		WHERE identity_id = $1
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, identityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.IdentityID, &e.OriginalText, &e.TranslatedText, &e.SourceLanguage, &e.TargetLanguage, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
