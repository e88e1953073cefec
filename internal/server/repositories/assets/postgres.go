// Package assets provides the PostgreSQL-backed repository holding asset
// metadata rows. The blob bytes themselves live in a blob.Store.
package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const assetColumns = `id, user_id, entry_id, filename, mime_type, size, storage_path,
		is_encrypted, wrapped_dek, dek_nonce, dek_auth_tag, content_nonce, content_auth_tag, created_at`

// Create inserts the metadata row. The caller must have written the blob
// first; a failed insert leaves only an orphaned blob, never a row without
// bytes.
func (r *PostgresRepository) Create(ctx context.Context, a *models.Asset) error {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	if _, err := r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.EntryID, a.Filename, a.MimeType, a.Size, a.StoragePath,
		a.IsEncrypted, a.WrappedDEK, a.DEKNonce, a.DEKAuthTag, a.ContentNonce, a.ContentAuthTag,
		a.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByIDForUser returns the asset only if userID owns it; an existing asset
// belonging to someone else is reported as common.ErrorNotFound so ownership
// cannot be probed through existence side-channels.
func (r *PostgresRepository) GetByIDForUser(ctx context.Context, id string, userID string) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1 AND user_id = $2`

	a := &models.Asset{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&a.ID, &a.UserID, &a.EntryID, &a.Filename, &a.MimeType, &a.Size, &a.StoragePath,
		&a.IsEncrypted, &a.WrappedDEK, &a.DEKNonce, &a.DEKAuthTag, &a.ContentNonce, &a.ContentAuthTag,
		&a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// ListByEntry returns all of the requesting owner's assets under one entry.
func (r *PostgresRepository) ListByEntry(ctx context.Context, entryID string, userID string) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets
		WHERE entry_id = $1 AND user_id = $2
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, entryID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select assets: %w", err)
	}
	defer rows.Close()

	var result []*models.Asset
	for rows.Next() {
		a := &models.Asset{}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.EntryID, &a.Filename, &a.MimeType, &a.Size, &a.StoragePath,
			&a.IsEncrypted, &a.WrappedDEK, &a.DEKNonce, &a.DEKAuthTag, &a.ContentNonce, &a.ContentAuthTag,
			&a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteForUser removes the row scoped to owner. Rows affected 0 maps to
// common.ErrorNotFound (missing or not owned, indistinguishable by design).
func (r *PostgresRepository) DeleteForUser(ctx context.Context, id string, userID string) error {
	query := `DELETE FROM assets WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
