// Package store is the client's local sqlite cache of entries. It remembers
// which entries carry unacked local edits (pending) and the highest server
// version seen, so the sync engine can resume with a hello/delta exchange.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/daybook/internal/client/models"
	"github.com/dmitrijs2005/daybook/internal/client/store/migrations"
	"github.com/dmitrijs2005/daybook/internal/common"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate cache db: %w", err)
	}
	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error { return s.db.Close() }

// Upsert records a local edit. The entry becomes pending until MarkSynced;
// its version is left untouched so the next hello still pulls anything the
// server assigned in the meantime.
func (s *Store) Upsert(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (id, payload, payload_nonce, deleted, pending, updated_at)
			VALUES (?, ?, ?, ?, 1, ?)
			ON CONFLICT(id) DO UPDATE SET payload = excluded.payload,
				payload_nonce = excluded.payload_nonce,
				deleted = excluded.deleted,
				pending = 1,
				updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Payload, e.PayloadNonce, e.Deleted, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}
	return nil
}

// ApplyRemote overwrites the cached entry with the server's copy. The entry
// is not pending afterwards: an applied remote update must not be re-pushed.
func (s *Store) ApplyRemote(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (id, payload, payload_nonce, deleted, version, pending, updated_at)
			VALUES (?, ?, ?, ?, ?, 0, ?)
			ON CONFLICT(id) DO UPDATE SET payload = excluded.payload,
				payload_nonce = excluded.payload_nonce,
				deleted = excluded.deleted,
				version = excluded.version,
				pending = 0,
				updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Payload, e.PayloadNonce, e.Deleted, e.Version, time.Now())
	if err != nil {
		return fmt.Errorf("failed to apply remote entry: %w", err)
	}
	return nil
}

// Get returns one cached entry or common.ErrorNotFound.
func (s *Store) Get(ctx context.Context, id string) (*models.Entry, error) {
	query := `SELECT id, payload, payload_nonce, deleted, version, pending, updated_at
			FROM entries WHERE id = ?`
	e := &models.Entry{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.Payload, &e.PayloadNonce, &e.Deleted, &e.Version, &e.Pending, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

// GetPending lists entries with unacked local edits, oldest first.
func (s *Store) GetPending(ctx context.Context) ([]*models.Entry, error) {
	query := `SELECT id, payload, payload_nonce, deleted, version, pending, updated_at
			FROM entries WHERE pending = 1 ORDER BY updated_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending entries: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e := &models.Entry{}
		if err := rows.Scan(&e.ID, &e.Payload, &e.PayloadNonce, &e.Deleted,
			&e.Version, &e.Pending, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// MarkSynced clears the pending flag and records the server-assigned version.
func (s *Store) MarkSynced(ctx context.Context, id string, version int64) error {
	query := `UPDATE entries SET pending = 0, version = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, version, id)
	if err != nil {
		return fmt.Errorf("failed to mark entry synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// MaxVersion returns the highest server version in the cache, the watermark
// sent in hello frames.
func (s *Store) MaxVersion(ctx context.Context) (int64, error) {
	var v sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM entries`).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("failed to select max version: %w", err)
	}
	return v.Int64, nil
}
