package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
)

// EntryService implements the server half of entry sync: version-assigning
// pushes and delta pulls. Entries are opaque encrypted payloads, so the unit
// of conflict resolution is the whole entry, ordered by the per-user version
// counter.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager) *EntryService {
	return &EntryService{db: db, repomanager: m}
}

// Push upserts the client's pending entries. Each entry gets the next value
// of the user's version counter; the increments and upserts run in one
// transaction so versions are never skipped or reused. Returns the processed
// entries (with assigned versions) and the new max version.
func (s *EntryService) Push(ctx context.Context, userID string, pending []*models.Entry) ([]*models.Entry, int64, error) {

	var processed []*models.Entry
	var maxServerVersion int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		userRepo := s.repomanager.Users(tx)
		entryRepo := s.repomanager.Entries(tx)

		for _, e := range pending {

			version, err := userRepo.IncrementCurrentVersion(ctx, userID)
			if err != nil {
				return err
			}

			e.Version = version
			maxServerVersion = version
			e.UserID = userID

			if err := entryRepo.CreateOrUpdate(ctx, e); err != nil {
				return err
			}

			processed = append(processed, e)
		}

		return nil
	})

	if err != nil {
		return nil, 0, fmt.Errorf("error pushing entries: %v", err)
	}

	return processed, maxServerVersion, nil
}

// Pull returns the entries updated after sinceVersion along with the highest
// version seen, which the client records as its new sync watermark.
func (s *EntryService) Pull(ctx context.Context, userID string, sinceVersion int64) ([]*models.Entry, int64, error) {

	entryRepo := s.repomanager.Entries(s.db)

	updated, err := entryRepo.SelectUpdated(ctx, userID, sinceVersion)
	if err != nil {
		return nil, 0, fmt.Errorf("error pulling entries: %v", err)
	}

	maxVersion := sinceVersion
	for _, e := range updated {
		if e.Version > maxVersion {
			maxVersion = e.Version
		}
	}

	return updated, maxVersion, nil
}
