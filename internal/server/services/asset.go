package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/cryptox"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/blob"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// AssetUpload is a fully parsed upload request, produced by the multipart
// pipeline and consumed by AssetService.Create.
type AssetUpload struct {
	EntryID  string
	Filename string
	MimeType string
	Data     []byte
	// Encryption must be either complete or empty; Create rejects a
	// partial set with common.ErrorPartialEncryptionFields.
	Encryption cryptox.EncryptionMeta
}

// AssetService owns asset lifecycle: blob bytes plus the metadata row,
// created and deleted in an order that keeps "blob without row" as the only
// possible transient inconsistency.
type AssetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	logger      logging.Logger

	// newID is a seam for tests.
	newID func() string
	now   func() time.Time
}

func NewAssetService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, logger logging.Logger) *AssetService {
	return &AssetService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		logger:      logger.With("module", "assets"),
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// storageKey derives the blob key from the generated id plus the extension
// of the client-supplied filename. Only the extension is trusted; the name
// itself never reaches the filesystem.
func storageKey(id, clientFilename string) string {
	ext := filepath.Ext(filepath.Base(clientFilename))
	if strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	return id + ext
}

// Create writes the payload to blob storage, then inserts the metadata row.
// If the insert fails the already-written blob is left behind as a
// recoverable orphan and the error is returned; callers see no partial
// asset either way.
func (s *AssetService) Create(ctx context.Context, userID string, up *AssetUpload) (*models.Asset, error) {

	if !up.Encryption.Empty() && !up.Encryption.Complete() {
		return nil, common.ErrorPartialEncryptionFields
	}

	id := s.newID()
	key := storageKey(id, up.Filename)

	if err := s.blobs.Save(ctx, key, up.Data); err != nil {
		return nil, fmt.Errorf("error writing blob: %w", err)
	}

	a := &models.Asset{
		ID:          id,
		UserID:      userID,
		EntryID:     up.EntryID,
		Filename:    up.Filename,
		MimeType:    up.MimeType,
		Size:        int64(len(up.Data)),
		StoragePath: s.blobs.Path(key),
		IsEncrypted: up.Encryption.Complete(),
		CreatedAt:   s.now().UnixMilli(),
	}
	if a.IsEncrypted {
		a.WrappedDEK = up.Encryption.WrappedDEK
		a.DEKNonce = up.Encryption.DEKNonce
		a.DEKAuthTag = up.Encryption.DEKAuthTag
		a.ContentNonce = up.Encryption.ContentNonce
		a.ContentAuthTag = up.Encryption.ContentAuthTag
	}

	repo := s.repomanager.Assets(s.db)
	if err := repo.Create(ctx, a); err != nil {
		s.logger.Error(ctx, "asset row insert failed, blob orphaned",
			"asset_id", id, "storage_path", a.StoragePath, "error", err.Error())
		return nil, fmt.Errorf("error creating asset: %w", err)
	}

	s.logger.Info(ctx, "asset uploaded",
		"asset_id", id, "entry_id", a.EntryID, "filename", a.Filename,
		"size", a.Size, "encrypted", a.IsEncrypted)

	return a, nil
}

// Get returns the owner's asset metadata, common.ErrorNotFound otherwise.
func (s *AssetService) Get(ctx context.Context, id string, userID string) (*models.Asset, error) {
	repo := s.repomanager.Assets(s.db)
	return repo.GetByIDForUser(ctx, id, userID)
}

// OpenContent streams the asset bytes. The caller must have fetched the
// asset through Get, so ownership is already established.
func (s *AssetService) OpenContent(ctx context.Context, a *models.Asset) (io.ReadCloser, int64, error) {
	r, size, err := s.blobs.Open(ctx, storageKey(a.ID, a.Filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("asset %s: %w", a.ID, common.ErrorFileMissing)
		}
		return nil, 0, err
	}
	s.logger.Info(ctx, "asset downloaded",
		"asset_id", a.ID, "entry_id", a.EntryID, "size", size, "encrypted", a.IsEncrypted)
	return r, size, nil
}

// ListByEntry returns the owner's assets under one entry.
func (s *AssetService) ListByEntry(ctx context.Context, entryID string, userID string) ([]*models.Asset, error) {
	repo := s.repomanager.Assets(s.db)
	return repo.ListByEntry(ctx, entryID, userID)
}

// Delete removes blob then row, mirroring the create order. A missing blob
// is tolerated (deletion is idempotent with respect to the file); a missing
// or foreign row yields common.ErrorNotFound.
func (s *AssetService) Delete(ctx context.Context, id string, userID string) error {
	repo := s.repomanager.Assets(s.db)

	a, err := repo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, storageKey(a.ID, a.Filename)); err != nil {
		return fmt.Errorf("error deleting blob: %w", err)
	}

	if err := repo.DeleteForUser(ctx, id, userID); err != nil {
		return err
	}

	s.logger.Info(ctx, "asset deleted", "asset_id", id, "entry_id", a.EntryID)
	return nil
}
