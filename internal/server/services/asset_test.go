package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/cryptox"
	"github.com/dmitrijs2005/daybook/internal/dbx"
	"github.com/dmitrijs2005/daybook/internal/logging"
	"github.com/dmitrijs2005/daybook/internal/server/blob"
	"github.com/dmitrijs2005/daybook/internal/server/models"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/assets"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/entries"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/daybook/internal/server/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memAssetRepo is an in-memory assets.Repository for service tests, scoped
// by (id, userID) the same way the postgres implementation is.
type memAssetRepo struct {
	rows map[string]*models.Asset
}

func newMemAssetRepo() *memAssetRepo { return &memAssetRepo{rows: map[string]*models.Asset{}} }

func (m *memAssetRepo) Create(ctx context.Context, a *models.Asset) error {
	copied := *a
	m.rows[a.ID] = &copied
	return nil
}

func (m *memAssetRepo) GetByIDForUser(ctx context.Context, id, userID string) (*models.Asset, error) {
	a, ok := m.rows[id]
	if !ok || a.UserID != userID {
		return nil, common.ErrorNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *memAssetRepo) ListByEntry(ctx context.Context, entryID, userID string) ([]*models.Asset, error) {
	var result []*models.Asset
	for _, a := range m.rows {
		if a.EntryID == entryID && a.UserID == userID {
			copied := *a
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *memAssetRepo) DeleteForUser(ctx context.Context, id, userID string) error {
	a, ok := m.rows[id]
	if !ok || a.UserID != userID {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	return nil
}

// memRepoManager vends the in-memory asset repo; the other repositories are
// not used by AssetService.
type memRepoManager struct {
	assets *memAssetRepo
}

func (m *memRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (m *memRepoManager) Users(db dbx.DBTX) users.Repository                  { return nil }
func (m *memRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository  { return nil }
func (m *memRepoManager) Entries(db dbx.DBTX) entries.Repository              { return nil }
func (m *memRepoManager) Assets(db dbx.DBTX) assets.Repository                { return m.assets }

func newAssetService(t *testing.T) (*AssetService, *memAssetRepo) {
	t.Helper()
	blobs, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	repo := newMemAssetRepo()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewAssetService(nil, &memRepoManager{assets: repo}, blobs, logger), repo
}

func TestAssetService_CreateUnencrypted(t *testing.T) {
	svc, _ := newAssetService(t)

	a, err := svc.Create(context.Background(), "u1", &AssetUpload{
		EntryID:  "42",
		Filename: "note.wav",
		MimeType: "audio/wav",
		Data:     []byte("seventeen bytes!!"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, int64(17), a.Size)
	assert.False(t, a.IsEncrypted)
	assert.Empty(t, a.WrappedDEK)
	assert.True(t, strings.HasSuffix(a.StoragePath, a.ID+".wav"))

	// blob written before the row: content must be readable back
	r, size, err := svc.OpenContent(context.Background(), a)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(17), size)
}

func TestAssetService_CreateEncryptedStoresAllFiveFields(t *testing.T) {
	svc, repo := newAssetService(t)

	meta := cryptox.EncryptionMeta{
		WrappedDEK:     "d2Rlaw==",
		DEKNonce:       "bm9uY2Ux",
		DEKAuthTag:     "dGFnMQ==",
		ContentNonce:   "bm9uY2Uy",
		ContentAuthTag: "dGFnMg==",
	}

	a, err := svc.Create(context.Background(), "u1", &AssetUpload{
		EntryID:    "42",
		Filename:   "note.enc",
		MimeType:   "application/octet-stream",
		Data:       []byte("ciphertext"),
		Encryption: meta,
	})
	require.NoError(t, err)
	require.True(t, a.IsEncrypted)

	stored := repo.rows[a.ID]
	// byte-for-byte round trip of the envelope metadata
	assert.Equal(t, meta.WrappedDEK, stored.WrappedDEK)
	assert.Equal(t, meta.DEKNonce, stored.DEKNonce)
	assert.Equal(t, meta.DEKAuthTag, stored.DEKAuthTag)
	assert.Equal(t, meta.ContentNonce, stored.ContentNonce)
	assert.Equal(t, meta.ContentAuthTag, stored.ContentAuthTag)
}

func TestAssetService_OwnershipIsolation(t *testing.T) {
	svc, _ := newAssetService(t)

	a, err := svc.Create(context.Background(), "alice", &AssetUpload{
		EntryID: "1", Filename: "a.bin", MimeType: "application/octet-stream", Data: []byte("x"),
	})
	require.NoError(t, err)

	// every owner-scoped operation behaves as not-found for bob
	_, err = svc.Get(context.Background(), a.ID, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = svc.Delete(context.Background(), a.ID, "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := svc.ListByEntry(context.Background(), "1", "bob")
	require.NoError(t, err)
	assert.Empty(t, list)

	// alice still sees it
	_, err = svc.Get(context.Background(), a.ID, "alice")
	assert.NoError(t, err)
}

func TestAssetService_DeleteRemovesBlobAndRow(t *testing.T) {
	svc, _ := newAssetService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", &AssetUpload{
		EntryID: "1", Filename: "a.wav", MimeType: "audio/wav", Data: []byte("x"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID, "u1"))

	_, err = svc.Get(ctx, a.ID, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = os.Stat(a.StoragePath)
	assert.True(t, os.IsNotExist(err))

	// second delete: row already gone
	err = svc.Delete(ctx, a.ID, "u1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAssetService_OpenContentMissingBlob(t *testing.T) {
	svc, _ := newAssetService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", &AssetUpload{
		EntryID: "1", Filename: "a.wav", MimeType: "audio/wav", Data: []byte("x"),
	})
	require.NoError(t, err)

	// simulate the one tolerated inconsistency: row survives, file gone
	require.NoError(t, os.Remove(a.StoragePath))

	_, _, err = svc.OpenContent(ctx, a)
	assert.ErrorIs(t, err, common.ErrorFileMissing)
}

func TestAssetService_CreatePartialEncryptionRejected(t *testing.T) {
	svc, repo := newAssetService(t)

	_, err := svc.Create(context.Background(), "u1", &AssetUpload{
		EntryID:  "42",
		Filename: "note.enc",
		MimeType: "application/octet-stream",
		Data:     []byte("ciphertext"),
		Encryption: cryptox.EncryptionMeta{
			WrappedDEK: "d2Rlaw==",
			DEKNonce:   "bm9uY2Ux",
		},
	})
	assert.ErrorIs(t, err, common.ErrorPartialEncryptionFields)
	assert.Empty(t, repo.rows)
}

func TestStorageKey_IgnoresClientPathComponents(t *testing.T) {
	key := storageKey("abc", "../../evil/path.wav")
	assert.Equal(t, "abc.wav", key)

	key = storageKey("abc", "noext")
	assert.Equal(t, "abc", key)
}
