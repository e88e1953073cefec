package assets

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/daybook/internal/common"
	"github.com/dmitrijs2005/daybook/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var assetRows = []string{
	"id", "user_id", "entry_id", "filename", "mime_type", "size", "storage_path",
	"is_encrypted", "wrapped_dek", "dek_nonce", "dek_auth_tag", "content_nonce", "content_auth_tag", "created_at",
}

func sampleAsset() *models.Asset {
	return &models.Asset{
		ID:          "a1",
		UserID:      "u1",
		EntryID:     "42",
		Filename:    "note.wav",
		MimeType:    "audio/wav",
		Size:        17,
		StoragePath: "/data/assets/a1.wav",
		CreatedAt:   1700000000000,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()

	mock.ExpectExec(`INSERT INTO assets`).
		WithArgs(
			a.ID, a.UserID, a.EntryID, a.Filename, a.MimeType, a.Size, a.StoragePath,
			false, "", "", "", "", "", a.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO assets`).
		WillReturnError(errors.New("boom"))

	if err := repo.Create(context.Background(), sampleAsset()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestGetByIDForUser_OwnerScoped(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()

	mock.ExpectQuery(`SELECT .* FROM assets WHERE id = \$1 AND user_id = \$2`).
		WithArgs("a1", "u1").
		WillReturnRows(sqlmock.NewRows(assetRows).AddRow(
			a.ID, a.UserID, a.EntryID, a.Filename, a.MimeType, a.Size, a.StoragePath,
			a.IsEncrypted, a.WrappedDEK, a.DEKNonce, a.DEKAuthTag, a.ContentNonce, a.ContentAuthTag, a.CreatedAt,
		))

	got, err := repo.GetByIDForUser(context.Background(), "a1", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "a1" || got.Filename != "note.wav" {
		t.Fatalf("unexpected asset: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByIDForUser_OtherOwnerNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// same asset id, different user -> empty result set -> ErrorNotFound
	mock.ExpectQuery(`SELECT .* FROM assets WHERE id = \$1 AND user_id = \$2`).
		WithArgs("a1", "u2").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByIDForUser(context.Background(), "a1", "u2")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestListByEntry(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAsset()

	mock.ExpectQuery(`SELECT .* FROM assets\s+WHERE entry_id = \$1 AND user_id = \$2`).
		WithArgs("42", "u1").
		WillReturnRows(sqlmock.NewRows(assetRows).AddRow(
			a.ID, a.UserID, a.EntryID, a.Filename, a.MimeType, a.Size, a.StoragePath,
			a.IsEncrypted, a.WrappedDEK, a.DEKNonce, a.DEKAuthTag, a.ContentNonce, a.ContentAuthTag, a.CreatedAt,
		))

	got, err := repo.ListByEntry(context.Background(), "42", "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].EntryID != "42" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestDeleteForUser_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM assets WHERE id = \$1 AND user_id = \$2`).
		WithArgs("a1", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.DeleteForUser(context.Background(), "a1", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteForUser_NotOwnedRowsAffected0(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM assets WHERE id = \$1 AND user_id = \$2`).
		WithArgs("a1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteForUser(context.Background(), "a1", "u2")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
