package entries

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
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

func TestCreateOrUpdate_SuccessRowsAffected1(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO entries .* ON CONFLICT .* DO UPDATE SET .* WHERE entries\.user_id = EXCLUDED\.user_id;`)

	mock.ExpectExec(q.String()).
		WithArgs(
			"e1", "u1",
			[]byte("payload"), []byte("nonce"),
			false, int64(3),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.CreateOrUpdate(context.Background(), &models.Entry{
		ID:           "e1",
		UserID:       "u1",
		Payload:      []byte("payload"),
		PayloadNonce: []byte("nonce"),
		Version:      3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateOrUpdate_ConflictRowsAffected0(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// upsert against another user's entry id updates nothing
	mock.ExpectExec(`INSERT INTO entries`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.CreateOrUpdate(context.Background(), &models.Entry{
		ID:      "e1",
		UserID:  "u2",
		Version: 1,
	})
	if !errors.Is(err, common.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestCreateOrUpdate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO entries`).
		WillReturnError(errors.New("boom"))

	err := repo.CreateOrUpdate(context.Background(), &models.Entry{ID: "e1", UserID: "u1"})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestSelectUpdated_ReturnsDelta(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "payload", "payload_nonce", "deleted", "version"}).
		AddRow("e1", []byte("p1"), []byte("n1"), false, int64(5)).
		AddRow("e2", []byte("p2"), []byte("n2"), true, int64(6))

	mock.ExpectQuery(`SELECT .* from entries\s+WHERE user_id=\$1 and version>\$2`).
		WithArgs("u1", int64(4)).
		WillReturnRows(rows)

	got, err := repo.SelectUpdated(context.Background(), "u1", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[1].Version != 6 || !got[1].Deleted {
		t.Fatalf("unexpected entry: %+v", got[1])
	}
}

func TestSelectUpdated_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* from entries`).
		WillReturnError(errors.New("boom"))

	if _, err := repo.SelectUpdated(context.Background(), "u1", 0); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
