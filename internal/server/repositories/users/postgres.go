// Package users provides the PostgreSQL-backed repository for user accounts
// and their per-user sync version counters.
package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, salt, verifier)
         VALUES ($1, $2, $3, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query,
		user.ID, user.UserName, user.Salt, user.Verifier); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, verifier, salt FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, userName).Scan(&user.ID, &user.UserName, &user.Verifier, &user.Salt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// IncrementCurrentVersion advances the user's sync counter and returns the
// new value. Called once per pushed entry, inside the push transaction.
func (r *PostgresRepository) IncrementCurrentVersion(ctx context.Context, userID string) (int64, error) {
	query :=
		`UPDATE users set current_version = current_version + 1
		 WHERE id = $1
		 RETURNING current_version
		 `

	var maxVersion int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&maxVersion)

	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return maxVersion, nil
}
