package assets

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

// Repository is the relational index over asset blobs. Every operation that
// takes a userID is owner-scoped: a valid asset id belonging to another user
// behaves exactly like a missing one.
type Repository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByIDForUser(ctx context.Context, id string, userID string) (*models.Asset, error)
	ListByEntry(ctx context.Context, entryID string, userID string) ([]*models.Asset, error)
	DeleteForUser(ctx context.Context, id string, userID string) error
}
