package entries

import (
	"context"

	"github.com/dmitrijs2005/daybook/internal/server/models"
)

type Repository interface {
	CreateOrUpdate(ctx context.Context, entry *models.Entry) error
	SelectUpdated(ctx context.Context, userID string, sinceVersion int64) ([]*models.Entry, error)
}
