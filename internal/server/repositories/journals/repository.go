package journals

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mneme/internal/server/models"
)

// Repository is the data access for journals. Name lookups take the
// normalized (lower-cased) name.
type Repository interface {
	Create(ctx context.Context, journal *models.Journal) (*models.Journal, error)
	GetByID(ctx context.Context, userID string, id int64, includeDeleted bool) (*models.Journal, error)
	GetLiveByName(ctx context.Context, userID, nameLower string) (*models.Journal, error)
	GetTombstonedByName(ctx context.Context, userID, nameLower string) (*models.Journal, error)
	GetByName(ctx context.Context, userID, nameLower string, includeDeleted bool) (*models.Journal, error)
	List(ctx context.Context, userID string, includeDeleted bool, skip, limit int) ([]*models.Journal, error)
	Rename(ctx context.Context, id int64, name, nameLower string) error
	SoftDelete(ctx context.Context, id int64, on time.Time) error
	Revive(ctx context.Context, id int64, name, nameLower string) error
	Delete(ctx context.Context, id int64) error
	PurgeTombstonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
