package entries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mneme/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	GetByID(ctx context.Context, userID string, id int64, includeDeleted bool) (*models.Entry, error)
	GetLiveByShort(ctx context.Context, journalID int64, short string) (*models.Entry, error)
	Update(ctx context.Context, entry *models.Entry) error
	SoftDelete(ctx context.Context, id int64, on time.Time) error
	SoftDeleteByJournal(ctx context.Context, journalID int64, on time.Time) (int64, error)
	Revive(ctx context.Context, id int64, short string) error
	ReviveByJournal(ctx context.Context, journalID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	ListByJournals(ctx context.Context, journalIDs []int64, includeDeleted bool) ([]*models.Entry, error)
	Find(ctx context.Context, filter models.EntryFilter) ([]*models.Entry, error)
	PurgeTombstonedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
