package keywords

import (
	"context"

	"github.com/dmitrijs2005/mneme/internal/server/models"
)

type Repository interface {
	Replace(ctx context.Context, entryID int64, words []string) error
	ListByEntries(ctx context.Context, entryIDs []int64) ([]*models.Keyword, error)
}
