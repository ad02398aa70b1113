// Package snapshots reads the whole store for backups. Run it inside a
// repeatable-read transaction so the tables agree with each other.
package snapshots

import (
	"context"

	"github.com/dmitrijs2005/mneme/internal/server/models"
)

type Repository interface {
	Read(ctx context.Context) (*models.Snapshot, error)
}
