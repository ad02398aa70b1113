package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/entries"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/journals"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/keywords"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/snapshots"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Journals(db dbx.DBTX) journals.Repository
	Entries(db dbx.DBTX) entries.Repository
	Keywords(db dbx.DBTX) keywords.Repository
	Snapshots(db dbx.DBTX) snapshots.Repository
}
