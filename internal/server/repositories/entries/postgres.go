package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const entryColumns = `e.id, e.journal_id, e.short, e.long, e.date, e.deleted_on`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	e := &models.Entry{}
	var deletedOn sql.NullTime
	if err := s.Scan(&e.ID, &e.JournalID, &e.Short, &e.Long, &e.Date, &deletedOn); err != nil {
		return nil, err
	}
	e.DeletedOn = dbx.TimePtr(deletedOn)
	return e, nil
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query :=
		`INSERT INTO entries (journal_id, short, long, date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, entry.JournalID, entry.Short, entry.Long, entry.Date).Scan(&entry.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// GetByID returns the entry only if its journal belongs to userID.
func (r *PostgresRepository) GetByID(ctx context.Context, userID string, id int64, includeDeleted bool) (*models.Entry, error) {
	query :=
		`SELECT ` + entryColumns + `
		 FROM entries e JOIN journals j ON j.id = e.journal_id
		 WHERE e.id = $1 AND j.user_id = $2 AND ($3 OR e.deleted_on IS NULL)
		 `
	return r.getOne(ctx, query, id, userID, includeDeleted)
}

func (r *PostgresRepository) GetLiveByShort(ctx context.Context, journalID int64, short string) (*models.Entry, error) {
	query :=
		`SELECT ` + entryColumns + `
		 FROM entries e
		 WHERE e.journal_id = $1 AND e.short = $2 AND e.deleted_on IS NULL
		 `
	return r.getOne(ctx, query, journalID, short)
}

// Update replaces short, long, date and journal of a live entry.
func (r *PostgresRepository) Update(ctx context.Context, entry *models.Entry) error {
	query :=
		`UPDATE entries SET journal_id = $2, short = $3, long = $4, date = $5
		 WHERE id = $1 AND deleted_on IS NULL
		 `
	return r.exec(ctx, query, entry.ID, entry.JournalID, entry.Short, entry.Long, entry.Date)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id int64, on time.Time) error {
	return r.exec(ctx, `UPDATE entries SET deleted_on = $2 WHERE id = $1 AND deleted_on IS NULL`, id, on)
}

// SoftDeleteByJournal tombstones the live entries of a journal. Entries that
// already carry a tombstone keep their original date.
func (r *PostgresRepository) SoftDeleteByJournal(ctx context.Context, journalID int64, on time.Time) (int64, error) {
	return r.count(ctx, `UPDATE entries SET deleted_on = $2 WHERE journal_id = $1 AND deleted_on IS NULL`, journalID, on)
}

func (r *PostgresRepository) Revive(ctx context.Context, id int64, short string) error {
	return r.exec(ctx, `UPDATE entries SET deleted_on = NULL, short = $2 WHERE id = $1 AND deleted_on IS NOT NULL`, id, short)
}

// ReviveByJournal clears the tombstone of every tombstoned entry in the
// journal. When several tombstoned entries share a short, only the most
// recently deleted one is revived so live shorts stay unique; an entry is
// also skipped if a live entry already holds its short.
func (r *PostgresRepository) ReviveByJournal(ctx context.Context, journalID int64) (int64, error) {
	query :=
		`UPDATE entries SET deleted_on = NULL
		 WHERE id IN (
		     SELECT DISTINCT ON (t.short) t.id
		     FROM entries t
		     WHERE t.journal_id = $1 AND t.deleted_on IS NOT NULL
		       AND NOT EXISTS (
		           SELECT 1 FROM entries l
		           WHERE l.journal_id = t.journal_id AND l.short = t.short AND l.deleted_on IS NULL
		       )
		     ORDER BY t.short, t.deleted_on DESC, t.id DESC
		 )
		 `
	return r.count(ctx, query, journalID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM entries WHERE id = $1`, id)
}

func (r *PostgresRepository) ListByJournals(ctx context.Context, journalIDs []int64, includeDeleted bool) ([]*models.Entry, error) {
	if len(journalIDs) == 0 {
		return nil, nil
	}
	query :=
		`SELECT ` + entryColumns + `
		 FROM entries e
		 WHERE e.journal_id = ANY($1) AND ($2 OR e.deleted_on IS NULL)
		 ORDER BY e.id
		 `
	return r.list(ctx, query, journalIDs, includeDeleted)
}

// Find runs a keyword search. Pagination is applied after every filter in
// both match modes.
func (r *PostgresRepository) Find(ctx context.Context, filter models.EntryFilter) ([]*models.Entry, error) {
	query, args := buildFindQuery(filter)
	return r.list(ctx, query, args...)
}

// PurgeTombstonedBefore hard-deletes entries tombstoned strictly before cutoff.
func (r *PostgresRepository) PurgeTombstonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.count(ctx, `DELETE FROM entries WHERE deleted_on IS NOT NULL AND deleted_on < $1`, cutoff)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	n, err := r.count(ctx, query, args...)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return 0, common.ErrorConflict
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
