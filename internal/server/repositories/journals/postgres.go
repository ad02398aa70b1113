package journals

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

const journalColumns = `id, user_id, name, name_lower, deleted_on`

type scanner interface {
	Scan(dest ...any) error
}

func scanJournal(s scanner) (*models.Journal, error) {
	j := &models.Journal{}
	var deletedOn sql.NullTime
	if err := s.Scan(&j.ID, &j.UserID, &j.Name, &j.NameLower, &deletedOn); err != nil {
		return nil, err
	}
	j.DeletedOn = dbx.TimePtr(deletedOn)
	return j, nil
}

func (r *PostgresRepository) Create(ctx context.Context, journal *models.Journal) (*models.Journal, error) {
	query :=
		`INSERT INTO journals (user_id, name, name_lower)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, journal.UserID, journal.Name, journal.NameLower).Scan(&journal.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return journal, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Journal, error) {
	j, err := scanJournal(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return j, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID string, id int64, includeDeleted bool) (*models.Journal, error) {
	query :=
		`SELECT ` + journalColumns + ` FROM journals
		 WHERE id = $1 AND user_id = $2 AND ($3 OR deleted_on IS NULL)
		 `
	return r.getOne(ctx, query, id, userID, includeDeleted)
}

func (r *PostgresRepository) GetLiveByName(ctx context.Context, userID, nameLower string) (*models.Journal, error) {
	query :=
		`SELECT ` + journalColumns + ` FROM journals
		 WHERE user_id = $1 AND name_lower = $2 AND deleted_on IS NULL
		 `
	return r.getOne(ctx, query, userID, nameLower)
}

// GetTombstonedByName returns the most recently tombstoned journal with the
// given name.
func (r *PostgresRepository) GetTombstonedByName(ctx context.Context, userID, nameLower string) (*models.Journal, error) {
	query :=
		`SELECT ` + journalColumns + ` FROM journals
		 WHERE user_id = $1 AND name_lower = $2 AND deleted_on IS NOT NULL
		 ORDER BY deleted_on DESC, id DESC
		 LIMIT 1
		 `
	return r.getOne(ctx, query, userID, nameLower)
}

// GetByName prefers the live journal and, when includeDeleted is set, falls
// back to the most recently tombstoned one.
func (r *PostgresRepository) GetByName(ctx context.Context, userID, nameLower string, includeDeleted bool) (*models.Journal, error) {
	query :=
		`SELECT ` + journalColumns + ` FROM journals
		 WHERE user_id = $1 AND name_lower = $2 AND ($3 OR deleted_on IS NULL)
		 ORDER BY deleted_on DESC NULLS FIRST, id DESC
		 LIMIT 1
		 `
	return r.getOne(ctx, query, userID, nameLower, includeDeleted)
}

func (r *PostgresRepository) List(ctx context.Context, userID string, includeDeleted bool, skip, limit int) ([]*models.Journal, error) {
	query :=
		`SELECT ` + journalColumns + ` FROM journals
		 WHERE user_id = $1 AND ($2 OR deleted_on IS NULL)
		 ORDER BY id
		 OFFSET $3 LIMIT $4
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, includeDeleted, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id int64, name, nameLower string) error {
	query := `UPDATE journals SET name = $2, name_lower = $3 WHERE id = $1 AND deleted_on IS NULL`
	return r.exec(ctx, query, id, name, nameLower)
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id int64, on time.Time) error {
	query := `UPDATE journals SET deleted_on = $2 WHERE id = $1 AND deleted_on IS NULL`
	return r.exec(ctx, query, id, on)
}

// Revive clears the tombstone and stores the (possibly new) name.
func (r *PostgresRepository) Revive(ctx context.Context, id int64, name, nameLower string) error {
	query := `UPDATE journals SET deleted_on = NULL, name = $2, name_lower = $3 WHERE id = $1 AND deleted_on IS NOT NULL`
	return r.exec(ctx, query, id, name, nameLower)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return r.exec(ctx, `DELETE FROM journals WHERE id = $1`, id)
}

// PurgeTombstonedBefore hard-deletes journals tombstoned strictly before
// cutoff. Entries and keywords follow through ON DELETE CASCADE.
func (r *PostgresRepository) PurgeTombstonedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM journals WHERE deleted_on IS NOT NULL AND deleted_on < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
