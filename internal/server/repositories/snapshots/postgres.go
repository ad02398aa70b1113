package snapshots

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Read(ctx context.Context) (*models.Snapshot, error) {
	s := &models.Snapshot{}

	err := r.each(ctx, `SELECT id, username, password_hash, encrypted, admin, tier, created_at FROM users ORDER BY created_at, id`,
		func(rows *sql.Rows) error {
			u := &models.User{}
			if err := rows.Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.Encrypted, &u.Admin, &u.Tier, &u.CreatedAt); err != nil {
				return err
			}
			s.Users = append(s.Users, u)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = r.each(ctx, `SELECT id, user_id, name, name_lower, deleted_on FROM journals ORDER BY id`,
		func(rows *sql.Rows) error {
			j := &models.Journal{}
			var deletedOn sql.NullTime
			if err := rows.Scan(&j.ID, &j.UserID, &j.Name, &j.NameLower, &deletedOn); err != nil {
				return err
			}
			j.DeletedOn = dbx.TimePtr(deletedOn)
			s.Journals = append(s.Journals, j)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = r.each(ctx, `SELECT id, journal_id, short, long, date, deleted_on FROM entries ORDER BY id`,
		func(rows *sql.Rows) error {
			e := &models.Entry{}
			var deletedOn sql.NullTime
			if err := rows.Scan(&e.ID, &e.JournalID, &e.Short, &e.Long, &e.Date, &deletedOn); err != nil {
				return err
			}
			e.DeletedOn = dbx.TimePtr(deletedOn)
			s.Entries = append(s.Entries, e)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = r.each(ctx, `SELECT id, entry_id, word FROM keywords ORDER BY id`,
		func(rows *sql.Rows) error {
			k := &models.Keyword{}
			if err := rows.Scan(&k.ID, &k.EntryID, &k.Word); err != nil {
				return err
			}
			s.Keywords = append(s.Keywords, k)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *PostgresRepository) each(ctx context.Context, query string, fn func(*sql.Rows) error) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
