package keywords

import (
	"context"
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

// Replace drops every keyword of the entry and inserts words in order. It is
// not a diff: callers run it inside the entry's transaction.
func (r *PostgresRepository) Replace(ctx context.Context, entryID int64, words []string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM keywords WHERE entry_id = $1`, entryID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if len(words) == 0 {
		return nil
	}

	query :=
		`INSERT INTO keywords (entry_id, word)
		 SELECT $1, w FROM unnest($2::text[]) WITH ORDINALITY AS t(w, n)
		 ORDER BY n
		 `
	if _, err := r.db.ExecContext(ctx, query, entryID, words); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByEntries(ctx context.Context, entryIDs []int64) ([]*models.Keyword, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, entry_id, word FROM keywords WHERE entry_id = ANY($1) ORDER BY id`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Keyword
	for rows.Next() {
		k := &models.Keyword{}
		if err := rows.Scan(&k.ID, &k.EntryID, &k.Word); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
