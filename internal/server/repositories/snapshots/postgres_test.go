package snapshots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_AllTables(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM\s+users`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "username", "password_hash", "encrypted", "admin", "tier", "created_at"}).
			AddRow("u-1", "admin", "h", false, true, 0, now))
	mock.ExpectQuery(`FROM\s+journals`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "user_id", "name", "name_lower", "deleted_on"}).
			AddRow(int64(1), "u-1", "J", "j", nil).
			AddRow(int64(2), "u-1", "Old", "old", now))
	mock.ExpectQuery(`FROM\s+entries`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "journal_id", "short", "long", "date", "deleted_on"}).
			AddRow(int64(1), int64(1), "s", "", now, nil))
	mock.ExpectQuery(`FROM\s+keywords`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "entry_id", "word"}).
			AddRow(int64(1), int64(1), "w"))

	s, err := NewPostgresRepository(db).Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, s.Users, 1)
	require.Len(t, s.Journals, 2)
	assert.NotNil(t, s.Journals[1].DeletedOn)
	assert.Len(t, s.Entries, 1)
	assert.Len(t, s.Keywords, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRead_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+users`).WillReturnError(errors.New("conn reset"))

	_, err = NewPostgresRepository(db).Read(context.Background())
	assert.ErrorContains(t, err, "db error: conn reset")
}
