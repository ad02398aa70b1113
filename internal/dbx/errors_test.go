package dbx

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert journal: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("23505")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsInvalidText(t *testing.T) {
	assert.True(t, IsInvalidText(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, IsInvalidText(&pgconn.PgError{Code: "23505"}))
}

func TestTimePtr(t *testing.T) {
	assert.Nil(t, TimePtr(sql.NullTime{}))

	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	got := TimePtr(sql.NullTime{Time: now, Valid: true})
	if assert.NotNil(t, got) {
		assert.True(t, now.Equal(*got))
	}
}
