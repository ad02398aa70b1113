package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/server/events"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournalCreate(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	ctx := context.Background()
	u := f.user(t, "alice")

	j := f.journal(t, u.ID, " Work ")
	assert.Equal(t, "Work", j.Name)
	assert.Equal(t, "work", j.NameLower)
	assert.Empty(t, j.Entries)

	_, err := f.journals.Create(ctx, u.ID, "WORK")
	assert.ErrorIs(t, err, common.ErrorConflict)

	_, err = f.journals.Create(ctx, u.ID, "  ")
	assert.ErrorIs(t, err, common.ErrorInvalidInput)

	other := f.user(t, "bob")
	_, err = f.journals.Create(ctx, other.ID, "work")
	assert.NoError(t, err)

	assert.Equal(t, []string{"create:journal", "create:journal"}, f.events.events)
}

func TestJournalGet_NotOwned(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	f.journal(t, alice.ID, "private")

	_, err := f.journals.Get(context.Background(), bob.ID, "private", true)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestJournalSoftDelete_VisibilityAndCascade(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	ctx := context.Background()
	u := f.user(t, "alice")

	f.journal(t, u.ID, "j")
	early := f.entry(t, u.ID, "j", "early")
	f.entry(t, u.ID, "j", "late")

	require.NoError(t, f.entries.Delete(ctx, u.ID, "j", early.ID, false))
	earlyDate := *f.store.entries[early.ID].DeletedOn

	f.clock = f.clock.Add(72 * time.Hour)
	require.NoError(t, f.journals.Delete(ctx, u.ID, "j", false))

	live, err := f.journals.List(ctx, u.ID, false, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, live)

	all, err := f.journals.List(ctx, u.ID, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Tombstoned())
	require.Len(t, all[0].Entries, 2)

	for _, e := range all[0].Entries {
		require.True(t, e.Tombstoned())
		if e.ID == early.ID {
			assert.Equal(t, earlyDate, *e.DeletedOn)
		} else {
			assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), *e.DeletedOn)
		}
	}

	_, err = f.journals.Get(ctx, u.ID, "j", false)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.ErrorIs(t, f.journals.Delete(ctx, u.ID, "j", false), common.ErrorNotFound)
}

func TestJournalHardDelete(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	ctx := context.Background()
	u := f.user(t, "alice")

	f.journal(t, u.ID, "j")
	f.entry(t, u.ID, "j", "e", "w")
	require.NoError(t, f.journals.Delete(ctx, u.ID, "j", false))

	require.NoError(t, f.journals.Delete(ctx, u.ID, "j", true))
	assert.Empty(t, f.store.journals)
	assert.Empty(t, f.store.entries)
	assert.Empty(t, f.store.keywords)

	assert.ErrorIs(t, f.journals.Delete(ctx, u.ID, "j", true), common.ErrorNotFound)
}

func TestJournalRename(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	ctx := context.Background()
	u := f.user(t, "alice")
	f.journal(t, u.ID, "a")
	f.journal(t, u.ID, "b")

	_, err := f.journals.Rename(ctx, u.ID, "a", "B")
	assert.ErrorIs(t, err, common.ErrorConflict)

	j, err := f.journals.Rename(ctx, u.ID, "a", "A")
	require.NoError(t, err)
	assert.Equal(t, "A", j.Name)

	_, err = f.journals.Rename(ctx, u.ID, "missing", "c")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestJournalRevive_NameCollision(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	ctx := context.Background()
	u := f.user(t, "alice")

	original := f.journal(t, u.ID, "j1")
	f.entry(t, u.ID, "j1", "kept")
	require.NoError(t, f.journals.Delete(ctx, u.ID, "j1", false))

	f.journal(t, u.ID, "j1")

	_, err := f.journals.Revive(ctx, u.ID, "j1", nil)
	require.ErrorIs(t, err, common.ErrorConflict)
	assert.True(t, f.store.journals[original.ID].Tombstoned())

	revived, err := f.journals.Revive(ctx, u.ID, "j1", ptr("j1-restored"))
	require.NoError(t, err)
	assert.Equal(t, original.ID, revived.ID)
	assert.Equal(t, "j1-restored", revived.Name)
	assert.False(t, revived.Tombstoned())
	require.Len(t, revived.Entries, 1)
	assert.False(t, revived.Entries[0].Tombstoned())
}

func TestJournalRevive_OneEntryPerShort(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	ctx := context.Background()
	u := f.user(t, "alice")

	f.journal(t, u.ID, "j")
	first := f.entry(t, u.ID, "j", "same")
	require.NoError(t, f.entries.Delete(ctx, u.ID, "j", first.ID, false))
	f.clock = f.clock.Add(24 * time.Hour)
	second := f.entry(t, u.ID, "j", "same")
	require.NoError(t, f.journals.Delete(ctx, u.ID, "j", false))

	j, err := f.journals.Revive(ctx, u.ID, "j", nil)
	require.NoError(t, err)
	require.Len(t, j.Entries, 1)
	assert.Equal(t, second.ID, j.Entries[0].ID)
	assert.True(t, f.store.entries[first.ID].Tombstoned())
}

func TestJournalRevive_NothingTombstoned(t *testing.T) {
	f := newFixture(t, common.InstancePrivate)
	u := f.user(t, "alice")
	f.journal(t, u.ID, "j")

	_, err := f.journals.Revive(context.Background(), u.ID, "j", nil)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestJournalCreate_RunsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	store := newMemStore()
	s := NewJournalService(db, &memManager{s: store}, events.Nop{})

	j, err := s.Create(context.Background(), "u1", "j")
	require.NoError(t, err)
	assert.Equal(t, "j", j.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJournalCreate_RollsBackOnConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := newMemStore()
	store.journals[1] = &models.Journal{ID: 1, UserID: "u1", Name: "j", NameLower: "j"}
	store.seq = 1

	mock.ExpectBegin()
	mock.ExpectRollback()

	s := NewJournalService(db, &memManager{s: store}, events.Nop{})
	_, err = s.Create(context.Background(), "u1", "J")
	assert.ErrorIs(t, err, common.ErrorConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
