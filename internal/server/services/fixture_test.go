package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/server/config"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *memStore
	rm       *memManager
	events   *recorder
	clock    time.Time
	users    *UserService
	journals *JournalService
	entries  *EntryService
}

func newFixture(t *testing.T, instance string) *fixture {
	t.Helper()

	f := &fixture{
		store:  newMemStore(),
		events: &recorder{},
		clock:  time.Date(2024, 3, 10, 15, 30, 0, 0, time.UTC),
	}
	f.rm = &memManager{s: f.store}

	cfg := &config.Config{SecretKey: "k", AccessTokenValidityDuration: time.Hour, Instance: instance}
	f.users = NewUserService(nil, f.rm, cfg)

	now := func() time.Time { return f.clock }

	f.journals = NewJournalService(nil, f.rm, f.events)
	f.journals.withTx, f.journals.now = f.store.tx, now

	f.entries = NewEntryService(nil, f.rm, f.events)
	f.entries.withTx, f.entries.now = f.store.tx, now

	return f
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.rm.Users(nil).Create(context.Background(), &models.User{UserName: name, PasswordHash: "x", Tier: common.TierFree})
	require.NoError(t, err)
	return u
}

func (f *fixture) journal(t *testing.T, userID, name string) *models.Journal {
	t.Helper()
	j, err := f.journals.Create(context.Background(), userID, name)
	require.NoError(t, err)
	return j
}

func (f *fixture) entry(t *testing.T, userID, journal, short string, words ...string) *models.Entry {
	t.Helper()
	e, err := f.entries.Create(context.Background(), userID, journal, EntryInput{Short: short, Long: short + " text", Date: "2001-10-25", Keywords: words})
	require.NoError(t, err)
	return e
}

func ptr[T any](v T) *T { return &v }
