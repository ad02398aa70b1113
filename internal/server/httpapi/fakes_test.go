package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/logging"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/services"
)

const goodToken = "good-token"

var alice = &models.User{ID: "11111111-1111-1111-1111-111111111111", UserName: "alice", PasswordHash: "secret-hash"}

type fakeUsers struct {
	UserService

	registered []services.NewUser
	registerFn func(services.NewUser) (*models.User, error)
	adminFn    func(*models.User, services.NewUser) (*models.User, error)
	passwordFn func(cur, next string) error
	deleted    []string
}

func (f *fakeUsers) Login(_ context.Context, userName, password string) (string, error) {
	if userName == "alice" && password == "pw" {
		return goodToken, nil
	}
	return "", common.ErrorUnauthorized
}

func (f *fakeUsers) ResolveToken(_ context.Context, token string) (*models.User, error) {
	if token == goodToken {
		return alice, nil
	}
	return nil, common.ErrorUnauthorized
}

func (f *fakeUsers) RegisterPublic(_ context.Context, in services.NewUser) (*models.User, error) {
	f.registered = append(f.registered, in)
	return f.registerFn(in)
}

func (f *fakeUsers) RegisterByAdmin(_ context.Context, caller *models.User, in services.NewUser) (*models.User, error) {
	return f.adminFn(caller, in)
}

func (f *fakeUsers) ListUsers(context.Context, int, int) ([]*models.User, error) {
	return []*models.User{alice}, nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, u *models.User, name *string, enc *bool) (*models.User, error) {
	if name == nil && enc == nil {
		return nil, common.ErrorInvalidInput
	}
	c := *u
	if name != nil {
		c.UserName = *name
	}
	return &c, nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, _ *models.User, cur, next string) error {
	return f.passwordFn(cur, next)
}

func (f *fakeUsers) DeleteUser(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type journalCall struct {
	userID, name string
	flag         bool
	newName      *string
	skip, limit  int
}

type fakeJournals struct {
	JournalService

	calls []journalCall
	err   error
}

func (f *fakeJournals) result(c journalCall, name string) (*models.Journal, error) {
	f.calls = append(f.calls, c)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Journal{ID: 1, UserID: c.userID, Name: name, NameLower: strings.ToLower(name), Entries: []*models.Entry{}}, nil
}

func (f *fakeJournals) Create(_ context.Context, userID, name string) (*models.Journal, error) {
	return f.result(journalCall{userID: userID, name: name}, name)
}

func (f *fakeJournals) List(_ context.Context, userID string, deleted bool, skip, limit int) ([]*models.Journal, error) {
	j, err := f.result(journalCall{userID: userID, flag: deleted, skip: skip, limit: limit}, "j")
	if err != nil {
		return nil, err
	}
	return []*models.Journal{j}, nil
}

func (f *fakeJournals) Get(_ context.Context, userID, name string, deleted bool) (*models.Journal, error) {
	return f.result(journalCall{userID: userID, name: name, flag: deleted}, name)
}

func (f *fakeJournals) Rename(_ context.Context, userID, name, newName string) (*models.Journal, error) {
	return f.result(journalCall{userID: userID, name: name, newName: &newName}, newName)
}

func (f *fakeJournals) Delete(_ context.Context, userID, name string, now bool) error {
	_, err := f.result(journalCall{userID: userID, name: name, flag: now}, name)
	return err
}

func (f *fakeJournals) Revive(_ context.Context, userID, name string, newName *string) (*models.Journal, error) {
	return f.result(journalCall{userID: userID, name: name, newName: newName}, name)
}

type fakeEntries struct {
	EntryService

	created  []services.EntryInput
	updated  []*int64
	deleted  []bool
	revived  []services.ReviveOptions
	searched []services.SearchQuery
	err      error
}

func (f *fakeEntries) entry(in services.EntryInput) *models.Entry {
	e := &models.Entry{ID: 7, JournalID: 1, Short: in.Short, Long: in.Long}
	for i, w := range in.Keywords {
		e.Keywords = append(e.Keywords, &models.Keyword{ID: int64(i + 1), EntryID: 7, Word: w})
	}
	return e
}

func (f *fakeEntries) Create(_ context.Context, _, _ string, in services.EntryInput) (*models.Entry, error) {
	f.created = append(f.created, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.entry(in), nil
}

func (f *fakeEntries) Get(_ context.Context, _, journal string, id int64, _ bool) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Entry{ID: id, Short: journal}, nil
}

func (f *fakeEntries) Update(_ context.Context, _, _ string, _ int64, in services.EntryInput, dest *int64) (*models.Entry, error) {
	f.updated = append(f.updated, dest)
	if f.err != nil {
		return nil, f.err
	}
	return f.entry(in), nil
}

func (f *fakeEntries) Delete(_ context.Context, _, _ string, _ int64, now bool) error {
	f.deleted = append(f.deleted, now)
	return f.err
}

func (f *fakeEntries) Revive(_ context.Context, _ string, id int64, opts services.ReviveOptions) (*models.Entry, error) {
	f.revived = append(f.revived, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Entry{ID: id}, nil
}

func (f *fakeEntries) Search(_ context.Context, _ string, q services.SearchQuery) ([]*models.Entry, error) {
	f.searched = append(f.searched, q)
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Entry{}, nil
}

type fakeSubscriber struct {
	ch chan []byte
}

func (f *fakeSubscriber) Subscribe(context.Context, string) (<-chan []byte, error) {
	return f.ch, nil
}

type testAPI struct {
	users    *fakeUsers
	journals *fakeJournals
	entries  *fakeEntries
	updates  *fakeSubscriber
	handler  http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	a := &testAPI{
		users:    &fakeUsers{},
		journals: &fakeJournals{},
		entries:  &fakeEntries{},
		updates:  &fakeSubscriber{ch: make(chan []byte, 1)},
	}
	h := NewHandler(a.users, a.journals, a.entries, a.updates, logging.Nop())
	a.handler = h.Routes(Options{CORSAllowedOrigins: []string{"*"}})
	return a
}

// do sends a request with an optional JSON body; token may be empty.
func (a *testAPI) do(method, target, body, token string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}
