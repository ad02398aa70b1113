package services

import (
	"context"
	"database/sql"
	"slices"
	"sort"
	"time"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/server/events"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/entries"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/journals"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/keywords"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/snapshots"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/users"
	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the postgres schema, including its
// uniqueness rules and cascades.
type memStore struct {
	users    map[string]*models.User
	journals map[int64]*models.Journal
	entries  map[int64]*models.Entry
	keywords []*models.Keyword

	seq int64
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		journals: map[int64]*models.Journal{},
		entries:  map[int64]*models.Entry{},
	}
}

func (s *memStore) next() int64 {
	s.seq++
	return s.seq
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.seq = s.seq
	for k, v := range s.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range s.journals {
		c.journals[k] = copyJournal(v)
	}
	for k, v := range s.entries {
		c.entries[k] = copyEntry(v)
	}
	for _, k := range s.keywords {
		kw := *k
		c.keywords = append(c.keywords, &kw)
	}
	return c
}

// tx runs fn and rolls the store back if it fails.
func (s *memStore) tx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	saved := s.clone()
	if err := fn(ctx, nil); err != nil {
		*s = *saved
		return err
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyJournal(j *models.Journal) *models.Journal {
	c := *j
	c.DeletedOn = copyTime(j.DeletedOn)
	c.Entries = nil
	return &c
}

func copyEntry(e *models.Entry) *models.Entry {
	c := *e
	c.DeletedOn = copyTime(e.DeletedOn)
	c.Keywords = nil
	return &c
}

func (s *memStore) dropEntry(id int64) {
	delete(s.entries, id)
	s.keywords = slices.DeleteFunc(s.keywords, func(k *models.Keyword) bool { return k.EntryID == id })
}

func (s *memStore) dropJournal(id int64) {
	delete(s.journals, id)
	for eid, e := range s.entries {
		if e.JournalID == id {
			s.dropEntry(eid)
		}
	}
}

func (s *memStore) sortedJournals() []*models.Journal {
	out := make([]*models.Journal, 0, len(s.journals))
	for _, j := range s.journals {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

func (s *memStore) sortedEntries() []*models.Entry {
	out := make([]*models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// words returns the stored words of entry id.
func (s *memStore) words(id int64) []string {
	var out []string
	for _, k := range s.keywords {
		if k.EntryID == id {
			out = append(out, k.Word)
		}
	}
	return out
}

type memManager struct {
	s *memStore
}

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository              { return memUsers{m.s} }
func (m *memManager) Journals(dbx.DBTX) journals.Repository        { return memJournals{m.s} }
func (m *memManager) Entries(dbx.DBTX) entries.Repository          { return memEntries{m.s} }
func (m *memManager) Keywords(dbx.DBTX) keywords.Repository        { return memKeywords{m.s} }
func (m *memManager) Snapshots(dbx.DBTX) snapshots.Repository      { return nil }

// --- users ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	for _, o := range r.s.users {
		if o.UserName == u.UserName {
			return nil, common.ErrorConflict
		}
	}
	c := *u
	r.s.next()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Unix(r.s.seq, 0).UTC()
	r.s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) GetByUsername(_ context.Context, name string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.UserName == name {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) List(_ context.Context, skip, limit int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.Before(out[b].CreatedAt) })
	return paginate(out, skip, limit), nil
}

func (r memUsers) Update(_ context.Context, u *models.User) error {
	cur, ok := r.s.users[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for _, o := range r.s.users {
		if o.ID != u.ID && o.UserName == u.UserName {
			return common.ErrorConflict
		}
	}
	cur.UserName, cur.Encrypted = u.UserName, u.Encrypted
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r memUsers) Delete(_ context.Context, id string) error {
	if _, ok := r.s.users[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.users, id)
	for jid, j := range r.s.journals {
		if j.UserID == id {
			r.s.dropJournal(jid)
		}
	}
	return nil
}

// --- journals ---

type memJournals struct{ s *memStore }

func (r memJournals) Create(_ context.Context, j *models.Journal) (*models.Journal, error) {
	for _, o := range r.s.journals {
		if o.UserID == j.UserID && o.NameLower == j.NameLower && !o.Tombstoned() {
			return nil, common.ErrorConflict
		}
	}
	c := copyJournal(j)
	c.ID = r.s.next()
	r.s.journals[c.ID] = c
	return copyJournal(c), nil
}

func (r memJournals) GetByID(_ context.Context, userID string, id int64, includeDeleted bool) (*models.Journal, error) {
	j, ok := r.s.journals[id]
	if !ok || j.UserID != userID || (!includeDeleted && j.Tombstoned()) {
		return nil, common.ErrorNotFound
	}
	return copyJournal(j), nil
}

func (r memJournals) GetLiveByName(_ context.Context, userID, lower string) (*models.Journal, error) {
	for _, j := range r.s.sortedJournals() {
		if j.UserID == userID && j.NameLower == lower && !j.Tombstoned() {
			return copyJournal(j), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memJournals) GetTombstonedByName(_ context.Context, userID, lower string) (*models.Journal, error) {
	var best *models.Journal
	for _, j := range r.s.sortedJournals() {
		if j.UserID != userID || j.NameLower != lower || !j.Tombstoned() {
			continue
		}
		if best == nil || !j.DeletedOn.Before(*best.DeletedOn) {
			best = j
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return copyJournal(best), nil
}

func (r memJournals) GetByName(ctx context.Context, userID, lower string, includeDeleted bool) (*models.Journal, error) {
	j, err := r.GetLiveByName(ctx, userID, lower)
	if err == nil || !includeDeleted {
		return j, err
	}
	return r.GetTombstonedByName(ctx, userID, lower)
}

func (r memJournals) List(_ context.Context, userID string, includeDeleted bool, skip, limit int) ([]*models.Journal, error) {
	var out []*models.Journal
	for _, j := range r.s.sortedJournals() {
		if j.UserID == userID && (includeDeleted || !j.Tombstoned()) {
			out = append(out, copyJournal(j))
		}
	}
	return paginate(out, skip, limit), nil
}

func (r memJournals) Rename(_ context.Context, id int64, name, lower string) error {
	j, ok := r.s.journals[id]
	if !ok || j.Tombstoned() {
		return common.ErrorNotFound
	}
	j.Name, j.NameLower = name, lower
	return nil
}

func (r memJournals) SoftDelete(_ context.Context, id int64, on time.Time) error {
	j, ok := r.s.journals[id]
	if !ok || j.Tombstoned() {
		return common.ErrorNotFound
	}
	j.DeletedOn = &on
	return nil
}

func (r memJournals) Revive(_ context.Context, id int64, name, lower string) error {
	j, ok := r.s.journals[id]
	if !ok || !j.Tombstoned() {
		return common.ErrorNotFound
	}
	j.Name, j.NameLower, j.DeletedOn = name, lower, nil
	return nil
}

func (r memJournals) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.journals[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.dropJournal(id)
	return nil
}

func (r memJournals) PurgeTombstonedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, j := range r.s.journals {
		if j.Tombstoned() && j.DeletedOn.Before(cutoff) {
			r.s.dropJournal(id)
			n++
		}
	}
	return n, nil
}

// --- entries ---

type memEntries struct{ s *memStore }

func (r memEntries) Create(_ context.Context, e *models.Entry) (*models.Entry, error) {
	c := copyEntry(e)
	c.ID = r.s.next()
	r.s.entries[c.ID] = c
	return copyEntry(c), nil
}

func (r memEntries) GetByID(_ context.Context, userID string, id int64, includeDeleted bool) (*models.Entry, error) {
	e, ok := r.s.entries[id]
	if !ok || r.s.journals[e.JournalID].UserID != userID || (!includeDeleted && e.Tombstoned()) {
		return nil, common.ErrorNotFound
	}
	return copyEntry(e), nil
}

func (r memEntries) GetLiveByShort(_ context.Context, journalID int64, short string) (*models.Entry, error) {
	for _, e := range r.s.sortedEntries() {
		if e.JournalID == journalID && e.Short == short && !e.Tombstoned() {
			return copyEntry(e), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memEntries) Update(_ context.Context, e *models.Entry) error {
	cur, ok := r.s.entries[e.ID]
	if !ok || cur.Tombstoned() {
		return common.ErrorNotFound
	}
	cur.JournalID, cur.Short, cur.Long, cur.Date = e.JournalID, e.Short, e.Long, e.Date
	return nil
}

func (r memEntries) SoftDelete(_ context.Context, id int64, on time.Time) error {
	e, ok := r.s.entries[id]
	if !ok || e.Tombstoned() {
		return common.ErrorNotFound
	}
	e.DeletedOn = &on
	return nil
}

func (r memEntries) SoftDeleteByJournal(_ context.Context, journalID int64, on time.Time) (int64, error) {
	var n int64
	for _, e := range r.s.entries {
		if e.JournalID == journalID && !e.Tombstoned() {
			d := on
			e.DeletedOn = &d
			n++
		}
	}
	return n, nil
}

func (r memEntries) Revive(_ context.Context, id int64, short string) error {
	e, ok := r.s.entries[id]
	if !ok || !e.Tombstoned() {
		return common.ErrorNotFound
	}
	e.Short, e.DeletedOn = short, nil
	return nil
}

func (r memEntries) ReviveByJournal(_ context.Context, journalID int64) (int64, error) {
	live := map[string]bool{}
	latest := map[string]*models.Entry{}
	for _, e := range r.s.sortedEntries() {
		if e.JournalID != journalID {
			continue
		}
		if !e.Tombstoned() {
			live[e.Short] = true
			continue
		}
		if cur, ok := latest[e.Short]; !ok || !e.DeletedOn.Before(*cur.DeletedOn) {
			latest[e.Short] = e
		}
	}
	var n int64
	for short, e := range latest {
		if live[short] {
			continue
		}
		e.DeletedOn = nil
		n++
	}
	return n, nil
}

func (r memEntries) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.entries[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.dropEntry(id)
	return nil
}

func (r memEntries) ListByJournals(_ context.Context, ids []int64, includeDeleted bool) ([]*models.Entry, error) {
	var out []*models.Entry
	for _, e := range r.s.sortedEntries() {
		if slices.Contains(ids, e.JournalID) && (includeDeleted || !e.Tombstoned()) {
			out = append(out, copyEntry(e))
		}
	}
	return out, nil
}

func (r memEntries) Find(_ context.Context, f models.EntryFilter) ([]*models.Entry, error) {
	var out []*models.Entry
	for _, e := range r.s.sortedEntries() {
		j := r.s.journals[e.JournalID]
		if j.UserID != f.UserID {
			continue
		}
		if f.JournalID != nil && e.JournalID != *f.JournalID {
			continue
		}
		if !f.IncludeTombstone && (e.Tombstoned() || j.Tombstoned()) {
			continue
		}
		if f.DateMin != nil && !e.Date.After(*f.DateMin) {
			continue
		}
		if f.DateMax != nil && !e.Date.Before(*f.DateMax) {
			continue
		}
		if len(f.Keywords) > 0 {
			words := r.s.words(e.ID)
			matched := 0
			for _, w := range f.Keywords {
				if slices.Contains(words, w) {
					matched++
				}
			}
			if matched == 0 || (f.Mode == models.MatchAnd && matched != len(f.Keywords)) {
				continue
			}
		}
		out = append(out, copyEntry(e))
	}
	return paginate(out, f.Skip, f.Limit), nil
}

func (r memEntries) PurgeTombstonedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, e := range r.s.entries {
		if e.Tombstoned() && e.DeletedOn.Before(cutoff) {
			r.s.dropEntry(id)
			n++
		}
	}
	return n, nil
}

// --- keywords ---

type memKeywords struct{ s *memStore }

func (r memKeywords) Replace(_ context.Context, entryID int64, words []string) error {
	r.s.keywords = slices.DeleteFunc(r.s.keywords, func(k *models.Keyword) bool { return k.EntryID == entryID })
	for _, w := range words {
		r.s.keywords = append(r.s.keywords, &models.Keyword{ID: r.s.next(), EntryID: entryID, Word: w})
	}
	return nil
}

func (r memKeywords) ListByEntries(_ context.Context, ids []int64) ([]*models.Keyword, error) {
	var out []*models.Keyword
	for _, k := range r.s.keywords {
		if slices.Contains(ids, k.EntryID) {
			c := *k
			out = append(out, &c)
		}
	}
	return out, nil
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return nil
	}
	items = items[skip:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// recorder collects notifications.
type recorder struct {
	events []string
}

func (r *recorder) Notify(_ context.Context, _ string, ev events.Event) {
	r.events = append(r.events, ev.Event+":"+ev.Data.Type)
}
