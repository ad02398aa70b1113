package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/server/events"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mneme/internal/timex"
)

type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    events.Notifier
	withTx      dbx.TxRunner
	now         clock
}

func NewEntryService(db *sql.DB, m repomanager.RepositoryManager, n events.Notifier) *EntryService {
	return &EntryService{db: db, repomanager: m, notifier: n, withTx: dbx.NewTxRunner(db, nil), now: time.Now}
}

// EntryInput carries the caller-supplied entry fields. Date is an ISO-8601
// date or date-time.
type EntryInput struct {
	Short    string
	Long     string
	Date     string
	Keywords []string
}

func (in EntryInput) parse() (*models.Entry, []string, error) {
	short := strings.TrimSpace(in.Short)
	if short == "" {
		return nil, nil, fmt.Errorf("short is required: %w", common.ErrorInvalidInput)
	}
	date, err := timex.ParseDate(in.Date)
	if err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, common.ErrorInvalidInput)
	}
	return &models.Entry{Short: short, Long: in.Long, Date: date}, normalizeWords(in.Keywords), nil
}

func ensureShortFree(ctx context.Context, rm repomanager.RepositoryManager, tx dbx.DBTX, journalID int64, short string, exceptID int64) error {
	live, err := rm.Entries(tx).GetLiveByShort(ctx, journalID, short)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return err
	case live.ID == exceptID:
		return nil
	default:
		return fmt.Errorf("entry %q already exists: %w", short, common.ErrorConflict)
	}
}

func (s *EntryService) Create(ctx context.Context, userID, journalName string, in EntryInput) (*models.Entry, error) {
	entry, words, err := in.parse()
	if err != nil {
		return nil, err
	}
	_, lower := normalizeName(journalName)

	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		journal, err := s.repomanager.Journals(tx).GetLiveByName(ctx, userID, lower)
		if err != nil {
			return err
		}
		entry.JournalID = journal.ID

		if err := ensureShortFree(ctx, s.repomanager, tx, journal.ID, entry.Short, 0); err != nil {
			return err
		}
		if entry, err = s.repomanager.Entries(tx).Create(ctx, entry); err != nil {
			return err
		}
		if err := s.repomanager.Keywords(tx).Replace(ctx, entry.ID, words); err != nil {
			return err
		}
		return attachKeywords(ctx, s.repomanager, tx, []*models.Entry{entry})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, userID, events.New(events.ActionCreate, events.TypeEntry, entry))
	return entry, nil
}

// locate loads entry id and checks it sits in the journal called
// journalName. A mismatch is reported as not found.
func (s *EntryService) locate(ctx context.Context, db dbx.DBTX, userID, journalName string, id int64, includeDeleted bool) (*models.Entry, *models.Journal, error) {
	_, lower := normalizeName(journalName)

	entry, err := s.repomanager.Entries(db).GetByID(ctx, userID, id, includeDeleted)
	if err != nil {
		return nil, nil, err
	}
	journal, err := s.repomanager.Journals(db).GetByID(ctx, userID, entry.JournalID, includeDeleted)
	if err != nil {
		return nil, nil, err
	}
	if journal.NameLower != lower {
		return nil, nil, common.ErrorNotFound
	}
	return entry, journal, nil
}

func (s *EntryService) Get(ctx context.Context, userID, journalName string, id int64, includeDeleted bool) (*models.Entry, error) {
	entry, _, err := s.locate(ctx, s.db, userID, journalName, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	if err := attachKeywords(ctx, s.repomanager, s.db, []*models.Entry{entry}); err != nil {
		return nil, err
	}
	return entry, nil
}

// Update replaces short, long, date and the whole keyword set of a live
// entry. destJournalID, when set, moves the entry to another live journal
// of the same user.
func (s *EntryService) Update(ctx context.Context, userID, journalName string, id int64, in EntryInput, destJournalID *int64) (*models.Entry, error) {
	changes, words, err := in.parse()
	if err != nil {
		return nil, err
	}

	var entry *models.Entry
	err = s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		entry, _, err = s.locate(ctx, tx, userID, journalName, id, false)
		if err != nil {
			return err
		}

		if destJournalID != nil && *destJournalID != entry.JournalID {
			dest, err := s.repomanager.Journals(tx).GetByID(ctx, userID, *destJournalID, false)
			if err != nil {
				return err
			}
			entry.JournalID = dest.ID
		}
		entry.Short, entry.Long, entry.Date = changes.Short, changes.Long, changes.Date

		if err := ensureShortFree(ctx, s.repomanager, tx, entry.JournalID, entry.Short, entry.ID); err != nil {
			return err
		}
		if err := s.repomanager.Entries(tx).Update(ctx, entry); err != nil {
			return err
		}
		if err := s.repomanager.Keywords(tx).Replace(ctx, entry.ID, words); err != nil {
			return err
		}
		return attachKeywords(ctx, s.repomanager, tx, []*models.Entry{entry})
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, userID, events.New(events.ActionEdit, events.TypeEntry, entry))
	return entry, nil
}

// Delete tombstones a live entry, or with now set removes it (tombstoned or
// not) together with its keywords.
func (s *EntryService) Delete(ctx context.Context, userID, journalName string, id int64, now bool) error {
	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		entry, _, err := s.locate(ctx, tx, userID, journalName, id, now)
		if err != nil {
			return err
		}
		if now {
			return s.repomanager.Entries(tx).Delete(ctx, entry.ID)
		}
		return s.repomanager.Entries(tx).SoftDelete(ctx, entry.ID, timex.Today(s.now()))
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, userID, events.New(events.ActionDelete, events.TypeEntry, id))
	return nil
}

// ReviveOptions resolves collisions met while reviving an entry.
type ReviveOptions struct {
	NewShort       *string
	NewJournalName *string
}

// Revive restores a tombstoned entry. A tombstoned parent journal is revived
// first (the journal only, not its other entries), under NewJournalName if
// its name is taken. Any collision aborts the whole operation.
func (s *EntryService) Revive(ctx context.Context, userID string, id int64, opts ReviveOptions) (*models.Entry, error) {
	var entry *models.Entry
	var revivedJournal *models.Journal

	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		entry, err = s.repomanager.Entries(tx).GetByID(ctx, userID, id, true)
		if err != nil {
			return err
		}
		if !entry.Tombstoned() {
			return fmt.Errorf("entry %d is not deleted: %w", id, common.ErrorInvalidInput)
		}

		journal, err := s.repomanager.Journals(tx).GetByID(ctx, userID, entry.JournalID, true)
		if err != nil {
			return err
		}
		if journal.Tombstoned() {
			if err := reviveJournal(ctx, s.repomanager, tx, journal, opts.NewJournalName); err != nil {
				return err
			}
			revivedJournal = journal
		}

		short := entry.Short
		if n := optional(opts.NewShort); n != nil {
			short = *n
		}
		if err := ensureShortFree(ctx, s.repomanager, tx, entry.JournalID, short, entry.ID); err != nil {
			if opts.NewShort == nil {
				return fmt.Errorf("%w; revive it under a new short", err)
			}
			return err
		}
		if err := s.repomanager.Entries(tx).Revive(ctx, entry.ID, short); err != nil {
			return err
		}
		entry.Short, entry.DeletedOn = short, nil

		return attachKeywords(ctx, s.repomanager, tx, []*models.Entry{entry})
	})
	if err != nil {
		return nil, err
	}

	if revivedJournal != nil {
		s.notifier.Notify(ctx, userID, events.New(events.ActionRevive, events.TypeJournal, revivedJournal))
	}
	s.notifier.Notify(ctx, userID, events.New(events.ActionRevive, events.TypeEntry, entry))
	return entry, nil
}

// SearchQuery is a keyword search over one user's entries.
type SearchQuery struct {
	Keywords       []string
	Method         string
	JournalName    *string
	DateMin        *string
	DateMax        *string
	IncludeDeleted bool
	Skip           int
	Limit          int
}

// Search finds entries by keyword. Method "or" matches any keyword, "and"
// requires all of them; both are case-insensitive and paginate after
// filtering. Date bounds are exclusive.
func (s *EntryService) Search(ctx context.Context, userID string, q SearchQuery) ([]*models.Entry, error) {
	filter := models.EntryFilter{
		UserID:           userID,
		Keywords:         normalizeWords(q.Keywords),
		IncludeTombstone: q.IncludeDeleted,
	}
	filter.Skip, filter.Limit = page(q.Skip, q.Limit)

	switch mode := strings.ToLower(strings.TrimSpace(q.Method)); mode {
	case models.MatchAnd, models.MatchOr:
		filter.Mode = mode
	default:
		return nil, fmt.Errorf("method must be \"and\" or \"or\", got %q: %w", q.Method, common.ErrorInvalidInput)
	}

	var err error
	if filter.DateMin, err = parseOptionalDate(q.DateMin); err != nil {
		return nil, err
	}
	if filter.DateMax, err = parseOptionalDate(q.DateMax); err != nil {
		return nil, err
	}

	if name := optional(q.JournalName); name != nil {
		_, lower := normalizeName(*name)
		journal, err := s.repomanager.Journals(s.db).GetByName(ctx, userID, lower, q.IncludeDeleted)
		if err != nil {
			return nil, err
		}
		filter.JournalID = &journal.ID
	}

	entries, err := s.repomanager.Entries(s.db).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := attachKeywords(ctx, s.repomanager, s.db, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseOptionalDate(s *string) (*time.Time, error) {
	v := optional(s)
	if v == nil {
		return nil, nil
	}
	t, err := timex.ParseDate(*v)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrorInvalidInput)
	}
	return &t, nil
}
