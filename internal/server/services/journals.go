package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mneme/internal/common"
	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/server/events"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mneme/internal/timex"
)

type JournalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    events.Notifier
	withTx      dbx.TxRunner
	now         clock
}

func NewJournalService(db *sql.DB, m repomanager.RepositoryManager, n events.Notifier) *JournalService {
	return &JournalService{db: db, repomanager: m, notifier: n, withTx: dbx.NewTxRunner(db, nil), now: time.Now}
}

func (s *JournalService) Create(ctx context.Context, userID, name string) (*models.Journal, error) {
	name, lower := normalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("journal name is required: %w", common.ErrorInvalidInput)
	}

	var journal *models.Journal
	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Journals(tx)

		if err := ensureNameFree(ctx, repo.GetLiveByName, userID, lower, 0); err != nil {
			return err
		}

		var err error
		journal, err = repo.Create(ctx, &models.Journal{UserID: userID, Name: name, NameLower: lower})
		if errors.Is(err, common.ErrorConflict) {
			return fmt.Errorf("journal %q already exists: %w", name, common.ErrorConflict)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	journal.Entries = []*models.Entry{}
	s.notifier.Notify(ctx, userID, events.New(events.ActionCreate, events.TypeJournal, journal))
	return journal, nil
}

// ensureNameFree fails with common.ErrorConflict when a live journal other
// than exceptID already uses nameLower.
func ensureNameFree(ctx context.Context, getLive func(context.Context, string, string) (*models.Journal, error), userID, nameLower string, exceptID int64) error {
	live, err := getLive(ctx, userID, nameLower)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return nil
	case err != nil:
		return err
	case live.ID == exceptID:
		return nil
	default:
		return fmt.Errorf("journal %q already exists: %w", live.Name, common.ErrorConflict)
	}
}

func (s *JournalService) List(ctx context.Context, userID string, includeDeleted bool, skip, limit int) ([]*models.Journal, error) {
	skip, limit = page(skip, limit)

	journals, err := s.repomanager.Journals(s.db).List(ctx, userID, includeDeleted, skip, limit)
	if err != nil {
		return nil, err
	}
	if err := attachEntries(ctx, s.repomanager, s.db, journals, includeDeleted); err != nil {
		return nil, err
	}
	return journals, nil
}

// Get returns the named journal with its entries. With includeDeleted a
// tombstoned journal is returned when no live one has the name.
func (s *JournalService) Get(ctx context.Context, userID, name string, includeDeleted bool) (*models.Journal, error) {
	_, lower := normalizeName(name)

	journal, err := s.repomanager.Journals(s.db).GetByName(ctx, userID, lower, includeDeleted)
	if err != nil {
		return nil, err
	}
	if err := attachEntries(ctx, s.repomanager, s.db, []*models.Journal{journal}, includeDeleted); err != nil {
		return nil, err
	}
	return journal, nil
}

// Rename changes the display name of a live journal. A case-only rename of
// the same journal is allowed.
func (s *JournalService) Rename(ctx context.Context, userID, name, newName string) (*models.Journal, error) {
	_, lower := normalizeName(name)
	newName, newLower := normalizeName(newName)
	if newName == "" {
		return nil, fmt.Errorf("journal name is required: %w", common.ErrorInvalidInput)
	}

	var journal *models.Journal
	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Journals(tx)

		var err error
		journal, err = repo.GetLiveByName(ctx, userID, lower)
		if err != nil {
			return err
		}
		if err := ensureNameFree(ctx, repo.GetLiveByName, userID, newLower, journal.ID); err != nil {
			return err
		}
		if err := repo.Rename(ctx, journal.ID, newName, newLower); err != nil {
			return err
		}
		journal.Name, journal.NameLower = newName, newLower

		return attachEntries(ctx, s.repomanager, tx, []*models.Journal{journal}, false)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, userID, events.New(events.ActionEdit, events.TypeJournal, journal))
	return journal, nil
}

// Delete tombstones the live journal and its live entries, or with now set
// removes the journal (live first, else the latest tombstoned) for good.
func (s *JournalService) Delete(ctx context.Context, userID, name string, now bool) error {
	_, lower := normalizeName(name)

	var journal *models.Journal
	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Journals(tx)

		var err error
		journal, err = repo.GetByName(ctx, userID, lower, now)
		if err != nil {
			return err
		}

		if now {
			return repo.Delete(ctx, journal.ID)
		}

		today := timex.Today(s.now())
		if err := repo.SoftDelete(ctx, journal.ID, today); err != nil {
			return err
		}
		_, err = s.repomanager.Entries(tx).SoftDeleteByJournal(ctx, journal.ID, today)
		return err
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, userID, events.New(events.ActionDelete, events.TypeJournal, journal.ID))
	return nil
}

// Revive restores the most recently tombstoned journal called name and all
// of its tombstoned entries. newName is required when a live journal has
// taken the name in the meantime.
func (s *JournalService) Revive(ctx context.Context, userID, name string, newName *string) (*models.Journal, error) {
	_, lower := normalizeName(name)

	var journal *models.Journal
	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		journal, err = s.repomanager.Journals(tx).GetTombstonedByName(ctx, userID, lower)
		if err != nil {
			return err
		}

		if err := reviveJournal(ctx, s.repomanager, tx, journal, newName); err != nil {
			return err
		}
		if _, err := s.repomanager.Entries(tx).ReviveByJournal(ctx, journal.ID); err != nil {
			return err
		}
		return attachEntries(ctx, s.repomanager, tx, []*models.Journal{journal}, false)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, userID, events.New(events.ActionRevive, events.TypeJournal, journal))
	return journal, nil
}

// reviveJournal clears the tombstone of journal under its own name or
// newName, failing with common.ErrorConflict if a live journal holds it.
func reviveJournal(ctx context.Context, rm repomanager.RepositoryManager, tx dbx.DBTX, journal *models.Journal, newName *string) error {
	name, lower := journal.Name, journal.NameLower
	if n := optional(newName); n != nil {
		name, lower = normalizeName(*n)
	}

	repo := rm.Journals(tx)
	if err := ensureNameFree(ctx, repo.GetLiveByName, journal.UserID, lower, journal.ID); err != nil {
		if newName == nil {
			return fmt.Errorf("%w; revive it under a new name", err)
		}
		return err
	}
	if err := repo.Revive(ctx, journal.ID, name, lower); err != nil {
		return err
	}

	journal.Name, journal.NameLower, journal.DeletedOn = name, lower, nil
	return nil
}
