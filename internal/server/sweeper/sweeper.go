// Package sweeper purges tombstoned journals and entries once they are older
// than the retention window.
package sweeper

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/logging"
	"github.com/dmitrijs2005/mneme/internal/server/metrics"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mneme/internal/timex"
)

type Sweeper struct {
	repomanager     repomanager.RepositoryManager
	withTx          dbx.TxRunner
	deleteAfterDays int
	interval        time.Duration
	logger          logging.Logger
	now             func() time.Time
}

func New(db *sql.DB, m repomanager.RepositoryManager, deleteAfterDays int, interval time.Duration, logger logging.Logger) *Sweeper {
	return &Sweeper{
		repomanager:     m,
		withTx:          dbx.NewTxRunner(db, nil),
		deleteAfterDays: deleteAfterDays,
		interval:        interval,
		logger:          logger.With("module", "sweeper"),
		now:             time.Now,
	}
}

// Result reports what one sweep removed. Entries purged through their
// journal's cascade are not counted.
type Result struct {
	Cutoff   time.Time
	Journals int64
	Entries  int64
}

// Cutoff is the first tombstone date that survives a sweep run at now.
func (s *Sweeper) Cutoff(now time.Time) time.Time {
	return timex.Today(now).AddDate(0, 0, -s.deleteAfterDays)
}

// RunOnce hard-deletes every journal and entry tombstoned strictly before
// the cutoff.
func (s *Sweeper) RunOnce(ctx context.Context) (Result, error) {
	res := Result{Cutoff: s.Cutoff(s.now())}

	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if res.Journals, err = s.repomanager.Journals(tx).PurgeTombstonedBefore(ctx, res.Cutoff); err != nil {
			return err
		}
		res.Entries, err = s.repomanager.Entries(tx).PurgeTombstonedBefore(ctx, res.Cutoff)
		return err
	})
	if err != nil {
		return Result{Cutoff: res.Cutoff}, err
	}
	return res, nil
}

// Run sweeps immediately and then every interval until ctx is done. A failed
// sweep is logged and the loop carries on.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info(ctx, "retention sweeper started", "interval", s.interval.String(), "delete_after_days", s.deleteAfterDays)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)

		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "retention sweeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	metrics.RecordSweep(res.Journals, res.Entries, err)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error(ctx, "sweep failed", "err", err)
		}
		return
	}
	if res.Journals > 0 || res.Entries > 0 {
		s.logger.Info(ctx, "purged tombstoned records",
			"cutoff", res.Cutoff.Format(time.DateOnly), "journals", res.Journals, "entries", res.Entries)
	}
}
