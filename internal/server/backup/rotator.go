package backup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mneme/internal/dbx"
	"github.com/dmitrijs2005/mneme/internal/logging"
	"github.com/dmitrijs2005/mneme/internal/server/config"
	"github.com/dmitrijs2005/mneme/internal/server/metrics"
	"github.com/dmitrijs2005/mneme/internal/server/models"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
)

// Rotator runs the snapshot and prune loops.
type Rotator struct {
	repomanager   repomanager.RepositoryManager
	withTx        dbx.TxRunner
	sink          Sink
	interval      time.Duration
	pruneInterval time.Duration
	retention     time.Duration
	logger        logging.Logger
	now           func() time.Time
}

func NewRotator(db *sql.DB, m repomanager.RepositoryManager, sink Sink, cfg *config.Config, logger logging.Logger) *Rotator {
	return &Rotator{
		repomanager:   m,
		withTx:        dbx.NewTxRunner(db, dbx.ReadOnlySnapshot),
		sink:          sink,
		interval:      cfg.BackupInterval,
		pruneInterval: cfg.BackupPruneInterval,
		retention:     cfg.BackupRetention,
		logger:        logger.With("module", "backup"),
		now:           time.Now,
	}
}

// Snapshot reads the whole store in one read-only transaction and stores it
// under the name of the moment the read began.
func (r *Rotator) Snapshot(ctx context.Context) (string, error) {
	started := r.now()

	var snap *models.Snapshot
	err := r.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		snap, err = r.repomanager.Snapshots(tx).Read(ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("read store: %w", err)
	}
	snap.TakenAt = started.UTC()

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	name := Name(started)
	if err := r.sink.Put(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

// Prune deletes snapshots older than the retention window and returns how
// many were removed. Malformed names are left alone.
func (r *Rotator) Prune(ctx context.Context) (int, error) {
	names, err := r.sink.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := r.now().Add(-r.retention)
	removed := 0
	for _, name := range names {
		taken, ok := ParseName(name)
		if !ok {
			r.logger.Debug(ctx, "skipping unrecognised backup", "name", name)
			continue
		}
		if !taken.Before(cutoff) {
			continue
		}
		if err := r.sink.Delete(ctx, name); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Run starts both loops and blocks until ctx is done. Each loop acts
// immediately and then once per interval; failures are logged and retried
// on the next tick.
func (r *Rotator) Run(ctx context.Context) error {
	r.logger.Info(ctx, "backup rotator started",
		"interval", r.interval.String(), "prune_interval", r.pruneInterval.String(), "retention", r.retention.String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		every(ctx, r.interval, r.snapshot)
		return nil
	})
	g.Go(func() error {
		every(ctx, r.pruneInterval, r.prune)
		return nil
	})
	err := g.Wait()

	r.logger.Info(ctx, "backup rotator stopped")
	return err
}

func (r *Rotator) snapshot(ctx context.Context) {
	name, err := r.Snapshot(ctx)
	metrics.RecordBackup(r.now(), err)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error(ctx, "backup failed", "err", err)
		}
		return
	}
	r.logger.Info(ctx, "backup created", "name", name)
}

func (r *Rotator) prune(ctx context.Context) {
	n, err := r.Prune(ctx)
	metrics.BackupsPruned.Add(float64(n))
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error(ctx, "backup prune failed", "err", err)
		}
		return
	}
	if n > 0 {
		r.logger.Info(ctx, "old backups removed", "count", n)
	}
}

func every(ctx context.Context, d time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
