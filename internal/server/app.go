// Package server wires storage, services, background workers and the HTTP
// API together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/mneme/internal/logging"
	"github.com/dmitrijs2005/mneme/internal/server/backup"
	"github.com/dmitrijs2005/mneme/internal/server/bootstrap"
	"github.com/dmitrijs2005/mneme/internal/server/config"
	"github.com/dmitrijs2005/mneme/internal/server/events"
	"github.com/dmitrijs2005/mneme/internal/server/httpapi"
	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mneme/internal/server/services"
	"github.com/dmitrijs2005/mneme/internal/server/sweeper"
	"golang.org/x/sync/errgroup"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	broker  *events.Broker
	server  *httpapi.HTTPServer
	sweeper *sweeper.Sweeper
	rotator *backup.Rotator
}

// NewApp opens the database, applies migrations, seeds the admin account and
// builds every component. The caller owns the returned App and must Run it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogBackend, c.LogLevel)

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, db *sql.DB, logger logging.Logger) (*App, error) {
	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	broker := events.NewBroker(logger)

	us := services.NewUserService(db, rm, c)
	js := services.NewJournalService(db, rm, broker)
	es := services.NewEntryService(db, rm, broker)

	if err := bootstrap.SeedAdmin(ctx, us, c, os.Stderr, logger); err != nil {
		broker.Close()
		return nil, err
	}

	sink, err := newSink(ctx, c)
	if err != nil {
		broker.Close()
		return nil, err
	}

	h := httpapi.NewHandler(us, js, es, broker, logger)
	routes := h.Routes(httpapi.Options{
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		LoginRateLimit:     loginRateLimit,
		LoginRateWindow:    loginRateWindow,
	})

	server := httpapi.NewHTTPServer(c.EndpointAddrHTTP, routes, logger)
	server.OnShutdown(func() {
		if err := broker.Close(); err != nil {
			logger.Error(ctx, "closing broker", "err", err)
		}
	})

	return &App{
		config:  c,
		logger:  logger,
		db:      db,
		broker:  broker,
		server:  server,
		sweeper: sweeper.New(db, rm, c.DeleteAfterDays, c.SweepInterval, logger),
		rotator: backup.NewRotator(db, rm, sink, c, logger),
	}, nil
}

func newSink(ctx context.Context, c *config.Config) (backup.Sink, error) {
	if c.S3Bucket == "" {
		sink, err := backup.NewLocalSink(c.BackupDir)
		if err != nil {
			return nil, fmt.Errorf("backup dir: %w", err)
		}
		return sink, nil
	}

	client, err := backup.NewS3Client(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return backup.NewS3Sink(client, c.S3Bucket, ""), nil
}

// Run serves until SIGINT/SIGTERM or until any component fails, then shuts
// everything down and releases the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddrHTTP, "instance", app.config.Instance)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.server.Run(gctx) })
	g.Go(func() error { return app.sweeper.Run(gctx) })
	g.Go(func() error { return app.rotator.Run(gctx) })

	err := g.Wait()

	if cerr := app.broker.Close(); cerr != nil {
		app.logger.Error(ctx, "closing broker", "err", cerr)
	}
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "err", cerr)
	}

	app.logger.Info(ctx, "Stopped")
	return err
}
