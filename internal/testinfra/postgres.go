package testinfra

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/mneme/internal/server/repositories/repomanager"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DefaultPostgresImage = "postgres:16-alpine"
	postgresPort         = "5432/tcp"
	postgresStartTimeout = 90 * time.Second
)

// StartPostgres runs a disposable PostgreSQL container, applies the mneme
// migrations and returns an open handle. Container and handle are released
// when the test ends. The test is skipped when Docker is unavailable.
func StartPostgres(t *testing.T) *sql.DB {
	t.Helper()
	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), postgresStartTimeout)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        DefaultPostgresImage,
		ExposedPorts: []string{postgresPort},
		Env: map[string]string{
			"POSTGRES_USER":     "mneme",
			"POSTGRES_PASSWORD": "mneme",
			"POSTGRES_DB":       "mneme",
			"TZ":                "UTC",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(postgresPort),
			// the server restarts once after init; the second line means ready
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithStartupTimeout(postgresStartTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, postgresPort)
	if err != nil {
		t.Fatalf("get mapped port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://mneme:mneme@%s:%s/mneme?sslmode=disable", host, port.Port())
	db, err := repomanager.OpenPostgres(ctx, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := repomanager.NewPostgresRepositoryManager().RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return db
}
