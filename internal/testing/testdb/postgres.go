// Package testdb runs repository tests against a real postgres started with
// testcontainers. One container is shared by every test in a package, so
// those tests must not run in parallel.
package testdb

import (
	"context"
	"sync"
	"testing"

	"internship-service/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
)

var (
	shared    *Postgres
	sharedErr error
	once      sync.Once
)

type Postgres struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

// Setup starts the shared container on first use. It skips the test in
// -short mode. The container is reaped by testcontainers when the test
// binary exits.
func Setup(t *testing.T) *Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	once.Do(func() {
		ctx := context.Background()
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("internships"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			),
		)
		if err != nil {
			sharedErr = err
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			sharedErr = err
			return
		}

		database := db.NewWithDSN(dsn)
		if err := database.PingContext(ctx); err != nil {
			sharedErr = err
			return
		}
		shared = &Postgres{Container: container, DB: database, DSN: dsn}
	})
	require.NoError(t, sharedErr, "failed to start postgres container")
	return shared
}

// Migrate creates the tables for models and then the given indexes.
func (p *Postgres) Migrate(t *testing.T, models []any, indexes ...db.Index) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.RunMigrations(ctx, p.DB, models...))
	require.NoError(t, db.CreateIndexes(ctx, p.DB, indexes...))
}

// Truncate empties tables and resets their id sequences.
func (p *Postgres) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		_, err := p.DB.ExecContext(context.Background(), "TRUNCATE "+table+" RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate %s", table)
	}
}
