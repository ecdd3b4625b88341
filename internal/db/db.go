package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"internship-service/internal/config"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// New opens the postgres pool described by cfg and pings it once.
func New(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	db := NewWithDSN(cfg.URL)
	configurePool(db, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("database connected successfully")
	return db, nil
}

// NewWithDSN builds the bun handle without touching the network.
func NewWithDSN(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func configurePool(db *bun.DB, cfg config.DatabaseConfig) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 25
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 300
	}
	idleTime := cfg.ConnMaxIdleTime
	if idleTime == 0 {
		idleTime = 60
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(time.Duration(lifetime) * time.Second)
	db.SetConnMaxIdleTime(time.Duration(idleTime) * time.Second)

	slog.Info("database pool configured",
		"max_open_conns", maxOpen,
		"max_idle_conns", maxIdle,
		"conn_max_lifetime_seconds", lifetime,
		"conn_max_idle_time_seconds", idleTime,
	)
}

// Index describes a secondary index owned by a resource package.
type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
	// Where turns the index into a partial index.
	Where string
}

func RunMigrations(ctx context.Context, db *bun.DB, models ...any) error {
	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	slog.Info("database migrations completed successfully", "tables", len(models))
	return nil
}

func CreateIndexes(ctx context.Context, db *bun.DB, indexes ...Index) error {
	for _, idx := range indexes {
		q := db.NewCreateIndex().
			Table(idx.Table).
			Index(idx.Name).
			Column(idx.Columns...).
			IfNotExists()
		if idx.Unique {
			q = q.Unique()
		}
		if idx.Where != "" {
			q = q.Where(idx.Where)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func Close(db *bun.DB) {
	if db != nil {
		db.Close()
	}
}
