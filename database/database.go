package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/database/postgres"
	"github.com/kilnlog/kilnlog/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

// Config holds the configuration for connecting to a document-store backend.
type Config struct {
	// Type specifies the backend type: "sqlite" or "postgres"
	Type string `mapstructure:"type"`
	// DSN is the data source name (connection string)
	DSN string `mapstructure:"dsn"`
	// Collection is the name of the items collection (table)
	Collection string `mapstructure:"collection"`
}

// Connect establishes a connection to the configured backend, runs
// migrations, validates the schema, and returns an ItemRepo. The client
// handle is constructed once here and shared by every request for the
// lifetime of the process; a construction failure is returned as
// ErrStoreUnavailable so callers fail fast instead of retrying construction
// per call. The returned cleanup function closes the connection.
func Connect(ctx context.Context, cfg Config) (kilnlog.ItemRepo, func(), error) {
	collections := kilnlog.Collections{Items: cfg.Collection}
	if err := collections.Validate(); err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	switch cfg.Type {
	case "sqlite":
		return connectSQLite(ctx, cfg.DSN, collections)
	case "postgres":
		return connectPostgres(ctx, cfg.DSN, collections)
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func connectSQLite(ctx context.Context, dsn string, collections kilnlog.Collections) (kilnlog.ItemRepo, func(), error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", kilnlog.ErrStoreUnavailable)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", kilnlog.ErrStoreUnavailable)
	}

	if err = sqlite.Migrate(ctx, db, collections); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	if err = sqlite.ValidateSchema(ctx, db, collections); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate sqlite schema: %w", err)
	}

	repo, err := sqlite.NewRepo(db, collections)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create sqlite repo: %w", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return repo, cleanup, nil
}

func connectPostgres(ctx context.Context, dsn string, collections kilnlog.Collections) (kilnlog.ItemRepo, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", kilnlog.ErrStoreUnavailable)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", kilnlog.ErrStoreUnavailable)
	}

	if err = postgres.Migrate(ctx, pool, collections); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}

	if err = postgres.ValidateSchema(ctx, pool, collections); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("validate postgres schema: %w", err)
	}

	repo, err := postgres.NewRepo(pool, collections)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("create postgres repo: %w", err)
	}

	return repo, pool.Close, nil
}
