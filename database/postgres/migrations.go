package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kilnlog/kilnlog"
)

func createItemsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexOwner := pgx.Identifier{fmt.Sprintf("idx_%s_owner", tableName)}.Sanitize()
	indexOwnerCreated := pgx.Identifier{fmt.Sprintf("idx_%s_owner_created", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			clay_type TEXT NOT NULL,
			status TEXT NOT NULL,
			glaze TEXT,
			location TEXT NOT NULL,
			note TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			created_timezone TEXT,
			updated_at TIMESTAMPTZ NOT NULL,
			measurements JSONB,
			photos JSONB NOT NULL DEFAULT '[]'::jsonb
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (owner_id);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (owner_id, created_at);
	`,
		quotedTable,
		indexOwner, quotedTable,
		indexOwnerCreated, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create items table: %w", err)
	}
	return nil
}

func dropItemsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()

	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable))
	if err != nil {
		return fmt.Errorf("drop items table: %w", err)
	}
	return nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, collections kilnlog.Collections) error {
	if err := createItemsTable(ctx, pool, collections.Items); err != nil {
		return fmt.Errorf("migrate up %s: %w", collections.Items, err)
	}
	return nil
}

func DropTables(ctx context.Context, pool *pgxpool.Pool, collections kilnlog.Collections) error {
	if err := dropItemsTable(ctx, pool, collections.Items); err != nil {
		return fmt.Errorf("migrate down %s: %w", collections.Items, err)
	}
	return nil
}
