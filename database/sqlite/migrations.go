package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kilnlog/kilnlog"
)

// quoteIdentifier safely quotes a SQLite identifier
func quoteIdentifier(name string) string {
	return `"` + name + `"`
}

type TableMigration struct {
	TableName string
	Up        func(ctx context.Context, db *sql.DB) error
	Down      func(ctx context.Context, db *sql.DB) error
}

// getTableMigrations returns all table migrations for the app
func getTableMigrations(collections kilnlog.Collections) []TableMigration {
	migrations := []TableMigration{}

	migrations = append(migrations, TableMigration{
		TableName: collections.Items,
		Up:        createItemsTable(collections.Items),
		Down:      dropTable(collections.Items),
	})

	return migrations
}

func Migrate(ctx context.Context, db *sql.DB, collections kilnlog.Collections) error {
	migrations := getTableMigrations(collections)

	for _, migration := range migrations {
		if err := migration.Up(ctx, db); err != nil {
			return fmt.Errorf("migrate up %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func DropTables(ctx context.Context, db *sql.DB, collections kilnlog.Collections) error {
	migrations := getTableMigrations(collections)

	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if err := migration.Down(ctx, db); err != nil {
			return fmt.Errorf("migrate down %s: %w", migration.TableName, err)
		}
	}

	return nil
}

func createItemsTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		indexOwner := quoteIdentifier(fmt.Sprintf("idx_%s_owner", tableName))
		indexOwnerCreated := quoteIdentifier(fmt.Sprintf("idx_%s_owner_created", tableName))

		// Timestamps are stored as RFC3339Nano text in UTC; measurements and
		// photos are stored as JSON documents.
		createTableSQL := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT NOT NULL PRIMARY KEY,
				owner_id TEXT NOT NULL,
				name TEXT NOT NULL,
				clay_type TEXT NOT NULL,
				status TEXT NOT NULL,
				glaze TEXT,
				location TEXT NOT NULL,
				note TEXT,
				created_at TEXT NOT NULL,
				created_timezone TEXT,
				updated_at TEXT NOT NULL,
				measurements TEXT,
				photos TEXT NOT NULL
			)
		`, quotedTable)

		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("create table: %w", err)
		}

		indexSQL := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (owner_id)
		`, indexOwner, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index owner: %w", err)
		}

		indexSQL = fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s (owner_id, created_at)
		`, indexOwnerCreated, quotedTable)

		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index owner_created: %w", err)
		}

		return nil
	}
}

func dropTable(tableName string) func(context.Context, *sql.DB) error {
	return func(ctx context.Context, db *sql.DB) error {
		quotedTable := quoteIdentifier(tableName)
		dropSQL := fmt.Sprintf("DROP TABLE IF EXISTS %s", quotedTable)

		_, err := db.ExecContext(ctx, dropSQL)
		return err
	}
}
