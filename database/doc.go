// Package database provides a unified interface for connecting to document-store backends.
//
// The package supports multiple backends (PostgreSQL and SQLite) and handles
// connection management, migrations, and schema validation automatically.
// Items are stored as single rows with the photo list and measurements
// embedded as JSON documents.
//
// # Supported Backends
//
//   - PostgreSQL: Production-ready backend using pgx connection pool
//   - SQLite: Lightweight backend suitable for development and single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type:       "sqlite",
//	    DSN:        "kilnlog.db",
//	    Collection: "items",
//	}
//
//	repo, cleanup, err := database.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// The Connect function automatically:
//   - Opens the backend connection once, at process start
//   - Runs schema migrations
//   - Validates the schema
//   - Returns a ready-to-use ItemRepo
//
// # Subpackages
//
// The database package contains backend-specific implementations:
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
