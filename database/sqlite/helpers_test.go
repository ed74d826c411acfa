package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilnlog/kilnlog"
	"github.com/kilnlog/kilnlog/database/sqlite"

	_ "modernc.org/sqlite"
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo with a unique table name for test isolation
func setupTestRepo(t *testing.T) (kilnlog.ItemRepo, *sql.DB, kilnlog.Collections) {
	t.Helper()

	ctx := context.Background()

	// Use a unique table name for each test to avoid conflicts
	collections := kilnlog.Collections{Items: fmt.Sprintf("items_%s", getRandomString(t))}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "failed to open")
	t.Cleanup(func() { _ = db.Close() })

	// Every pooled connection would otherwise see its own empty in-memory
	// database.
	db.SetMaxOpenConns(1)

	err = sqlite.Migrate(ctx, db, collections)
	require.NoError(t, err, "failed to migrate")

	repo, err := sqlite.NewRepo(db, collections)
	require.NoError(t, err, "failed to create repo")

	return repo, db, collections
}
