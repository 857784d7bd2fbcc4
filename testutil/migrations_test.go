package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fleet-hos/testutil"
)

var fleetTables = []string{
	"companies", "trucks", "drivers", "eld_logs",
	"loads", "routes", "eld_violations", "driver_performance",
}

// TestMigrations applies every migration, checks the schema exists, rolls
// everything back and checks it is gone again.
// The test is skipped automatically when TEST_DATABASE_URL is not set.
func TestMigrations(t *testing.T) {
	db := testutil.NewSQLDB(t)

	provider, err := testutil.NewMigrator(db)
	require.NoError(t, err, "create goose provider")

	ctx := context.Background()

	// Another package's TestMain may already have migrated this shared
	// database. Start from version 0 so the test is order-independent.
	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "initial reset")

	results, err := provider.Up(ctx)
	require.NoError(t, err, "goose up")
	assert.Len(t, results, 4)

	for _, table := range fleetTables {
		assertTablePresence(t, db, table, true)
	}
	assertFunctionPresence(t, db, "find_nearby_drivers", true)
	assertColumnPresence(t, db, "eld_violations", "kind", true)

	// Undo only the violation kind migration.
	_, err = provider.Down(ctx)
	require.NoError(t, err, "goose down one")
	assertColumnPresence(t, db, "eld_violations", "kind", false)

	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "goose down-to 0")

	for _, table := range fleetTables {
		assertTablePresence(t, db, table, false)
	}
	assertFunctionPresence(t, db, "find_nearby_drivers", false)

	// Leave the schema in place for packages that run after this one.
	_, err = provider.Up(ctx)
	require.NoError(t, err, "goose up again")
}

func assertTablePresence(t *testing.T, db *sql.DB, table string, shouldExist bool) {
	t.Helper()

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public'
			AND   table_name   = $1
		)`
	var exists bool
	err := db.QueryRowContext(context.Background(), q, table).Scan(&exists)
	require.NoError(t, err, "check table existence for %q", table)
	assert.Equal(t, shouldExist, exists, "table %q", table)
}

func assertFunctionPresence(t *testing.T, db *sql.DB, name string, shouldExist bool) {
	t.Helper()

	const q = `SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = $1)`
	var exists bool
	err := db.QueryRowContext(context.Background(), q, name).Scan(&exists)
	require.NoError(t, err, "check function existence for %q", name)
	assert.Equal(t, shouldExist, exists, "function %q", name)
}

func assertColumnPresence(t *testing.T, db *sql.DB, table, column string, shouldExist bool) {
	t.Helper()

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = 'public'
			AND   table_name   = $1
			AND   column_name  = $2
		)`
	var exists bool
	err := db.QueryRowContext(context.Background(), q, table, column).Scan(&exists)
	require.NoError(t, err, "check column existence for %s.%s", table, column)
	assert.Equal(t, shouldExist, exists, "column %s.%s", table, column)
}
