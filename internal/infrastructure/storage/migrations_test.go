package storage

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/amazon-tagger/internal/infrastructure/storage/migrations"
)

// expectedMigrationCount is the number of migrations we expect to have
// Update this when adding new migrations
// Note: goose adds a version 0 entry when initializing, so total count is migrations + 1
const expectedMigrationCount = 5
const gooseVersionCount = expectedMigrationCount + 1 // includes goose's version 0 entry

// TestMigrations_FreshDatabase tests running migrations on a fresh database
func TestMigrations_FreshDatabase(t *testing.T) {
	tmpDB := createTempDB(t)
	defer os.Remove(tmpDB)

	// Create storage (this runs migrations)
	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	defer store.Close()

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE is_applied = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, gooseVersionCount, count, "Should have %d version entries (including goose init)", gooseVersionCount)

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(expectedMigrationCount), version)
}

// TestMigrations_Idempotency tests that migrations can be run multiple times
func TestMigrations_Idempotency(t *testing.T) {
	tmpDB := createTempDB(t)
	defer os.Remove(tmpDB)

	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	store.Close()

	// Run migrations second time (should be idempotent)
	store, err = NewStorage(tmpDB)
	require.NoError(t, err)
	defer store.Close()

	var count int
	err = store.db.QueryRow("SELECT COUNT(*) FROM goose_db_version WHERE is_applied = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, gooseVersionCount, count, "Should still have exactly %d version entries", gooseVersionCount)
}

// TestMigrations_Schema tests that the correct schema is created
func TestMigrations_Schema(t *testing.T) {
	tmpDB := createTempDB(t)
	defer os.Remove(tmpDB)

	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	defer store.Close()

	for _, table := range []string{"runs", "plan_entries", "mutation_log", "ledger_transactions"} {
		err = store.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(new(int))
		assert.NoError(t, err, "%s table should exist", table)
	}

	var fkEnabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)
}

// TestMigrations_BackfillsAmountCents upgrades a version 4 database that
// already holds transactions in loose decimal forms.
func TestMigrations_BackfillsAmountCents(t *testing.T) {
	tmpDB := createTempDB(t)
	defer os.Remove(tmpDB)

	db, err := sql.Open("sqlite3", tmpDB)
	require.NoError(t, err)
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.UpToContext(context.Background(), db, ".", 4))

	_, err = db.Exec(`INSERT INTO ledger_transactions (id, posted_on, amount) VALUES
		('a', '2024-01-05', '$-19.99'),
		('b', '2024-01-06', '-19.9'),
		('c', '2024-01-07', '12')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	defer store.Close()

	want := map[string]int64{"a": -1999, "b": -1990, "c": 1200}
	for id, cents := range want {
		var got int64
		require.NoError(t, store.db.QueryRow(`SELECT amount_cents FROM ledger_transactions WHERE id = ?`, id).Scan(&got))
		assert.Equal(t, cents, got, id)
	}

	res, err := store.ListLedgerTransactions(LedgerFilters{Amount: amountPtr("19.99")})
	require.NoError(t, err)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "a", res.Transactions[0].ID)
}

func createTempDB(t *testing.T) string {
	tmpFile, err := os.CreateTemp("", "test_*.db")
	require.NoError(t, err)
	tmpFile.Close()
	return tmpFile.Name()
}
