// Package dbtest opens the Postgres database used by integration tests.
// Tests skip when TEST_DATABASE_URL is unset or the server is unreachable.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/spacecards/economy-api/internal/pkg/database"
)

// lockKey serialises test packages that share one database; go test runs
// packages in parallel.
const lockKey = 7_245_001

// Open connects, migrates and truncates the test database. The caller holds
// a session advisory lock on it until the test ends.
func Open(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("db not available: %v", err)
	}
	db.SetMaxOpenConns(30)

	ctx := context.Background()
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		t.Fatalf("reserve lock connection failed: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockKey); err != nil {
		conn.Close()
		db.Close()
		t.Fatalf("advisory lock failed: %v", err)
	}

	if err := database.Migrate(dsn); err != nil {
		conn.Close()
		db.Close()
		t.Fatalf("migrate failed: %v", err)
	}

	Reset(t, db)
	t.Cleanup(func() {
		Reset(t, db)
		conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, lockKey)
		conn.Close()
		db.Close()
	})
	return db
}

// Reset empties every economy table. TRUNCATE bypasses the row trigger
// that keeps wallet_transactions append-only.
func Reset(t *testing.T, db *sqlx.DB) {
	t.Helper()
	_, err := db.Exec(`
		TRUNCATE card_sales, card_ownerships, cards, notifications,
		         wallet_transactions, user_wallets, users
	`)
	if err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
}

// CreateUser inserts a user row and returns its id.
func CreateUser(t *testing.T, db *sqlx.DB, displayName string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	if _, err := db.Exec(`INSERT INTO users (id, display_name) VALUES ($1, $2)`, id, displayName); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return id
}
