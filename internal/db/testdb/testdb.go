package testdb

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/migrate"
	"github.com/willemschots/mailinglist/migrations"
)

// RunWhile runs an in-memory SQLite database while the provided test is executing.
// It returns an empty database with all migrations applied.
//
// The database uses a single connection, every connection to ":memory:"
// would otherwise see its own database. Use it for both reads and writes.
func RunWhile(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB := RunUnmigratedWhile(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := migrate.RunFS(ctx, sqlDB, migrations.SQLiteFS, migrate.Metadata{})
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return sqlDB
}

// RunUnmigratedWhile runs an in-memory SQLite database while the provided test is executing.
// It returns an empty database without any migrations applied.
func RunUnmigratedWhile(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := db.OpenSQLite(":memory:", true)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		err := sqlDB.Close()
		if err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	return sqlDB
}
