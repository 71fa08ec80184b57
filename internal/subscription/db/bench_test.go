package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/krypto"
	"github.com/willemschots/mailinglist/internal/migrate"
	"github.com/willemschots/mailinglist/internal/subscription"
	subdb "github.com/willemschots/mailinglist/internal/subscription/db"
	"github.com/willemschots/mailinglist/migrations"
)

// The benchmarks use a database file so WAL mode and the write
// connection settings apply like they do in production.

func Benchmark_Subscribe(b *testing.B) {
	store := subdb.New(fileDBForBench(b), db.DialectSQLite)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		subscribeForBench(b, store, i)
	}
}

func Benchmark_FindSubscriberIDByToken(b *testing.B) {
	const rows = 500

	store := subdb.New(fileDBForBench(b), db.DialectSQLite)

	tokens := make([]krypto.Token, 0, rows)
	for i := 0; i < rows; i++ {
		tokens = append(tokens, subscribeForBench(b, store, i))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tx, err := store.BeginTx(context.Background())
		if err != nil {
			b.Fatalf("failed to begin tx: %v", err)
		}

		_, err = tx.FindSubscriberIDByToken(tokens[i%rows])
		if err != nil {
			b.Fatalf("failed to find subscriber: %v", err)
		}

		err = tx.Commit()
		if err != nil {
			b.Fatalf("failed to commit: %v", err)
		}
	}
}

func subscribeForBench(b *testing.B, store *subdb.Store, i int) krypto.Token {
	b.Helper()

	tx, err := store.BeginTx(context.Background())
	if err != nil {
		b.Fatalf("failed to begin tx: %v", err)
	}

	sub := subscription.Subscriber{
		ID:        uuid.New(),
		Email:     email.Address(fmt.Sprintf("subscriber-%d@example.com", i)),
		Name:      "Subscriber",
		Status:    subscription.StatusPending,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	err = tx.CreateSubscriber(&sub)
	if err != nil {
		b.Fatalf("failed to create subscriber: %v", err)
	}

	tok := must(krypto.GenerateToken())
	err = tx.CreateConfirmationToken(&subscription.ConfirmationToken{Token: tok, SubscriberID: sub.ID})
	if err != nil {
		b.Fatalf("failed to create token: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		b.Fatalf("failed to commit: %v", err)
	}

	return tok
}

func fileDBForBench(b *testing.B) *sql.DB {
	b.Helper()

	sqlDB, err := db.OpenSQLite(filepath.Join(b.TempDir(), "bench.db"), true)
	if err != nil {
		b.Fatalf("failed to open db: %v", err)
	}

	b.Cleanup(func() {
		err := sqlDB.Close()
		if err != nil {
			b.Errorf("failed to close db: %v", err)
		}
	})

	_, err = migrate.RunFS(context.Background(), sqlDB, migrations.SQLiteFS, migrate.Metadata{})
	if err != nil {
		b.Fatalf("failed to run migrations: %v", err)
	}

	return sqlDB
}
