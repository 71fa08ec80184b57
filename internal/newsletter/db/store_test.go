package db_test

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/db/testdb"
	"github.com/willemschots/mailinglist/internal/newsletter"
	nldb "github.com/willemschots/mailinglist/internal/newsletter/db"
)

func Test_Store_FindConfirmedSubscribers(t *testing.T) {
	t.Run("ok, only confirmed in insertion order", func(t *testing.T) {
		testDB := testdb.RunWhile(t)

		first := uuid.MustParse("7e57ab1e-0000-4000-8000-000000000001")
		second := uuid.MustParse("7e57ab1e-0000-4000-8000-000000000002")
		pending := uuid.MustParse("7e57ab1e-0000-4000-8000-000000000003")

		// Inserted out of order, results are ordered by creation time.
		insertSubscriber(t, testDB, second, "bob@example.com", "confirmed", 2)
		insertSubscriber(t, testDB, pending, "carol@example.com", "pending_confirmation", 0)
		insertSubscriber(t, testDB, first, "not an email", "confirmed", 1)

		store := nldb.New(testDB, db.DialectSQLite)

		got, err := store.FindConfirmedSubscribers(context.Background())
		if err != nil {
			t.Fatalf("failed to find recipients: %v", err)
		}

		want := []newsletter.Recipient{
			{SubscriberID: first, Email: "not an email"},
			{SubscriberID: second, Email: "bob@example.com"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got\n%#v\nwant\n%#v\n", got, want)
		}
	})

	t.Run("ok, no subscribers", func(t *testing.T) {
		store := nldb.New(testdb.RunWhile(t), db.DialectSQLite)

		got, err := store.FindConfirmedSubscribers(context.Background())
		if err != nil {
			t.Fatalf("failed to find recipients: %v", err)
		}

		if len(got) != 0 {
			t.Errorf("expected no recipients, got %#v", got)
		}
	})
}

func Test_Postgres_FindConfirmedSubscribers(t *testing.T) {
	const query = `SELECT id, email FROM subscribers WHERE status = $1 ORDER BY created_at ASC, id ASC`

	t.Run("ok", func(t *testing.T) {
		sqlDB, mock := newMock(t)
		id := uuid.New()

		mock.ExpectQuery(query).
			WithArgs("confirmed").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(id.String(), "alice@example.com"))

		got, err := nldb.New(sqlDB, db.DialectPostgres).FindConfirmedSubscribers(context.Background())
		require.NoError(t, err)
		require.Equal(t, []newsletter.Recipient{{SubscriberID: id, Email: "alice@example.com"}}, got)
	})

	t.Run("fail, query fails", func(t *testing.T) {
		sqlDB, mock := newMock(t)
		testErr := errors.New("connection reset")

		mock.ExpectQuery(query).
			WithArgs("confirmed").
			WillReturnError(testErr)

		_, err := nldb.New(sqlDB, db.DialectPostgres).FindConfirmedSubscribers(context.Background())
		require.ErrorIs(t, err, testErr)
	})
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = sqlDB.Close()
	})

	return sqlDB, mock
}

func insertSubscriber(t *testing.T, testDB *sql.DB, id uuid.UUID, addr, status string, sec int) {
	t.Helper()

	_, err := testDB.Exec(`INSERT INTO subscribers (id, email, name, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), addr, "Test", status, time.Date(2024, 1, 1, 0, 0, sec, 0, time.UTC))
	if err != nil {
		t.Fatalf("failed to insert subscriber: %v", err)
	}
}
