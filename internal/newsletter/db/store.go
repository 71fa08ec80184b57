package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/newsletter"
)

// confirmedStatus matches subscription.StatusConfirmed.
const confirmedStatus = "confirmed"

// Store reads newsletter recipients from the subscribers table.
type Store struct {
	readDB  *sql.DB
	dialect db.Dialect
}

func New(readDB *sql.DB, dialect db.Dialect) *Store {
	return &Store{
		readDB:  readDB,
		dialect: dialect,
	}
}

// FindConfirmedSubscribers returns the confirmed subscribers, oldest first.
func (s *Store) FindConfirmedSubscribers(ctx context.Context) ([]newsletter.Recipient, error) {
	q := db.NewQuery(s.dialect)
	q.Unsafe(`SELECT id, email FROM subscribers WHERE status = `)
	q.Param(confirmedStatus)
	q.Unsafe(` ORDER BY created_at ASC, id ASC`)

	query, params := q.Get()
	rows, err := s.readDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}
	defer rows.Close()

	out := make([]newsletter.Recipient, 0)
	for rows.Next() {
		var r newsletter.Recipient
		err := rows.Scan(&r.SubscriberID, &r.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", errorz.MapDBErr(err))
		}

		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}
