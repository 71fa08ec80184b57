package db

import (
	"context"
	"database/sql"

	"github.com/willemschots/mailinglist/internal/db"
	"github.com/willemschots/mailinglist/internal/subscription"
)

// Store is responsible for storing subscribers in a database.
type Store struct {
	writeDB *sql.DB
	dialect db.Dialect
}

// New creates a new Store. All work happens in write transactions,
// so only a write pool is needed.
func New(writeDB *sql.DB, dialect db.Dialect) *Store {
	return &Store{
		writeDB: writeDB,
		dialect: dialect,
	}
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (subscription.Tx, error) {
	tx, err := s.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &Tx{
		ctx:   ctx,
		tx:    tx,
		store: s,
	}, nil
}

func (s *Store) newQuery() *db.Query {
	return db.NewQuery(s.dialect)
}
