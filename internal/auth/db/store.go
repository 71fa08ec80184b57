package db

import (
	"context"
	"database/sql"

	"github.com/willemschots/mailinglist/internal/auth"
	"github.com/willemschots/mailinglist/internal/db"
)

// Store is responsible for storing users in a database.
type Store struct {
	writeDB *sql.DB
	readDB  *sql.DB
	dialect db.Dialect
}

// New creates a new Store. Transactions run on writeDB, lookups
// outside of transactions run on readDB.
func New(writeDB, readDB *sql.DB, dialect db.Dialect) *Store {
	return &Store{
		writeDB: writeDB,
		readDB:  readDB,
		dialect: dialect,
	}
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (auth.Tx, error) {
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

// FindUsers queries for users based on the provided filter.
// It returns an empty slice if no users are found.
func (s *Store) FindUsers(ctx context.Context, filter *auth.UserFilter) ([]auth.User, error) {
	return selectUsers(s.newQuery(), func(query string, params ...any) (*sql.Rows, error) {
		return s.readDB.QueryContext(ctx, query, params...)
	}, filter)
}

func (s *Store) newQuery() *db.Query {
	return db.NewQuery(s.dialect)
}
