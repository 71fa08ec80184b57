package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/krypto"
	"github.com/willemschots/mailinglist/internal/subscription"
)

// Tx is a transaction on the subscription tables.
type Tx struct {
	ctx   context.Context
	tx    *sql.Tx
	store *Store
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// CreateSubscriber inserts a subscriber. The ID must be set by the caller.
func (t *Tx) CreateSubscriber(s *subscription.Subscriber) error {
	return insertSubscriber(t.store.newQuery(), t.exec, s)
}

// FindSubscribers queries for subscribers based on the provided filter.
// It returns an empty slice if no subscribers are found.
func (t *Tx) FindSubscribers(filter *subscription.SubscriberFilter) ([]subscription.Subscriber, error) {
	return selectSubscribers(t.store.newQuery(), t.query, filter)
}

// CreateConfirmationToken inserts a token for an existing subscriber.
func (t *Tx) CreateConfirmationToken(tok *subscription.ConfirmationToken) error {
	return insertConfirmationToken(t.store.newQuery(), t.exec, tok)
}

// FindSubscriberIDByToken returns errorz.ErrNotFound if no token matches.
func (t *Tx) FindSubscriberIDByToken(tok krypto.Token) (uuid.UUID, error) {
	return selectSubscriberIDByToken(t.store.newQuery(), t.query, tok)
}

// ConfirmSubscriber sets the status of the subscriber to confirmed.
// It returns errorz.ErrNotFound if no subscriber has the given id.
func (t *Tx) ConfirmSubscriber(id uuid.UUID) error {
	return updateSubscriberStatus(t.store.newQuery(), t.exec, id, subscription.StatusConfirmed)
}

func (t *Tx) exec(query string, params ...any) (sql.Result, error) {
	return t.tx.ExecContext(t.ctx, query, params...)
}

func (t *Tx) query(query string, params ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, query, params...)
}
