package subscription

import (
	"context"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/krypto"
)

// SubscriberFilter is used to filter subscribers.
// Returned subscribers must match all the provided fields.
// If a field is empty, it's ignored.
type SubscriberFilter struct {
	IDs      []uuid.UUID
	Emails   []email.Address
	Statuses []Status
}

// Store provides transactional access to subscribers and their tokens.
type Store interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a transaction. If an error occurs on any of the Create/Update/Find methods,
// the transaction is considered to have failed and should be rolled back.
// Tx is not safe for concurrent use.
type Tx interface {
	Commit() error
	Rollback() error

	CreateSubscriber(s *Subscriber) error
	FindSubscribers(filter *SubscriberFilter) ([]Subscriber, error)
	CreateConfirmationToken(t *ConfirmationToken) error

	// FindSubscriberIDByToken returns errorz.ErrNotFound if no token matches.
	FindSubscriberIDByToken(tok krypto.Token) (uuid.UUID, error)
	// ConfirmSubscriber sets the status of the subscriber to confirmed.
	// It returns errorz.ErrNotFound if the subscriber does not exist.
	ConfirmSubscriber(id uuid.UUID) error
}
