package subscription

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/krypto"
)

// ConfirmationEmail is the name of the email template sent after subscribing.
const ConfirmationEmail = "subscription-confirmation"

// ErrUnknownToken indicates a confirmation token that was never issued.
var ErrUnknownToken = errors.New("unknown confirmation token")

// Emailer is used to send templated emails.
type Emailer interface {
	SendTemplate(ctx context.Context, name string, to email.Address, data any) error
}

// ConfirmationData is the data passed to the confirmation email template.
type ConfirmationData struct {
	Name Name
	Link string
}

// Service runs the double opt-in workflow.
type Service struct {
	store   Store
	emailer Emailer
	baseURL *url.URL

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewService creates a service. Confirmation links point to baseURL.
func NewService(s Store, emailer Emailer, baseURL *url.URL) *Service {
	return &Service{
		store:   s,
		emailer: emailer,
		baseURL: baseURL,
		NowFunc: time.Now,
	}
}

// Subscribe stores a pending subscriber and its confirmation token in a single
// transaction and then emails the confirmation link.
//
// Storage failures match errorz.ErrStorage and leave nothing behind. Email failures
// match errorz.ErrDelivery, in that case the subscriber and token remain stored.
func (s *Service) Subscribe(ctx context.Context, req Request) error {
	sub := Subscriber{
		ID:        uuid.New(),
		Email:     req.Email,
		Name:      req.Name,
		Status:    StatusPending,
		CreatedAt: s.NowFunc(),
	}

	tok, err := krypto.GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	ct := ConfirmationToken{
		Token:        tok,
		SubscriberID: sub.ID,
	}

	err = s.inTx(ctx, func(tx Tx) error {
		txErr := tx.CreateSubscriber(&sub)
		if txErr != nil {
			return fmt.Errorf("failed to insert subscriber: %w", txErr)
		}

		txErr = tx.CreateConfirmationToken(&ct)
		if txErr != nil {
			return fmt.Errorf("failed to insert confirmation token: %w", txErr)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", errorz.ErrStorage, err)
	}

	// The email is sent after the commit and can fail independently.
	// If it does, the subscriber stays pending and can subscribe again.
	err = s.emailer.SendTemplate(ctx, ConfirmationEmail, sub.Email, ConfirmationData{
		Name: sub.Name,
		Link: s.ConfirmationLink(tok),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to send confirmation email: %w", errorz.ErrDelivery, err)
	}

	return nil
}

// ConfirmationLink returns the link a subscriber follows to confirm.
func (s *Service) ConfirmationLink(tok krypto.Token) string {
	u := s.baseURL.JoinPath("subscriptions", "confirm")
	u.RawQuery = url.Values{"subscription_token": {tok.String()}}.Encode()
	return u.String()
}

// Confirm marks the subscriber that was issued rawToken as confirmed.
// Tokens can be used repeatedly, confirming twice is not an error.
// A malformed or unknown token results in ErrUnknownToken.
func (s *Service) Confirm(ctx context.Context, rawToken string) error {
	tok, err := krypto.ParseToken(rawToken)
	if err != nil {
		return ErrUnknownToken
	}

	err = s.inTx(ctx, func(tx Tx) error {
		id, txErr := tx.FindSubscriberIDByToken(tok)
		if txErr != nil {
			if errors.Is(txErr, errorz.ErrNotFound) {
				return ErrUnknownToken
			}
			return fmt.Errorf("failed to find token: %w", txErr)
		}

		txErr = tx.ConfirmSubscriber(id)
		if txErr != nil {
			return fmt.Errorf("failed to confirm subscriber: %w", txErr)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUnknownToken) {
			return err
		}
		return fmt.Errorf("%w: %w", errorz.ErrStorage, err)
	}

	return nil
}

// inTx runs f in a transaction. The transaction is rolled back unless
// f succeeds and the commit succeeds.
func (s *Service) inTx(ctx context.Context, f func(tx Tx) error) (err error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if committed {
			return
		}

		rBackErr := tx.Rollback()
		if rBackErr != nil {
			err = errors.Join(err, rBackErr)
		}
	}()

	err = f(tx)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return err
	}

	committed = true
	return nil
}
