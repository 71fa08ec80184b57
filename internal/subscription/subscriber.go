package subscription

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/email"
	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/krypto"
)

const (
	maxNameRunes   = 256
	forbiddenRunes = `/()"<>\{}`
)

var (
	ErrEmptyName     = errors.New("name is empty")
	ErrNameTooLong   = errors.New("name is too long")
	ErrNameForbidden = errors.New("name contains a forbidden character")
)

// Status is the state of a subscriber.
type Status string

const (
	StatusPending   Status = "pending_confirmation"
	StatusConfirmed Status = "confirmed"
)

// Name is the display name of a subscriber.
type Name string

// ParseName trims raw and checks that it's a valid subscriber name: non-empty,
// at most 256 characters and free of the characters / ( ) " < > \ { }.
func ParseName(raw string) (Name, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyName
	}

	if utf8.RuneCountInString(trimmed) > maxNameRunes {
		return "", ErrNameTooLong
	}

	if strings.ContainsAny(trimmed, forbiddenRunes) {
		return "", ErrNameForbidden
	}

	return Name(trimmed), nil
}

// Subscriber is a person on the mailing list.
type Subscriber struct {
	ID        uuid.UUID
	Email     email.Address
	Name      Name
	Status    Status
	CreatedAt time.Time
}

// ConfirmationToken links a mailed token to the subscriber it confirms.
type ConfirmationToken struct {
	Token        krypto.Token
	SubscriberID uuid.UUID
}

// Request is a validated request to subscribe.
type Request struct {
	Name  Name
	Email email.Address
}

// ParseRequest validates the raw form input of a subscription request.
// All invalid fields are reported in a single errorz.InvalidInput.
func ParseRequest(rawName, rawEmail string) (Request, error) {
	var (
		req  Request
		errs errorz.InvalidInput
		err  error
	)

	req.Name, err = ParseName(rawName)
	if err != nil {
		errs = append(errs, errorz.Keyed{Key: "name", Err: err})
	}

	req.Email, err = email.ParseAddress(rawEmail)
	if err != nil {
		errs = append(errs, errorz.Keyed{Key: "email", Err: err})
	}

	if len(errs) > 0 {
		return Request{}, errs
	}

	return req, nil
}
