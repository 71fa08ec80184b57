package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/errorz"
	"github.com/willemschots/mailinglist/internal/krypto"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	// Callers can't tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("duplicate user")
	ErrInvalidUsername    = errors.New("invalid username")
)

const maxUsernameBytes = 256

// Service is the type that provides the main rules for
// authentication.
type Service struct {
	store Store

	// comparisonHash is used to compare passwords when no user was found.
	comparisonHash krypto.Argon2Hash
}

func NewService(s Store) (*Service, error) {
	tok, err := krypto.GenerateToken()
	if err != nil {
		return nil, err
	}

	// Same parameters as the stored hashes, so comparing against it
	// takes as long as comparing against a real user.
	hash, err := krypto.HashArgon2([]byte(tok.String()))
	if err != nil {
		return nil, err
	}

	svc := &Service{
		store:          s,
		comparisonHash: hash,
	}

	return svc, nil
}

// ValidateCredentials returns the ID of the user identified by the credentials.
//
// It returns ErrInvalidCredentials if the user does not exist or the password
// does not match. Any other error is unexpected and does not match
// ErrInvalidCredentials.
func (s *Service) ValidateCredentials(ctx context.Context, c Credentials) (uuid.UUID, error) {
	users, err := s.store.FindUsers(ctx, &UserFilter{
		Usernames: []string{c.Username},
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: failed to find user: %w", errorz.ErrStorage, err)
	}

	if len(users) != 1 {
		// Even if no user is found we compare to a hash to prevent timing differences
		// that could result in user enumeration attacks.
		_ = c.Password.Match(s.comparisonHash)
		return uuid.Nil, ErrInvalidCredentials
	}

	if !c.Password.Match(users[0].PasswordHash) {
		return uuid.Nil, ErrInvalidCredentials
	}

	return users[0].ID, nil
}

// CreateUser provisions a new user. It returns ErrDuplicateUser if the
// username is taken.
func (s *Service) CreateUser(ctx context.Context, username string, pwd Password) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameBytes {
		return User{}, ErrInvalidUsername
	}

	hash, err := pwd.Hash()
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
	}

	err = s.inTx(ctx, func(tx Tx) error {
		users, txErr := tx.FindUsers(&UserFilter{
			Usernames: []string{username},
		})
		if txErr != nil {
			return txErr
		}

		if len(users) > 0 {
			return ErrDuplicateUser
		}

		return tx.CreateUser(&user)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			return User{}, err
		}
		// A concurrent CreateUser may have inserted the username after our check.
		if errors.Is(err, errorz.ErrConstraintViolated) {
			return User{}, fmt.Errorf("%w: %w", ErrDuplicateUser, err)
		}
		return User{}, fmt.Errorf("%w: %w", errorz.ErrStorage, err)
	}

	return user, nil
}

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
