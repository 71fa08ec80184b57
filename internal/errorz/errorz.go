package errorz

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConstraintViolated = errors.New("constraint violated")
	ErrInvalidInput       = errors.New("invalid input")
	ErrSignature          = errors.New("invalid signature")
)

var (
	// ErrStorage marks failures of the persistence layer.
	ErrStorage = errors.New("storage failure")
	// ErrDelivery marks failures to hand an email to the mail provider.
	ErrDelivery = errors.New("delivery failure")
)

// MapDBErr maps database errors to appropriate errorz errors.
// If err is nil, MapDBErr returns nil.
func MapDBErr(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	sErr := sqlite3.Error{}
	if errors.As(err, &sErr) {
		if sErr.Code == sqlite3.ErrConstraint {
			return ErrConstraintViolated
		}
	}

	// Class 23 is "integrity constraint violation" in postgres.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "23") {
			return ErrConstraintViolated
		}
	}

	return err
}
