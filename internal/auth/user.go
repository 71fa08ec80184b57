package auth

import (
	"github.com/google/uuid"

	"github.com/willemschots/mailinglist/internal/krypto"
)

// User is an operator that is allowed to publish newsletters.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash krypto.Argon2Hash
}

// Credentials are presented by an operator to authenticate.
type Credentials struct {
	Username string
	Password Password
}
