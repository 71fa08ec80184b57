package krypto

import (
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
)

const (
	tokenLen      = 25
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var ErrInvalidToken = errors.New("invalid token")

// Token is a random alphanumeric token that is sent via email.
//
// The only time a token should be provided in plaintext is as part of
// the email to the subscriber. Tokens should never be exposed in logs.
type Token struct {
	value string
}

// GenerateToken creates a new random token of 25 alphanumeric characters.
func GenerateToken() (Token, error) {
	n := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, tokenLen)
	for i := range b {
		idx, err := rand.Int(rand.Reader, n)
		if err != nil {
			return Token{}, err
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return Token{value: string(b)}, nil
}

// ParseToken parses a token from a string. Only the shape of the
// token is checked, not whether it was ever issued.
func ParseToken(raw string) (Token, error) {
	if len(raw) != tokenLen {
		return Token{}, ErrInvalidToken
	}

	for i := 0; i < len(raw); i++ {
		if !isAlphanumeric(raw[i]) {
			return Token{}, ErrInvalidToken
		}
	}

	return Token{value: raw}, nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// String returns the token in plaintext, it needs to be embedded in emails.
func (t Token) String() string {
	return t.value
}

// IsZero reports whether t was never generated or parsed.
func (t Token) IsZero() bool {
	return t.value == ""
}

// LogValue implements the slog.Valuer interface.
func (t Token) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}
