package email

import (
	"errors"
	"net/mail"
	"strings"
)

// maxAddressLen is the longest address that fits a SMTP forward path.
const maxAddressLen = 254

var ErrInvalidEmail = errors.New("invalid email address")

// Address is a bare email address, without display name or comments.
type Address string

// ParseAddress checks that raw, after trimming whitespace, is a bare
// address such as "alice@example.com". Whether the mailbox exists is not
// checked.
func ParseAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || len(trimmed) > maxAddressLen {
		return "", ErrInvalidEmail
	}

	// net/mail also accepts display names and comments, as in
	// "Alice <alice@example.com>(comment)". Those parse to a different
	// address part and are rejected.
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}

	return Address(addr.Address), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}

// Redact masks the local part of the address so it can be logged.
// "alice@example.com" becomes "al***@example.com".
func (a Address) Redact() string {
	local, domain, ok := strings.Cut(string(a), "@")
	if !ok {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}
