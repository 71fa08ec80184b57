package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrMalformedAuthHeader is returned when an Authorization header can't be
// decoded into credentials.
var ErrMalformedAuthHeader = errors.New("malformed authorization header")

const basicPrefix = "Basic "

// CredentialsFromBasicAuth decodes the value of an "Authorization: Basic" header.
// The password may contain colons, the username may not.
func CredentialsFromBasicAuth(header string) (Credentials, error) {
	if len(header) < len(basicPrefix) || !strings.EqualFold(header[:len(basicPrefix)], basicPrefix) {
		return Credentials{}, ErrMalformedAuthHeader
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(basicPrefix):]))
	if err != nil {
		return Credentials{}, ErrMalformedAuthHeader
	}

	if !utf8.Valid(raw) {
		return Credentials{}, ErrMalformedAuthHeader
	}

	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Credentials{}, ErrMalformedAuthHeader
	}

	return Credentials{
		Username: username,
		Password: NewPassword(password),
	}, nil
}
