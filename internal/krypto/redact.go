package krypto

import (
	"fmt"
	"io"
	"log/slog"
)

// SecretMarker is written instead of secret values. It is something we can
// look for in logs to see if the app is accidentally exposing secrets.
const SecretMarker = "<!SECRET_REDACTED!>"

func (k Key) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, SecretMarker)
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(SecretMarker), nil
}

// LogValue implements the slog.LogValuer interface.
func (k Key) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}

func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, SecretMarker)
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(SecretMarker), nil
}

// LogValue implements the slog.LogValuer interface.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}
