package krypto

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// KeySize is the size in bytes of signing and session keys.
const KeySize = 32

var ErrInvalidKey = errors.New("invalid key")

// Key is raw key material, configured as 64 hex characters. It never
// shows up in formatted output or logs.
type Key struct {
	value []byte
}

// ParseKey decodes a hex encoded key of exactly KeySize bytes.
func ParseKey(raw string) (Key, error) {
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) != KeySize {
		return Key{}, fmt.Errorf("%w: want %d hex characters", ErrInvalidKey, KeySize*2)
	}

	return Key{value: b}, nil
}

// SecretValue returns the raw key, for example to configure a cookie store.
func (k Key) SecretValue() []byte {
	return k.value
}
