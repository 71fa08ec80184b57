package krypto

import (
	"crypto/hmac"
	"crypto/sha256"
)

// Signer produces and checks HMAC-SHA256 tags for messages.
type Signer struct {
	key Key
}

func NewSigner(key Key) *Signer {
	return &Signer{key: key}
}

// Sign returns the HMAC-SHA256 tag of msg.
func (s *Signer) Sign(msg []byte) []byte {
	mac := hmac.New(sha256.New, s.key.value)
	mac.Write(msg)
	return mac.Sum(nil)
}

// Verify reports whether tag is a valid tag for msg.
// The comparison is constant time.
func (s *Signer) Verify(msg, tag []byte) bool {
	return hmac.Equal(s.Sign(msg), tag)
}
