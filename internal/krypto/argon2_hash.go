package krypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/willemschots/mailinglist/internal/errorz"
)

const (
	argon2Variant = "argon2id"
	// OWASP recommended minimum for argon2id.
	argon2MemoryKiB   = 47104
	argon2Iterations  = 1
	argon2Parallelism = 1
	argon2SaltLen     = 16
	argon2KeyLen      = 32

	// Bounds accepted when parsing hashes created elsewhere.
	minArgon2SaltLen    = 8
	minArgon2KeyLen     = 16
	maxArgon2MemoryKiB  = 1 << 20
	maxArgon2Iterations = 16
)

// Argon2Hash is an argon2id hash in the PHC string format:
//
//	$argon2id$v=19$m=47104,t=1,p=1$<salt>$<hash>
//
// Salt and hash are encoded as base64 without padding.
type Argon2Hash struct {
	Variant     string
	Version     int
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Hash        []byte
}

// HashArgon2 hashes raw with a random salt using the default parameters.
func HashArgon2(raw []byte) (Argon2Hash, error) {
	if len(raw) == 0 {
		return Argon2Hash{}, fmt.Errorf("%w: empty input", errorz.ErrInvalidInput)
	}

	salt, err := genRandomBytes(argon2SaltLen)
	if err != nil {
		return Argon2Hash{}, err
	}

	return Argon2Hash{
		Variant:     argon2Variant,
		Version:     argon2.Version,
		MemoryKiB:   argon2MemoryKiB,
		Iterations:  argon2Iterations,
		Parallelism: argon2Parallelism,
		Salt:        salt,
		Hash:        argon2.IDKey(raw, salt, argon2Iterations, argon2MemoryKiB, argon2Parallelism, argon2KeyLen),
	}, nil
}

// ParseArgon2Hash parses a PHC formatted argon2id hash.
func ParseArgon2Hash(s string) (Argon2Hash, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" {
		return Argon2Hash{}, fmt.Errorf("%w: expected 6 parts in argon2 hash", errorz.ErrInvalidInput)
	}

	h := Argon2Hash{
		Variant: parts[1],
	}
	if h.Variant != argon2Variant {
		return Argon2Hash{}, fmt.Errorf("%w: unsupported variant %q", errorz.ErrInvalidInput, h.Variant)
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return Argon2Hash{}, fmt.Errorf("%w: missing version", errorz.ErrInvalidInput)
	}

	var err error
	h.Version, err = strconv.Atoi(version)
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: invalid version: %w", errorz.ErrInvalidInput, err)
	}
	if h.Version != argon2.Version {
		return Argon2Hash{}, fmt.Errorf("%w: unsupported version %d", errorz.ErrInvalidInput, h.Version)
	}

	var (
		m, t uint32
		p    uint8
	)
	_, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p)
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: invalid parameters: %w", errorz.ErrInvalidInput, err)
	}
	// Sscanf stops at the last verb, the segment must be canonical.
	if fmt.Sprintf("m=%d,t=%d,p=%d", m, t, p) != parts[3] {
		return Argon2Hash{}, fmt.Errorf("%w: invalid parameters %q", errorz.ErrInvalidInput, parts[3])
	}
	if t < 1 || t > maxArgon2Iterations || p < 1 || m < 8*uint32(p) || m > maxArgon2MemoryKiB {
		return Argon2Hash{}, fmt.Errorf("%w: parameters out of range", errorz.ErrInvalidInput)
	}
	h.MemoryKiB = m
	h.Iterations = t
	h.Parallelism = p

	h.Salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: invalid salt: %w", errorz.ErrInvalidInput, err)
	}

	h.Hash, err = base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return Argon2Hash{}, fmt.Errorf("%w: invalid hash: %w", errorz.ErrInvalidInput, err)
	}

	if len(h.Salt) < minArgon2SaltLen || len(h.Hash) < minArgon2KeyLen {
		return Argon2Hash{}, fmt.Errorf("%w: salt or hash too short", errorz.ErrInvalidInput)
	}

	return h, nil
}

// MatchBytes reports whether raw hashes to h. The comparison is constant time.
func (h Argon2Hash) MatchBytes(raw []byte) bool {
	other := argon2.IDKey(raw, h.Salt, h.Iterations, h.MemoryKiB, h.Parallelism, uint32(len(h.Hash)))
	return subtle.ConstantTimeCompare(h.Hash, other) == 1
}

func (h Argon2Hash) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		h.Variant,
		h.Version,
		h.MemoryKiB,
		h.Iterations,
		h.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.Salt),
		base64.RawStdEncoding.EncodeToString(h.Hash),
	)
}

func (h Argon2Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Argon2Hash) UnmarshalText(txt []byte) error {
	parsed, err := ParseArgon2Hash(string(txt))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Scan implements sql.Scanner.
func (h *Argon2Hash) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return h.UnmarshalText([]byte(v))
	case []byte:
		return h.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into argon2 hash", src)
	}
}

func genRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}
