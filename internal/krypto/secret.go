package krypto

// Secret is sensitive configuration that needs to be passed around
// but never exposed, such as API tokens for mail providers.
type Secret struct {
	value []byte
}

func NewSecret(raw string) Secret {
	return Secret{value: []byte(raw)}
}

// IsEmpty reports whether the secret holds no value.
func (s Secret) IsEmpty() bool {
	return len(s.value) == 0
}

// SecretValue returns the secret as a byte slice, for handing it
// to third party packages.
func (s Secret) SecretValue() []byte {
	return s.value
}
