package errorz

import (
	"errors"
	"strings"
)

// InvalidInput signals that a provided input is invalid due to the wrapped errors.
type InvalidInput []error

func (e InvalidInput) Error() string {
	var b strings.Builder
	b.WriteString("invalid input:\n")
	for _, err := range e {
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func (e InvalidInput) Unwrap() []error {
	return e
}

// Is makes every InvalidInput match ErrInvalidInput.
func (e InvalidInput) Is(target error) bool {
	return target == ErrInvalidInput
}

// Keys returns the keys of all Keyed errors in e.
func (e InvalidInput) Keys() []string {
	keys := make([]string, 0, len(e))
	for _, err := range e {
		var k Keyed
		if errors.As(err, &k) {
			keys = append(keys, k.Key)
		}
	}
	return keys
}
