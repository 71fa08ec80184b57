package errorz

import "fmt"

// Keyed ties an error to a key, usually the name of a form field, so it
// can be shown next to that field.
type Keyed struct {
	Key string
	Err error
}

func (k Keyed) Error() string {
	return fmt.Sprintf("%s: %v", k.Key, k.Err)
}

func (k Keyed) Unwrap() error {
	return k.Err
}
