package newsletter

import (
	"errors"
	"strings"

	"github.com/willemschots/mailinglist/internal/errorz"
)

var ErrEmptyField = errors.New("must not be empty")

// Issue is a newsletter issue as submitted by an operator.
type Issue struct {
	Title   string  `json:"title"`
	Content Content `json:"content"`
}

// Content holds the two renditions of an issue body.
type Content struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Validate checks that the title and both bodies are present.
// It returns an errorz.InvalidInput keyed by the JSON field path.
func (i Issue) Validate() error {
	var errs errorz.InvalidInput

	fields := []struct {
		key   string
		value string
	}{
		{key: "title", value: i.Title},
		{key: "content.html", value: i.Content.HTML},
		{key: "content.text", value: i.Content.Text},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, errorz.Keyed{Key: f.key, Err: ErrEmptyField})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
