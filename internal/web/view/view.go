package view

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
)

const (
	baseFile     = "base.html"
	partialsGlob = "partials/*.html"
)

var ErrInvalidName = errors.New("invalid view name")

// View is a page template. Every view is rendered inside base.html
// and can use any template defined in partials/.
type View struct {
	name     string
	template *template.Template
}

// Parse parses base.html, {name}.html and the partials found in viewFS.
func Parse(viewFS fs.FS, name string) (*View, error) {
	// Names end up in filenames, only allow a safe subset.
	if err := validateName(name); err != nil {
		return nil, err
	}

	files := []string{baseFile, name + ".html"}

	partials, err := fs.Glob(viewFS, partialsGlob)
	if err != nil {
		return nil, fmt.Errorf("failed to glob for partials: %w", err)
	}

	files = append(files, partials...)

	tmpl, err := template.New(baseFile).ParseFS(viewFS, files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse view %s: %w", name, err)
	}

	return &View{
		name:     name,
		template: tmpl,
	}, nil
}

// Name returns the name the view was parsed with.
func (v *View) Name() string {
	return v.name
}

// Render executes the view with data and writes the result to w.
func (v *View) Render(w io.Writer, data any) error {
	return v.template.Execute(w, data)
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}

	for _, c := range name {
		if !validViewRune(c) {
			return fmt.Errorf("%w: character %q in %s", ErrInvalidName, c, name)
		}
	}

	return nil
}

func validViewRune(r rune) bool {
	return r == '-' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
