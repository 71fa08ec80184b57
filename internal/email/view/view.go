package view

import (
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"text/template"

	"github.com/willemschots/mailinglist/internal/email"
)

// viewNameRe restricts view names, they end up in filenames.
var viewNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// requiredElements are the blocks every email template defines.
var requiredElements = []email.TemplateElement{
	email.ElementSubject,
	email.ElementText,
	email.ElementHTML,
}

// View is a parsed email template.
type View struct {
	tmpl *template.Template
}

// Parse parses <name>.tmpl from the root of fsys.
func Parse(fsys fs.FS, name string) (*View, error) {
	if !viewNameRe.MatchString(name) {
		return nil, fmt.Errorf("invalid email view name %q", name)
	}

	filename := name + ".tmpl"
	tmpl, err := template.New(name).ParseFS(fsys, filename)
	if err != nil {
		return nil, err
	}

	var missing []email.TemplateElement
	for _, el := range requiredElements {
		if tmpl.Lookup(string(el)) == nil {
			missing = append(missing, el)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%s is missing templates %v", filename, missing)
	}

	return &View{tmpl: tmpl}, nil
}

func (v *View) Render(w io.Writer, element email.TemplateElement, data any) error {
	return v.tmpl.ExecuteTemplate(w, string(element), data)
}
