package view

import (
	"io"
	"io/fs"
	"sync"

	"github.com/willemschots/mailinglist/internal/email"
)

// FSRenderer renders email views from a file system.
// Parsed views are cached unless the renderer is created with reload enabled.
type FSRenderer struct {
	fs     fs.FS
	reload bool

	mu    sync.Mutex
	views map[string]*View
}

func NewFSRenderer(fs fs.FS, reload bool) *FSRenderer {
	return &FSRenderer{
		fs:     fs,
		reload: reload,
		views:  make(map[string]*View),
	}
}

func (r *FSRenderer) Render(w io.Writer, name string, element email.TemplateElement, data any) error {
	v, err := r.view(name)
	if err != nil {
		return err
	}

	return v.Render(w, element, data)
}

func (r *FSRenderer) view(name string) (*View, error) {
	if r.reload {
		return Parse(r.fs, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views[name]; ok {
		return v, nil
	}

	v, err := Parse(r.fs, name)
	if err != nil {
		return nil, err
	}

	r.views[name] = v
	return v, nil
}
