package view

import (
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
)

// Renderer renders views by name.
//
// A Renderer created with reload parses the view on every call, which
// allows editing templates on disk while the server runs. Otherwise
// parsed views are kept in memory.
type Renderer struct {
	fs     fs.FS
	reload bool

	mu    sync.RWMutex
	views map[string]*View
}

func NewRenderer(viewFS fs.FS, reload bool) *Renderer {
	return &Renderer{
		fs:     viewFS,
		reload: reload,
		views:  make(map[string]*View),
	}
}

// ParseAll parses every top level view in the file system, so
// template errors surface at startup instead of on the first request.
func (r *Renderer) ParseAll() error {
	files, err := fs.Glob(r.fs, "*.html")
	if err != nil {
		return fmt.Errorf("failed to glob for views: %w", err)
	}

	for _, file := range files {
		if file == baseFile {
			continue
		}

		_, err := r.view(strings.TrimSuffix(file, ".html"))
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Renderer) Render(w io.Writer, name string, data any) error {
	v, err := r.view(name)
	if err != nil {
		return err
	}

	return v.Render(w, data)
}

func (r *Renderer) view(name string) (*View, error) {
	if r.reload {
		return Parse(r.fs, name)
	}

	r.mu.RLock()
	v, ok := r.views[name]
	r.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := Parse(r.fs, name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.views[name] = v
	r.mu.Unlock()

	return v, nil
}
