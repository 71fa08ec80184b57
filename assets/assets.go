// Package assets embeds the web page and email templates.
package assets

import (
	"embed"
	"io/fs"
)

var (
	//go:embed templates
	templates embed.FS

	//go:embed emails/*.tmpl
	emails embed.FS
)

var (
	// TemplateFS holds the html templates for the web pages.
	TemplateFS = mustSub(templates, "templates")
	// EmailFS holds one .tmpl file per email, see internal/email/view.
	EmailFS = mustSub(emails, "emails")
)

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("assets: " + err.Error())
	}
	return sub
}
