// Package templates renders the HTML pages served by the password reset flow.
package templates

import (
	"embed"
	"html/template"
	"io"
)

//go:embed *.html
var files embed.FS

const (
	ResetPasswordForm = "reset_password_form.html"
	InvalidResetLink  = "invalid_reset_link.html"
)

var pages = template.Must(template.ParseFS(files, "*.html"))

type ResetFormData struct {
	AppName   string
	ActionURL string
}

type InvalidLinkData struct {
	AppName string
}

func Render(w io.Writer, name string, data any) error {
	return pages.ExecuteTemplate(w, name, data)
}
