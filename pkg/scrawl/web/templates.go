// Package web holds the embedded HTML templates for the server-rendered UI.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

var functions = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("02 Jan 2006, 15:04")
	},
	"truncate": func(s string, n int) string {
		runes := []rune(s)
		if len(runes) <= n {
			return s
		}
		return string(runes[:n]) + "…"
	},
}

// Templates parses the embedded template set. The result is handed to the
// gin engine once at startup.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(functions).ParseFS(templatesFS, "templates/*.html"))
}
