package invoice

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Renderer writes a Document to w. Renderers only lay out the figures a Document
// already carries; they never compute amounts.
type Renderer interface {
	Target() string
	Render(w io.Writer, doc Document) error
}

// ScreenRenderer renders the interactive on-screen preview.
type ScreenRenderer struct {
	tmpl *template.Template
}

// PrintRenderer renders the A4 print layout used for printing and PDF export.
type PrintRenderer struct {
	tmpl *template.Template
}

// NewScreenRenderer parses the embedded preview template.
func NewScreenRenderer() (*ScreenRenderer, error) {
	tmpl, err := parse("screen.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &ScreenRenderer{tmpl: tmpl}, nil
}

// NewPrintRenderer parses the embedded print template.
func NewPrintRenderer() (*PrintRenderer, error) {
	tmpl, err := parse("print.html.tmpl")
	if err != nil {
		return nil, err
	}
	return &PrintRenderer{tmpl: tmpl}, nil
}

// Target implements Renderer.
func (r *ScreenRenderer) Target() string { return "screen" }

// Render implements Renderer.
func (r *ScreenRenderer) Render(w io.Writer, doc Document) error {
	return r.tmpl.ExecuteTemplate(w, "screen", doc)
}

// Target implements Renderer.
func (r *PrintRenderer) Target() string { return "print" }

// Render implements Renderer.
func (r *PrintRenderer) Render(w io.Writer, doc Document) error {
	return r.tmpl.ExecuteTemplate(w, "print", doc)
}

func parse(name string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{"logoURL": logoURL}).ParseFS(templateFS, "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// logoURL admits uploaded data images and http(s) links; anything else is dropped.
func logoURL(value string) template.URL {
	v := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(v, "data:image/"), strings.HasPrefix(v, "https://"), strings.HasPrefix(v, "http://"):
		return template.URL(v)
	default:
		return ""
	}
}
