package view

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/campuspass/campuspass-admin/internal/shared"
	"github.com/campuspass/campuspass-admin/internal/timefmt"
	"github.com/campuspass/campuspass-admin/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// NavItem is one entry of the sidebar.
type NavItem struct {
	Label  string
	Path   string
	Active bool
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flashes     []shared.FlashMessage
	CurrentPath string
	Nav         []NavItem
	Data        any
}

// NewEngine parses the embedded templates. Times render in display.
func NewEngine(display *timefmt.Display) (*Engine, error) {
	funcMap := template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return display.Time(t)
		},
		"lower": strings.ToLower,
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.Execute(w, name, data)
}

// Execute writes a named template to any writer.
func (e *Engine) Execute(w io.Writer, name string, data TemplateData) error {
	return e.templates.ExecuteTemplate(w, name, data)
}
