package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"taskflow-console/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	pageLogin    = "login"
	pageRegister = "register"
	pageProjects = "projects"
	pageNotFound = "not_found"
)

type formValues struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

type page struct {
	Title         string
	Authenticated bool
	Identity      model.Identity
	Error         string
	Message       string
	Form          formValues
	Projects      []model.Project

	// RedirectURL, when set, sends the browser on after RedirectSeconds.
	RedirectURL     string
	RedirectSeconds string
}

// Pages holds one template set per page, each sharing the layout.
type Pages struct {
	templates map[string]*template.Template
}

func NewPages() (*Pages, error) {
	names := []string{pageLogin, pageRegister, pageProjects, pageNotFound}
	templates := make(map[string]*template.Template, len(names))

	for _, name := range names {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Pages{templates: templates}, nil
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data page) {
	tmpl, ok := p.templates[name]
	if !ok {
		slog.Error("unknown page template", "page", name)
		http.Error(w, "Unexpected server error", http.StatusInternalServerError)
		return
	}

	// Render fully before writing so a template error still yields a clean 500.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Unexpected server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Static serves the console's stylesheet and script.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServerFS(sub))
}
