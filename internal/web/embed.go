// Package web provides the embedded dashboard templates and static files.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/labstack/echo/v4"

	"github.com/file-inspector/backend/internal/models"
)

//go:embed templates/*.html static/*
var files embed.FS

// PageDashboard is the only page template.
const PageDashboard = "dashboard.html"

// DashboardPage is the data behind the dashboard template.
type DashboardPage struct {
	Title   string
	Icon    string
	Heading string
	Report  *models.Report
	// ChartURL is the chart page for the current selection, if any.
	ChartURL string
}

var funcs = template.FuncMap{
	"isSelected": func(a, b interface{}) bool {
		return fmt.Sprint(a) == fmt.Sprint(b)
	},
}

// Renderer renders the embedded templates for echo.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// RegisterStaticRoutes serves the embedded static files under /static.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := fs.Sub(files, "static")
	if err != nil {
		return err
	}
	e.StaticFS("/static", staticFS)
	return nil
}
