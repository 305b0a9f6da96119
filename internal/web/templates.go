package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/erazemk/haulquote/internal/auth"
	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/quote"
	webembed "github.com/erazemk/haulquote/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleOperator:
				return "Operator"
			case model.RoleViewer:
				return "Viewer"
			default:
				return role
			}
		},
		"usd": func(v float64) string {
			return fmt.Sprintf("$%.2f", v)
		},
		"num": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		"percent": func(v float64) string {
			return strconv.FormatFloat(percentOf(v), 'f', -1, 64) + "%"
		},
		"percentValue": percentOf,
		"grams": func(item model.Item) string {
			return strconv.FormatFloat(quote.ItemWeight(item), 'f', -1, 64)
		},
		"overridden": func(item model.Item) bool {
			return item.WeightGrams != nil
		},
	}
}

// percentOf turns a rate into a percentage without float noise (0.03 -> 3).
func percentOf(rate float64) float64 {
	return math.Round(rate*100*1e6) / 1e6
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"quotes.html",
		"quote.html",
		"users.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with an explicit status code.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Templates *Templates
	JWTSecret string
	Verifier  *auth.Verifier
	// Pricing seeds quotes created from the list page.
	Pricing model.Pricing
}

func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{Title: title, User: GetWebClaims(r.Context())}
}
