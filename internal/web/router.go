package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/haulquote/internal/api"
	"github.com/erazemk/haulquote/internal/export"
	"github.com/erazemk/haulquote/internal/model"
	webembed "github.com/erazemk/haulquote/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string, pricing model.Pricing) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		JWTSecret: jwtSecret,
		Verifier:  api.NewVerifier(db, jwtSecret),
		Pricing:   pricing,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(s.Verifier)
	read := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }
	write := func(h http.HandlerFunc) http.Handler {
		return cookieAuth(requireRole(model.RoleOperator)(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return cookieAuth(requireRole(model.RoleAdmin)(h))
	}

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.Handle("POST /login", api.LoginRateLimit(api.DefaultLoginRateLimit)(http.HandlerFunc(s.LoginSubmit)))
	mux.HandleFunc("POST /logout", s.Logout)

	mux.Handle("GET /{$}", read(s.QuotesPage))
	mux.Handle("POST /quotes", write(s.QuoteCreateSubmit))
	mux.Handle("GET /quotes/{id}", read(s.QuotePage))
	mux.Handle("POST /quotes/{id}", write(s.QuoteUpdateSubmit))
	mux.Handle("POST /quotes/{id}/duplicate", write(s.QuoteDuplicateSubmit))
	mux.Handle("POST /quotes/{id}/delete", write(s.QuoteDeleteSubmit))
	mux.Handle("GET /quotes/{id}/export.json", read(s.QuoteExport("json", "application/json", export.WriteJSON)))
	mux.Handle("GET /quotes/{id}/export.csv", read(s.QuoteExport("csv", "text/csv; charset=utf-8", export.WriteCSV)))

	mux.Handle("POST /quotes/{id}/items", write(s.ItemCreateSubmit))
	mux.Handle("POST /items/{id}", write(s.ItemUpdateSubmit))
	mux.Handle("POST /items/{id}/toggle", write(s.ItemToggleSubmit))
	mux.Handle("POST /items/{id}/delete", write(s.ItemDeleteSubmit))
	mux.Handle("POST /items/{id}/image", write(s.ItemImageSubmit))
	mux.Handle("GET /items/{id}/image", read(s.ItemImageGet))

	mux.Handle("GET /users", admin(s.UsersPage))
	mux.Handle("POST /users", admin(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/password", admin(s.UserResetPasswordSubmit))
	mux.Handle("POST /users/{id}/role", admin(s.UserUpdateRoleSubmit))

	mux.Handle("GET /settings", read(s.SettingsPage))
	mux.Handle("POST /settings", read(s.SettingsSubmit))

	return mux, nil
}
