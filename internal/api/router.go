package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/haulquote/internal/estimate"
	"github.com/erazemk/haulquote/internal/model"
)

// DefaultLoginRateLimit is the number of login attempts allowed per IP per minute.
const DefaultLoginRateLimit = 10

// Config holds the dependencies of the API router.
type Config struct {
	DB        *sql.DB
	JWTSecret string
	// Pricing seeds new quotes that omit pricing fields.
	Pricing   model.Pricing
	Estimator *estimate.Client
	// LoginRateLimit defaults to DefaultLoginRateLimit when zero.
	LoginRateLimit int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(cfg Config) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: cfg.DB, JWTSecret: cfg.JWTSecret}
	usersHandler := &UsersHandler{DB: cfg.DB}
	customersHandler := &CustomersHandler{DB: cfg.DB}
	quotesHandler := &QuotesHandler{DB: cfg.DB, Pricing: cfg.Pricing}
	itemsHandler := &ItemsHandler{DB: cfg.DB}
	estimateHandler := &EstimateHandler{Client: cfg.Estimator}

	limit := cfg.LoginRateLimit
	if limit <= 0 {
		limit = DefaultLoginRateLimit
	}

	authMW := AuthMiddleware(NewVerifier(cfg.DB, cfg.JWTSecret))
	requireAdmin := RequireRole(model.RoleAdmin)
	requireOperator := RequireRole(model.RoleOperator)

	read := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	write := func(h http.HandlerFunc) http.Handler { return authMW(requireOperator(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }

	// Public.
	mux.HandleFunc("GET /api/health", Health)
	mux.Handle("POST /api/auth/login", LoginRateLimit(limit)(http.HandlerFunc(authHandler.Login)))

	mux.Handle("PUT /api/auth/password", read(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", read(authHandler.Logout))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("GET /api/users/{id}", admin(usersHandler.Get))
	mux.Handle("PUT /api/users/{id}", admin(usersHandler.Update))
	mux.Handle("PUT /api/users/{id}/password", admin(usersHandler.ResetPassword))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Customers: read (all roles), write (operator+).
	mux.Handle("GET /api/customers", read(customersHandler.List))
	mux.Handle("POST /api/customers", write(customersHandler.Create))
	mux.Handle("PUT /api/customers/{id}", write(customersHandler.Update))
	mux.Handle("DELETE /api/customers/{id}", write(customersHandler.Delete))

	// Quotes.
	mux.Handle("GET /api/quotes", read(quotesHandler.List))
	mux.Handle("POST /api/quotes", write(quotesHandler.Create))
	mux.Handle("GET /api/quotes/{id}", read(quotesHandler.Get))
	mux.Handle("PUT /api/quotes/{id}", write(quotesHandler.Update))
	mux.Handle("DELETE /api/quotes/{id}", write(quotesHandler.Delete))
	mux.Handle("POST /api/quotes/{id}/duplicate", write(quotesHandler.Duplicate))
	mux.Handle("GET /api/quotes/{id}/totals", read(quotesHandler.Totals))
	mux.Handle("GET /api/quotes/{id}/message", read(quotesHandler.Message))
	mux.Handle("GET /api/quotes/{id}/export.json", read(quotesHandler.ExportJSON))
	mux.Handle("GET /api/quotes/{id}/export.csv", read(quotesHandler.ExportCSV))

	// Items.
	mux.Handle("POST /api/quotes/{id}/items", write(itemsHandler.Create))
	mux.Handle("PUT /api/quotes/{id}/items/order", write(itemsHandler.Reorder))
	mux.Handle("PUT /api/items/{id}", write(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", write(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/image", write(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", read(itemsHandler.GetImage))

	mux.Handle("POST /api/estimate-weight", write(estimateHandler.Estimate))

	return mux
}
