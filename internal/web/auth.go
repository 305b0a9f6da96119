package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/haulquote/internal/api"
	"github.com/erazemk/haulquote/internal/auth"
	"github.com/erazemk/haulquote/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Sign in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		s.Templates.RenderStatus(w, http.StatusBadRequest, "login.html", &PageData{
			Title: "Sign in",
			Error: "Enter a username and password.",
		})
		return
	}

	user, err := api.Authenticate(r, s.DB, username, password)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
	}
	if user == nil {
		s.Templates.RenderStatus(w, http.StatusUnauthorized, "login.html", &PageData{
			Title: "Sign in",
			Error: "Wrong username or password.",
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		s.Templates.RenderStatus(w, http.StatusInternalServerError, "login.html", &PageData{
			Title: "Sign in",
			Error: "Could not sign in.",
		})
		return
	}

	setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.Username, "via", "web")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked so a copied
// cookie stops working too.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.Expiry()); err != nil {
				slog.Error("failed to revoke token", "error", err)
			}
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
