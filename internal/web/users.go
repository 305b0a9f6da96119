package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/store"
)

type usersPage struct {
	PageData
	Users []model.User
	Roles []string
}

// UsersPage handles GET /users (admin only).
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request) {
	s.renderUsers(w, r, http.StatusOK, "", "")
}

func (s *Server) renderUsers(w http.ResponseWriter, r *http.Request, status int, errMsg, success string) {
	users, err := store.ListUsers(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
	}

	data := &usersPage{
		PageData: s.page(r, "Users"),
		Users:    users,
		Roles:    []string{model.RoleAdmin, model.RoleOperator, model.RoleViewer},
	}
	data.Error = errMsg
	data.Success = success
	s.Templates.RenderStatus(w, status, "users.html", data)
}

// UserCreateSubmit handles POST /users (admin only).
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	role := r.FormValue("role")

	if username == "" || !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Enter a username and pick a role.", "")
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, capitalize(err.Error())+".", "")
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), s.DB, username)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		s.renderUsers(w, r, http.StatusConflict, "That username is taken.", "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if _, err := store.CreateUser(r.Context(), s.DB, username, string(hash), role); err != nil {
		slog.Error("failed to create user", "error", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	slog.Info("user created", "user", GetWebClaims(r.Context()).Username, "new_user", username, "role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// UserResetPasswordSubmit handles POST /users/{id}/password (admin only).
func (s *Server) UserResetPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	newPassword := r.FormValue("new_password")
	if err := model.ValidatePassword(newPassword); err != nil {
		s.renderUsers(w, r, http.StatusBadRequest, capitalize(err.Error())+".", "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to hash password", http.StatusInternalServerError)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, id, string(hash)); err != nil && !isNotFound(err) {
		slog.Error("failed to reset password", "error", err)
		http.Error(w, "failed to reset password", http.StatusInternalServerError)
		return
	}
	s.renderUsers(w, r, http.StatusOK, "", "Password reset.")
}

// UserUpdateRoleSubmit handles POST /users/{id}/role (admin only).
func (s *Server) UserUpdateRoleSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	role := r.FormValue("role")
	if !model.ValidRole(role) {
		s.renderUsers(w, r, http.StatusBadRequest, "Unknown role.", "")
		return
	}

	if role != model.RoleAdmin {
		target, err := store.GetUser(r.Context(), s.DB, id)
		if err != nil {
			slog.Error("failed to get user", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if target != nil && target.Role == model.RoleAdmin {
			admins, err := store.CountAdmins(r.Context(), s.DB)
			if err != nil {
				slog.Error("failed to count admins", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if admins <= 1 {
				s.renderUsers(w, r, http.StatusBadRequest, "The last admin cannot be demoted.", "")
				return
			}
		}
	}

	if err := store.UpdateUserRole(r.Context(), s.DB, id, role); err != nil && !isNotFound(err) {
		slog.Error("failed to update role", "error", err)
		http.Error(w, "failed to update role", http.StatusInternalServerError)
		return
	}

	slog.Info("user role updated", "user", GetWebClaims(r.Context()).Username, "target_id", id, "new_role", role)
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request) {
	data := s.page(r, "Settings")
	s.Templates.Render(w, "settings.html", &data)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	data := s.page(r, "Settings")
	fail := func(status int, msg string) {
		data.Error = msg
		s.Templates.RenderStatus(w, status, "settings.html", &data)
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")

	if currentPassword == "" {
		fail(http.StatusBadRequest, "Enter your current password.")
		return
	}
	if err := model.ValidatePassword(newPassword); err != nil {
		fail(http.StatusBadRequest, capitalize(err.Error())+".")
		return
	}

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		fail(http.StatusInternalServerError, "Could not load your account.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		fail(http.StatusUnauthorized, "Current password is incorrect.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		fail(http.StatusInternalServerError, "Could not save the password.")
		return
	}

	if err := store.UpdateUserPassword(r.Context(), s.DB, claims.UserID, string(hash)); err != nil {
		slog.Error("failed to update password", "error", err)
		fail(http.StatusInternalServerError, "Could not save the password.")
		return
	}

	slog.Info("user changed own password", "user", claims.Username)
	data.Success = "Password changed."
	s.Templates.Render(w, "settings.html", &data)
}
