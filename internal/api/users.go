package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/store"
)

// UsersHandler handles user management endpoints (admin only).
type UsersHandler struct {
	DB *sql.DB
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin operator viewer"`
}

type updateUserRequest struct {
	Role string `json:"role" validate:"required,oneof=admin operator viewer"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required,max=200"`
}

func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func (h *UsersHandler) targetName(r *http.Request, id int64) string {
	if u, _ := store.GetUser(r.Context(), h.DB, id); u != nil {
		return u.Username
	}
	return fmt.Sprintf("id:%d", id)
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		serverError(w, "failed to list users", err)
		return
	}
	jsonResponse(w, http.StatusOK, users)
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		serverError(w, "failed to create user", err)
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "username already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, "failed to hash password", err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Username, string(hash), req.Role)
	if err != nil {
		serverError(w, "failed to create user", err)
		return
	}

	slog.Info("user created", "user", GetClaims(r.Context()).Username, "new_user", req.Username, "role", req.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		serverError(w, "failed to get user", err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}

// Update handles PUT /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !decodeValid(w, r, &req) {
		return
	}

	if req.Role != model.RoleAdmin && !h.keepsAnAdmin(w, r, id) {
		return
	}

	err := store.UpdateUserRole(r.Context(), h.DB, id, req.Role)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		serverError(w, "failed to update user", err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		serverError(w, "failed to get user", err)
		return
	}
	slog.Info("user role updated", "user", GetClaims(r.Context()).Username, "target_user", user.Username, "new_role", req.Role)
	jsonResponse(w, http.StatusOK, user)
}

// ResetPassword handles PUT /api/users/{id}/password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req resetPasswordRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serverError(w, "failed to hash password", err)
		return
	}

	err = store.UpdateUserPassword(r.Context(), h.DB, id, string(hash))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		serverError(w, "failed to reset password", err)
		return
	}

	slog.Info("user password reset", "user", GetClaims(r.Context()).Username, "target_user", h.targetName(r, id))
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// Delete handles DELETE /api/users/{id}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	claims := GetClaims(r.Context())
	if claims.UserID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}
	if !h.keepsAnAdmin(w, r, id) {
		return
	}

	name := h.targetName(r, id)
	err := store.DeleteUser(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		serverError(w, "failed to delete user", err)
		return
	}

	slog.Info("user deleted", "user", claims.Username, "deleted_user", name)
	w.WriteHeader(http.StatusNoContent)
}

// keepsAnAdmin rejects demoting or deleting the last remaining admin.
func (h *UsersHandler) keepsAnAdmin(w http.ResponseWriter, r *http.Request, id int64) bool {
	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		serverError(w, "failed to get user", err)
		return false
	}
	if target == nil || target.DeletedAt != nil || target.Role != model.RoleAdmin {
		return true
	}

	admins, err := store.CountAdmins(r.Context(), h.DB)
	if err != nil {
		serverError(w, "failed to count admins", err)
		return false
	}
	if admins <= 1 {
		jsonError(w, http.StatusBadRequest, "cannot remove the last admin")
		return false
	}
	return true
}
