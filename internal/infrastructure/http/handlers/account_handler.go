package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/application/auth"
	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
	"github.com/jbrucker/home-log/internal/infrastructure/http/middleware"
)

// AccountHandler handles /api/account/*. Requires the auth guard.
type AccountHandler struct {
	userRepo       ports.UserRepository
	changePassword *auth.ChangePassword
	log            zerolog.Logger
}

func NewAccountHandler(userRepo ports.UserRepository, changePassword *auth.ChangePassword, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{userRepo: userRepo, changePassword: changePassword, log: log}
}

// Me returns the current user's profile, without any credential material.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if user == nil {
		writeErr(w, http.StatusNotFound, "", "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":         user.ID.String(),
		"email":      user.Email,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	})
}

// ChangePassword handles PUT /api/account/password with {"password": "..."}.
// Responds 204 on success; the hash is never echoed back.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Password == "" {
		writeErr(w, http.StatusBadRequest, "", "missing password")
		return
	}
	if err := h.changePassword.Execute(r.Context(), userID, body.Password); err != nil {
		AuditLog(h.log, r, "account.change_password", userID.String(), false, err.Error())
		switch {
		case errors.Is(err, domerrors.ErrWeakPassword):
			writeErr(w, http.StatusUnprocessableEntity, "", err.Error())
		case errors.Is(err, domerrors.ErrNotFound):
			writeErr(w, http.StatusNotFound, "", "user not found")
		default:
			h.log.Error().Err(err).Msg("change password failed")
			writeErr(w, http.StatusInternalServerError, "", "internal error")
		}
		return
	}
	AuditLog(h.log, r, "account.change_password", userID.String(), true, "")
	w.WriteHeader(http.StatusNoContent)
}

// currentUser resolves the guard's user id into a typed id, writing a 401
// when the context carries no usable identity.
func currentUser(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "", "unauthorized")
		return domain.UserID{}, false
	}
	return domain.NewUserID(id), true
}
