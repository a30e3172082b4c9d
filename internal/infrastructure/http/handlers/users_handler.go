package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/application/auth"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/infrastructure/http/middleware"
)

// UsersHandler handles registration (POST /api/users).
type UsersHandler struct {
	register *auth.RegisterUser
	validate *validator.Validate
	log      zerolog.Logger
}

func NewUsersHandler(register *auth.RegisterUser, log zerolog.Logger) *UsersHandler {
	return &UsersHandler{register: register, validate: validator.New(), log: log}
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=160"`
		Username string `json:"username" validate:"max=60"`
		Password string `json:"password" validate:"required,min=7,max=255"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", err.Error())
		return
	}
	email := SanitizeEmail(body.Email)
	if email == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid email")
		return
	}
	result, err := h.register.Execute(r.Context(), auth.RegisterUserInput{
		Email:    email,
		Username: SanitizeName(body.Username),
		Password: body.Password,
	})
	if err != nil {
		AuditLog(h.log, r, "user.register", "", false, err.Error())
		middleware.RecordAuthAttempt("register", false)
		switch {
		case errors.Is(err, domerrors.ErrEmailExists):
			writeErr(w, http.StatusConflict, "", err.Error())
		case errors.Is(err, domerrors.ErrWeakPassword):
			writeErr(w, http.StatusUnprocessableEntity, "", err.Error())
		case errors.Is(err, domerrors.ErrInvalidCredentials):
			writeErr(w, http.StatusBadRequest, "", "invalid email")
		default:
			h.log.Error().Err(err).Msg("register failed")
			writeErr(w, http.StatusInternalServerError, "", "internal error")
		}
		return
	}
	AuditLog(h.log, r, "user.register", result.User.ID.String(), true, "")
	middleware.RecordAuthAttempt("register", true)
	w.Header().Set("Location", "/api/users/"+result.User.ID.String())
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         result.User.ID.String(),
		"email":      result.User.Email,
		"username":   result.User.Username,
		"created_at": result.User.CreatedAt,
	})
}
