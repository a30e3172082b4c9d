package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/application/auth"
	"github.com/jbrucker/home-log/internal/application/ports"
	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
	"github.com/jbrucker/home-log/internal/domain"
	"github.com/jbrucker/home-log/internal/infrastructure/http/middleware"
)

type AuthHandler struct {
	login    *auth.Login
	userRepo ports.UserRepository
	validate *validator.Validate
	log      zerolog.Logger
}

func NewAuthHandler(login *auth.Login, userRepo ports.UserRepository, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		login:    login,
		userRepo: userRepo,
		validate: validator.New(),
		log:      log,
	}
}

// Login handles PUT /api/auth/login. Following the OAuth2 password flow,
// the "username" field carries the user's email address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username" validate:"required,max=160"`
		Password string `json:"password" validate:"required,max=255"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if err := h.validate.Struct(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "missing username or password")
		return
	}
	email := SanitizeEmail(body.Username)
	if email == "" {
		writeErr(w, http.StatusBadRequest, "", "invalid username")
		return
	}
	result, err := h.login.Execute(r.Context(), auth.LoginInput{
		Email:    email,
		Password: body.Password,
	})
	if err != nil {
		AuditLog(h.log, r, "auth.login", "", false, err.Error())
		middleware.RecordAuthAttempt("login", false)
		if errors.Is(err, domerrors.ErrInvalidCredentials) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeErr(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid credentials")
			return
		}
		h.log.Error().Err(err).Msg("login failed")
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	AuditLog(h.log, r, "auth.login", result.User.ID.String(), true, "")
	middleware.RecordAuthAttempt("login", true)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": result.AccessToken,
		"token_type":   result.TokenType,
		"expires_in":   result.ExpiresIn,
	})
}

// Validate handles GET /api/auth/validate. The route guard has already
// verified the token; this additionally re-checks that the subject still
// resolves to an existing user (one indexed lookup).
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userIDStr := middleware.UserIDFromContext(r.Context())
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "", "invalid token")
		return
	}
	user, err := h.userRepo.GetByID(r.Context(), domain.NewUserID(userID))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "", "internal error")
		return
	}
	if user == nil {
		writeErr(w, http.StatusUnauthorized, "", "invalid token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"user_id": user.ID.String(),
	})
}
