package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jbrucker/home-log/internal/application/ports"
)

// AuthValidator is the route guard: it extracts the bearer token, validates
// it, and puts the resolved user id in the request context. Validation is
// pure computation; there is no store lookup per request.
type AuthValidator struct {
	signer ports.TokenSigner
}

func NewAuthValidator(signer ports.TokenSigner) *AuthValidator {
	return &AuthValidator{signer: signer}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeUnauthorized(w)
			return
		}
		// Uniform response for every failure mode: the client learns only
		// that the credential was not accepted.
		userID, err := m.signer.Validate(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "missing or invalid authorization",
		"code":  "unauthorized",
	})
}
