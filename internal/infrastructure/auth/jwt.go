package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domerrors "github.com/jbrucker/home-log/internal/domain/errors"
)

// TokenSigner implements ports.TokenSigner using an HMAC-signed JWT.
// The subject claim carries the user id; expiry is a hard boundary with no
// clock-skew leeway.
type TokenSigner struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    time.Duration
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// NewTokenSigner creates a signer for the given algorithm ("HS256", "HS384"
// or "HS512"). Anything else is rejected at construction, not at runtime.
func NewTokenSigner(secret []byte, algorithm, issuer string, ttl time.Duration) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token signer requires a non-empty secret")
	}
	method := jwt.GetSigningMethod(algorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", algorithm)
	}
	return &TokenSigner{secret: secret, method: method, issuer: issuer, ttl: ttl}, nil
}

func (t *TokenSigner) Issue(userID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
}

// Validate returns the subject user id. Every failure mode (bad signature,
// expiry, wrong algorithm, malformed payload, missing subject) maps to the
// single ErrInvalidToken sentinel so responses leak nothing about the cause.
func (t *TokenSigner) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != t.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithValidMethods([]string{t.method.Alg()}))
	if err != nil {
		return "", domerrors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return "", domerrors.ErrInvalidToken
	}
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", domerrors.ErrInvalidToken
	}
	return userID, nil
}
