package middleware

import "context"

type contextKey string

const userContextKey contextKey = "user_id"

// WithUserID injects the authenticated user id into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

// UserIDFromContext returns the authenticated user id, or "" when the
// request did not pass the auth guard.
func UserIDFromContext(ctx context.Context) string {
	v := ctx.Value(userContextKey)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
