package errors

import "errors"

// Sentinel errors for handlers to map to HTTP status.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailExists        = errors.New("email already registered")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password does not satisfy strength rules")
	ErrUnknownMetric      = errors.New("reading contains a metric not defined by the source")
)
