package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecureHeaders adds the browser-facing security headers for a JSON-only
// API: no framing, no sniffing, nothing loadable as a document. Dev mode
// relaxes the checks that break plain-HTTP local runs.
func SecureHeaders(isDevelopment bool) func(next http.Handler) http.Handler {
	s := secure.New(secure.Options{
		IsDevelopment:         isDevelopment,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	})
	return s.Handler
}
