package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jbrucker/home-log/internal/infrastructure/http/handlers"
	"github.com/jbrucker/home-log/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	UsersHandler    *handlers.UsersHandler
	AccountHandler  *handlers.AccountHandler
	SourcesHandler  *handlers.SourcesHandler
	ReadingsHandler *handlers.ReadingsHandler
	HealthHandler   *handlers.HealthHandler
	RequireJWT      func(http.Handler) http.Handler // bearer auth guard
	Log             zerolog.Logger
	Secure          func(http.Handler) http.Handler
	CORS            func(http.Handler) http.Handler
	IPRateLimit     func(http.Handler) http.Handler
	UserRateLimit   func(http.Handler) http.Handler // after RequireJWT
	Metrics         bool                            // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	r.Use(chimid.AllowContentType("application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Registration and login take no bearer token.
		r.Post("/users", cfg.UsersHandler.Create)
		r.Put("/auth/login", cfg.AuthHandler.Login)

		// Everything else requires a valid token.
		r.Group(func(r chi.Router) {
			r.Use(cfg.RequireJWT)
			if cfg.UserRateLimit != nil {
				r.Use(cfg.UserRateLimit)
			}
			r.Get("/auth/validate", cfg.AuthHandler.Validate)

			r.Route("/account", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Me)
				r.Put("/password", cfg.AccountHandler.ChangePassword)
			})

			r.Route("/sources", func(r chi.Router) {
				r.Get("/", cfg.SourcesHandler.List)
				r.Post("/", cfg.SourcesHandler.Create)
				r.Route("/{sourceID}", func(r chi.Router) {
					r.Get("/", cfg.SourcesHandler.Get)
					r.Put("/", cfg.SourcesHandler.Update)
					r.Delete("/", cfg.SourcesHandler.Delete)
					r.Get("/history", cfg.SourcesHandler.History)
					r.Route("/readings", func(r chi.Router) {
						r.Get("/", cfg.ReadingsHandler.List)
						r.Post("/", cfg.ReadingsHandler.Create)
						r.Get("/{readingID}", cfg.ReadingsHandler.Get)
						r.Put("/{readingID}", cfg.ReadingsHandler.Update)
					})
				})
			})
		})
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
