package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// storePinger is the slice of pgxpool.Pool the health check needs.
type storePinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the logbook's backing stores answer.
// Redis is optional; when absent it is simply omitted from the report.
type HealthHandler struct {
	db    storePinger
	redis *redis.Client
}

func NewHealthHandler(db storePinger, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	st := healthStatus{Status: "ok", Database: "up"}
	if err := h.db.Ping(ctx); err != nil {
		st.Status = "degraded"
		st.Database = "down"
	}
	if h.redis != nil {
		st.Redis = "up"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			st.Status = "degraded"
			st.Redis = "down"
		}
	}
	code := http.StatusOK
	if st.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, st)
}
