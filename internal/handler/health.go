package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yourorg/storefront/internal/infrastructure/redis"
	"github.com/yourorg/storefront/pkg/database"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	redisClient *redis.Client
	dbPool      *database.ConnectionPool
	logger      *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(redisClient *redis.Client, dbPool *database.ConnectionPool, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		redisClient: redisClient,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// HealthResponse represents the liveness response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health handles GET /healthz. Returns 200 if the server is running.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// Ready handles GET /readyz. Returns 200 only if Redis and Postgres respond.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)

	redisOK := false
	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx); err == nil {
			checks["redis"] = "ok"
			redisOK = true
		} else {
			checks["redis"] = "error: " + err.Error()
		}
	} else {
		checks["redis"] = "not configured"
	}

	dbOK := false
	if h.dbPool != nil {
		if err := h.dbPool.Health(ctx); err == nil {
			checks["postgres"] = "ok"
			dbOK = true
		} else {
			checks["postgres"] = "error: " + err.Error()
		}
	} else {
		checks["postgres"] = "not configured"
	}

	status := "ready"
	statusCode := http.StatusOK
	if !redisOK || !dbOK {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ReadinessResponse{Status: status, Checks: checks})

	h.logger.Info("readiness check",
		slog.String("status", status),
		slog.String("redis", checks["redis"]),
		slog.String("postgres", checks["postgres"]),
	)
}
