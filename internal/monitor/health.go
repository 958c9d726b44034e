package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gochat/internal/db"
	"gochat/internal/realtime"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// StartHealthCheck starts an HTTP server for health checks
func StartHealthCheck(dbMgr *db.DBManager, rdb *redis.Client, registry *realtime.Registry, logger *zap.SugaredLogger, addr string) {
	mux := http.NewServeMux()

	// --- Liveness ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:  "alive",
			Message: "Service is running",
			Details: map[string]string{
				"connections": fmt.Sprintf("%d", registry.Len()),
			},
		})
	})

	// --- Readiness ---
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")

		healthDetails := make(map[string]string)
		var failures []string

		if err := dbMgr.Ping(ctx); err != nil {
			healthDetails["database"] = "unhealthy"
			failures = append(failures, fmt.Sprintf("database unhealthy: %v", err))
		} else {
			healthDetails["database"] = "healthy"
		}

		if err := rdb.Ping(ctx).Err(); err != nil {
			healthDetails["redis"] = "unhealthy"
			failures = append(failures, fmt.Sprintf("redis unhealthy: %v", err))
		} else {
			healthDetails["redis"] = "healthy"
		}

		statusCode := http.StatusOK
		statusMsg := "ready"
		if len(failures) > 0 {
			statusCode = http.StatusServiceUnavailable
			statusMsg = fmt.Sprintf("%d component(s) failing", len(failures))
		}

		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:  statusMsg,
			Details: healthDetails,
		})
	})

	logger.Infof("starting health check server on %s", addr)
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Errorw("health check server stopped", "error", err)
		}
	}()
}
