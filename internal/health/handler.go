// Package health exposes liveness and readiness probes for orchestrators.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/ethx42/tabula-room-service/internal/bus"
	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves /health/live and /health/ready.
type Handler struct {
	redisService *bus.Service
}

// NewHandler builds a Handler. redisService may be nil (single-instance
// mode), in which case the redis readiness check always reports healthy.
func NewHandler(redisService *bus.Service) *Handler {
	return &Handler{redisService: redisService}
}

type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness reports process aliveness with no dependency checks.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports whether the service's one optional dependency (the
// Redis bus) is reachable.
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"redis": h.checkRedis(ctx)}

	status := "ready"
	code := http.StatusOK
	for _, v := range checks {
		if v != "healthy" {
			status = "unavailable"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkRedis(ctx context.Context) string {
	if h.redisService == nil {
		return "healthy"
	}
	if err := h.redisService.Ping(ctx); err != nil {
		logging.Error(ctx, "redis health check failed", zap.Error(err))
		return "unhealthy"
	}
	return "healthy"
}
