package boardgen

import (
	"errors"
	"net/http"
	"time"

	"github.com/ethx42/tabula-room-service/internal/logging"
	"github.com/ethx42/tabula-room-service/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves POST /generate.
type Handler struct {
	timeBudget time.Duration
}

// NewHandler constructs a Handler with the given per-request solve
// budget (spec §4.7's default is 60s).
func NewHandler(timeBudget time.Duration) *Handler {
	if timeBudget <= 0 {
		timeBudget = DefaultTimeBudget
	}
	return &Handler{timeBudget: timeBudget}
}

// Generate handles POST /generate per spec §6's Board Generator wire
// format: a 200 with Result on success (including bestEffort results),
// a 422 with Result.Errors on infeasibility, and a 400 on a malformed
// request body.
func (h *Handler) Generate(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := Generate(c.Request.Context(), req, h.timeBudget)
	metrics.BoardGenDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var infeasible *InfeasibilityError
		if errors.As(err, &infeasible) {
			metrics.BoardGenRequests.WithLabelValues("infeasible").Inc()
			c.JSON(http.StatusUnprocessableEntity, result)
			return
		}
		metrics.BoardGenRequests.WithLabelValues("error").Inc()
		logging.Error(c.Request.Context(), "board generation failed", zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}

	outcome := "ok"
	if result.Stats.BestEffort {
		outcome = "best_effort"
	}
	metrics.BoardGenRequests.WithLabelValues(outcome).Inc()
	c.JSON(http.StatusOK, result)
}
