package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethx42/tabula-room-service/internal/health"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestLivenessAlwaysHealthy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := health.NewHandler(nil)
	router.GET("/health/live", h.Liveness)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessHealthyWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := health.NewHandler(nil)
	router.GET("/health/ready", h.Readiness)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"healthy"`)
}
