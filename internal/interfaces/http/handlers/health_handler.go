package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rankscope/rankscope/pkg/types/common"
)

// HealthCheck probes one backing service.  A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
	timeout time.Duration
}

// NewHealthHandler builds a HealthHandler.  Checks may be empty, in which
// case readiness always succeeds.
func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{
		version: version,
		checks:  checks,
		timeout: 5 * time.Second,
	}
}

// Liveness handles GET /healthz.  It only proves the process is serving.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// readinessResponse is the GET /readyz payload.
type readinessResponse struct {
	Status     common.HealthStatus      `json:"status"`
	Version    string                   `json:"version"`
	Components []common.ComponentHealth `json:"components"`
}

// Readiness handles GET /readyz.  Each configured check runs with a bounded
// timeout; any failure degrades the overall status to unhealthy and the
// endpoint answers 503 so load balancers stop routing traffic.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := readinessResponse{
		Status:     common.HealthHealthy,
		Version:    h.version,
		Components: make([]common.ComponentHealth, 0, len(h.checks)),
	}

	for name, check := range h.checks {
		start := time.Now()
		ch := common.ComponentHealth{
			Name:      name,
			Status:    common.HealthHealthy,
			CheckedAt: start.UTC(),
		}
		if err := check(ctx); err != nil {
			ch.Status = common.HealthUnhealthy
			ch.Message = err.Error()
			resp.Status = common.HealthUnhealthy
		}
		ch.LatencyMS = time.Since(start).Milliseconds()
		resp.Components = append(resp.Components, ch)
	}

	status := http.StatusOK
	if resp.Status != common.HealthHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
