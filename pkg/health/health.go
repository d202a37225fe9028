package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Handler serves liveness and readiness probes.
type Handler struct {
	service string
	checks  map[string]Check
}

// NewHandler creates a Handler. checks are run on every readiness probe.
func NewHandler(service string, checks map[string]Check) *Handler {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &Handler{service: service, checks: checks}
}

// RegisterRoutes mounts /health and /ready.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)
}

// Live always reports ok while the process serves requests.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": h.service})
}

// Ready runs all dependency checks with a short timeout.
func (h *Handler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = "unavailable"
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "service": h.service, "checks": results})
}
