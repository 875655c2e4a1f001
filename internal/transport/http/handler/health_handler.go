package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler handles liveness and readiness endpoints. Neither calls the model.
// Readiness depends only on the reference index; dependency checks such as
// the embedding cache are optional and only degrade the status.
type HealthHandler struct {
	backend *Backend
	checks  map[string]Check
}

func NewHealthHandler(backend *Backend, checks map[string]Check) *HealthHandler {
	if checks == nil {
		checks = map[string]Check{}
	}
	return &HealthHandler{backend: backend, checks: checks}
}

// HealthStatus represents the readiness response
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Test handles GET /test
func (h *HealthHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Server is working"})
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	components := make(map[string]string, len(h.checks)+1)
	ready, degraded := true, false

	if h.backend.Ready() {
		components["references"] = "ok"
	} else {
		components["references"] = "loading"
		ready = false
	}

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			components[name] = "error: " + err.Error()
			degraded = true
			continue
		}
		components[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	switch {
	case !ready:
		status, code = "not ready", http.StatusServiceUnavailable
	case degraded:
		status = "degraded"
	}
	c.JSON(code, HealthStatus{Status: status, Components: components})
}
