package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/messmate/backend/internal/interfaces/http/dto"
)

// SystemHandler serves health and system information
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	checks    map[string]HealthChecker
}

// NewSystemHandler creates a new SystemHandler. checks are probed by Health;
// nil entries are skipped.
func NewSystemHandler(version string, checks map[string]HealthChecker) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		checks:    checks,
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse reports the state of each dependency
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Uptime string            `json:"uptime"`
}

// GetSystemInfo returns the build and uptime of the process.
// GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "MessMate API",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    h.uptime(),
	})
}

// Health pings every dependency. Any failure turns the response into a 503.
// GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name, check := range h.checks {
		if check != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "healthy", Checks: make(map[string]string, len(names)), Uptime: h.uptime()}
	for _, name := range names {
		if err := h.checks[name].Ping(ctx); err != nil {
			resp.Checks[name] = "unhealthy: " + err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "healthy"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}

func (h *SystemHandler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}
