package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/gatekeeper/internal/auth"
)

// healthCheckTimeout bounds each backing-service probe.
const healthCheckTimeout = 2 * time.Second

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

type permissionsResponse struct {
	Permissions []auth.PermissionInfo `json:"permissions"`
	Presets     map[string][]string   `json:"presets"`
}

// handleHealth probes every registered backing service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Version: s.version,
		Checks:  make(map[string]string, len(s.healthChecks)),
	}

	for name, checker := range s.healthChecks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()

		if err != nil {
			s.logger.Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = "error"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handlePermissions lists the known permission codes and presets for the UI.
func (s *Server) handlePermissions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, permissionsResponse{
		Permissions: auth.KnownPermissions(),
		Presets:     auth.Presets(),
	})
}
