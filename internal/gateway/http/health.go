package http

import (
	"net/http"
	"time"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/evamind/gateway/pkg/gatewaysdk"
	"github.com/evamind/gateway/pkg/httpx"
)

// HealthHandler godoc
//
//	@Summary		Composite Health Check
//	@Description	Reports the gateway's own store and the downstream resource service. Always answers 200; the verdict is in the body.
//	@Description	status is "healthy" when both are reachable and "degraded" otherwise; local and downstream are each "healthy" or "unhealthy".
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.HealthResponse	"status, local, downstream"
//	@Router			/health [get].
func HealthHandler(h *service.HealthAggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Check(r.Context())
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, gatewaysdk.HealthResponse{
			Status:     report.Status,
			Local:      report.Local,
			Downstream: report.Downstream,
		})
	}
}

// LivezHandler godoc
//
//	@Summary		Liveness Probe
//	@Description	Returns 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.ProbeResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, gatewaysdk.ProbeResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Probe
//	@Description	Returns 503 while the gateway's store is unreachable. The downstream service does not affect readiness.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.ProbeResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	gatewaysdk.ProbeResponse	"status, uptime, version, checks"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, local service.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"database": "ok"}
		status, code := "ok", http.StatusOK

		if err := local.Ping(r.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, gatewaysdk.ProbeResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

// InfoHandler godoc
//
//	@Summary		Service Information
//	@Description	Names the service and links to the API docs and health report.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.InfoResponse	"name, version, docs, health"
//	@Router			/ [get].
func InfoHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, gatewaysdk.InfoResponse{
			Name:    "evamind gateway",
			Version: version,
			Docs:    "/swagger/index.html",
			Health:  "/health",
		})
	}
}
