package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/flemzord/syncmcp/internal/history"
	"github.com/flemzord/syncmcp/internal/probe"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"` // "ok" or "degraded"
	Instances []probe.InstanceHealth `json:"instances,omitempty"`
}

// handleHealth returns an http.HandlerFunc for GET /health.
// Returns 200 when every probed instance is reachable, 503 otherwise.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}

		if g.prober != nil {
			resp.Instances = g.prober.Health()
			if !g.prober.AllAvailable() {
				resp.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == "degraded" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Instances []string               `json:"instances"`
	Health    []probe.InstanceHealth `json:"health,omitempty"`
	Tools     []history.ToolStats    `json:"tools,omitempty"`
}

// handleStatus reports uptime, configured instances and tool usage.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Version:   g.version,
			Uptime:    time.Since(g.startedAt).Round(time.Second).String(),
			Instances: g.reg.Names(),
		}
		if g.prober != nil {
			resp.Health = g.prober.Health()
		}
		if stats, err := g.history.Stats(r.Context()); err == nil {
			resp.Tools = stats
		} else {
			g.logger.Warn("gateway: tool stats query failed", "error", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
