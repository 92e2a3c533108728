package server

import (
	"encoding/json"
	"net/http"
	"time"
)

type handlers struct {
	deps Deps
}

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.deps.Store != nil && h.deps.Store.DB != nil {
		if err := h.deps.Store.DB.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type statusResponse struct {
	UptimeSeconds float64     `json:"uptime_seconds"`
	ActiveRuns    int         `json:"active_runs"`
	MaxRuns       int         `json:"max_runs"`
	RecentRuns    interface{} `json:"recent_runs,omitempty"`
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{}
	if !h.deps.Started.IsZero() {
		resp.UptimeSeconds = time.Since(h.deps.Started).Seconds()
	}
	if h.deps.Limiter != nil {
		resp.ActiveRuns = h.deps.Limiter.Active()
		resp.MaxRuns = h.deps.Limiter.Cap()
	}
	if recs, err := h.deps.Store.RecentRuns(r.Context(), 20); err == nil && len(recs) > 0 {
		resp.RecentRuns = recs
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
