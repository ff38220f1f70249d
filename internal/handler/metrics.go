package handler

import "net/http"

// MetricsHandler serves the Prometheus exposition endpoint.
type MetricsHandler struct {
	exposition http.Handler
}

// NewMetricsHandler wraps the registry handler. A nil handler answers 503.
func NewMetricsHandler(exposition http.Handler) *MetricsHandler {
	return &MetricsHandler{exposition: exposition}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exposition == nil {
		writeError(w, http.StatusServiceUnavailable, "METRICS_DISABLED", "Metrics are not enabled")
		return
	}
	h.exposition.ServeHTTP(w, r)
}
