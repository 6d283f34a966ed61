package handler

import (
	"net/http"

	"github.com/dropgate/dropgate/internal/metrics"
)

// MetricsHandler exposes the in-memory metrics snapshot.
// Mounted only in development.
type MetricsHandler struct {
	source metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(source metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{source: source}
}

// Snapshot dumps the current counters as JSON.
//
// GET /debug/metrics
func (h *MetricsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.Snapshot())
}
