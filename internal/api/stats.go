package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/darila/internal/visits"
)

// StatsHandler exposes the in-process visit counter (admin only).
type StatsHandler struct {
	Visits *visits.Counter
}

// Get handles GET /api/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Visits.Snapshot())
}

// Reset handles DELETE /api/stats.
func (h *StatsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.Visits.Reset()
	slog.Info("visit counters reset", "user", GetClaims(r.Context()).Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "stats reset"})
}
