package api

import (
	"net/http"

	"github.com/dgallion1/boelens/internal/alerts"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.claude == nil || s.claude.Stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"model": s.claude.Model(),
		"stats": s.claude.Stats.Snapshot(),
	})
}

// handleNotificationStats returns the notification status chart dataset.
func (s *Server) handleNotificationStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "")
	if !ok || !s.requireDashboard(w) {
		return
	}
	counts, err := s.dashboard.NotificationCounts(r.Context(), userID)
	if err != nil {
		jsonError(w, "failed to load statistics: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chart": alerts.StatusChart(counts)})
}
