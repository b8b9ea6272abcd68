package api

import (
	"net/http"

	"github.com/dgallion1/boelens/internal/alerts"
)

func (s *Server) requireDashboard(w http.ResponseWriter) bool {
	if s.dashboard == nil {
		jsonError(w, "dashboard unavailable", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "")
	if !ok || !s.requireDashboard(w) {
		return
	}
	var status alerts.Status
	if v := r.URL.Query().Get("estado"); v != "" {
		st, err := alerts.ParseStatus(v)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		status = st
	}

	list, err := s.dashboard.ListNotifications(r.Context(), userID, status)
	if err != nil {
		jsonError(w, "failed to list notifications: "+err.Error(), http.StatusBadGateway)
		return
	}
	if list == nil {
		list = []alerts.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

// handleGetNotification returns a notification and marks it read if pending.
func (s *Server) handleGetNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "")
	if !ok || !s.requireDashboard(w) {
		return
	}
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	n, err := s.dashboard.GetNotification(r.Context(), userID, id)
	if err != nil {
		jsonError(w, "failed to load notification: "+err.Error(), http.StatusBadGateway)
		return
	}
	if n == nil {
		jsonError(w, "notification not found", http.StatusNotFound)
		return
	}
	s.markViewed(r, userID, n)
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleNotificationStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Status string `json:"estado"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, r, req.UserID)
	if !ok || !s.requireDashboard(w) {
		return
	}
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	status, err := alerts.ValidateUserStatus(req.Status)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.dashboard.SetNotificationStatus(r.Context(), userID, id, status); err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "estado": status})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "")
	if !ok || !s.requireDashboard(w) {
		return
	}
	list, err := s.dashboard.ListAlerts(r.Context(), userID)
	if err != nil {
		jsonError(w, "failed to list alerts: "+err.Error(), http.StatusBadGateway)
		return
	}
	if list == nil {
		list = []alerts.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": list})
}

func (s *Server) handleToggleAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, r, req.UserID)
	if !ok || !s.requireDashboard(w) {
		return
	}
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}

	list, err := s.dashboard.ListAlerts(r.Context(), userID)
	if err != nil {
		jsonError(w, "failed to list alerts: "+err.Error(), http.StatusBadGateway)
		return
	}
	var alert *alerts.Alert
	for i := range list {
		if list[i].ID == id {
			alert = &list[i]
			break
		}
	}
	if alert == nil {
		jsonError(w, "alert not found", http.StatusNotFound)
		return
	}

	active := alert.Toggle()
	if err := s.dashboard.SetAlertActive(r.Context(), userID, id, active); err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "activa": active})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.cfg.File.Categories
	if cats == nil {
		cats = []alerts.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}
