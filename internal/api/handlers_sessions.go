package api

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/dgallion1/boelens/internal/alerts"
	"github.com/dgallion1/boelens/internal/document"
	"github.com/dgallion1/boelens/internal/viewer"
	"github.com/go-chi/chi/v5"
)

type openSessionRequest struct {
	UserID         string   `json:"user_id"`
	DocumentID     string   `json:"document_id"`
	NotificationID int64    `json:"notification_id"`
	AlertKeywords  []string `json:"alert_keywords"`
}

// handleOpenSession loads a document into a new viewer session. When opened
// from a notification, the notification's keywords are highlighted and a
// pending notification is marked read.
func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	userID, ok := requireUser(w, r, req.UserID)
	if !ok {
		return
	}
	ctx := r.Context()
	log := s.log.With("user_id", userID)

	keywords := req.AlertKeywords
	if req.NotificationID > 0 {
		if s.dashboard == nil {
			jsonError(w, "notifications unavailable", http.StatusServiceUnavailable)
			return
		}
		n, err := s.dashboard.GetNotification(ctx, userID, req.NotificationID)
		if err != nil {
			jsonError(w, "failed to load notification: "+err.Error(), http.StatusBadGateway)
			return
		}
		if n == nil {
			jsonError(w, "notification not found", http.StatusNotFound)
			return
		}
		if req.DocumentID == "" {
			req.DocumentID = n.DocumentID
		}
		keywords = append(keywords, alerts.ParseKeywords(n.Keywords)...)
		s.markViewed(r, userID, n)
	}
	if req.DocumentID == "" {
		jsonError(w, "document_id is required", http.StatusBadRequest)
		return
	}

	doc, err := s.docs.Get(ctx, req.DocumentID)
	if errors.Is(err, document.ErrNotFound) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("load document failed", "doc_id", req.DocumentID, "error", err)
		jsonError(w, "failed to load document", http.StatusBadGateway)
		return
	}

	prefs := viewer.DefaultPreferences()
	if s.prefs != nil {
		if p, err := s.prefs.Load(ctx, userID); err != nil {
			log.Warn("load preferences failed, using defaults", "error", err)
		} else {
			prefs = p
		}
	}

	sess := s.sessions.Open(userID, doc, prefs, keywords)
	snap, err := sess.Snapshot()
	if err != nil {
		jsonError(w, "failed to render document", http.StatusInternalServerError)
		return
	}
	log.Info("session opened", "session_id", sess.ID, "doc_id", doc.ID, "alert_markers", snap.AlertCount)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) markViewed(r *http.Request, userID string, n *alerts.Notification) {
	if !n.MarkViewed() {
		return
	}
	if err := s.dashboard.SetNotificationStatus(r.Context(), userID, n.ID, n.Status); err != nil {
		s.log.Warn("mark notification viewed failed", "notification_id", n.ID, "error", err)
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*viewer.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeSnapshot(w http.ResponseWriter, sess *viewer.Session, extra map[string]any) {
	snap, err := sess.Snapshot()
	if err != nil {
		jsonError(w, "failed to render document", http.StatusInternalServerError)
		return
	}
	if extra == nil {
		writeJSON(w, http.StatusOK, snap)
		return
	}
	extra["session"] = snap
	writeJSON(w, http.StatusOK, extra)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeSnapshot(w, sess, nil)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Close(chi.URLParam(r, "sessionID")) {
		jsonError(w, viewer.ErrSessionNotFound.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	res, searched := sess.Search(req.Query)
	extra := map[string]any{"searched": searched}
	if searched {
		extra["count"] = res.Count
		extra["terms"] = res.Terms
		extra["focus_id"] = res.FocusID
	}
	s.writeSnapshot(w, sess, extra)
}

func (s *Server) handleClearSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeSnapshot(w, sess, map[string]any{"removed": sess.ClearSearch()})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	var fn func(viewer.Preferences) viewer.Preferences
	switch req.Action {
	case "in":
		fn = viewer.Preferences.ZoomIn
	case "out":
		fn = viewer.Preferences.ZoomOut
	case "reset":
		fn = viewer.Preferences.ZoomReset
	default:
		jsonError(w, "action must be in, out or reset", http.StatusBadRequest)
		return
	}
	s.updatePrefs(w, r, sess, fn)
}

func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Tab string `json:"tab"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Tab == "" {
		jsonError(w, "tab is required", http.StatusBadRequest)
		return
	}
	s.updatePrefs(w, r, sess, func(p viewer.Preferences) viewer.Preferences { return p.WithTab(req.Tab) })
}

func (s *Server) updatePrefs(w http.ResponseWriter, r *http.Request, sess *viewer.Session, fn func(viewer.Preferences) viewer.Preferences) {
	p, err := sess.UpdatePrefs(r.Context(), s.prefs, fn)
	if err != nil {
		s.log.Error("save preferences failed", "user_id", sess.UserID, "error", err)
		jsonError(w, "failed to save preferences", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"preferences": p,
		"font_size":   p.FontSize(),
	})
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	content, err := sess.Content()
	if err != nil {
		jsonError(w, "failed to render document", http.StatusInternalServerError)
		return
	}
	page := viewer.PrintPage{
		Title: sess.Doc.Title,
		// Content is serialized from a parsed node tree.
		Content: template.HTML(content),
	}
	if !sess.Doc.Published.IsZero() {
		page.Date = sess.Doc.Published.Format("02/01/2006")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := viewer.RenderPrint(w, page); err != nil {
		s.log.Error("render print view failed", "session_id", sess.ID, "error", err)
	}
}
