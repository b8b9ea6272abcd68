package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/boelens/internal/actions"
	"github.com/dgallion1/boelens/internal/document"
	"github.com/dgallion1/boelens/internal/viewer"
	"github.com/go-chi/chi/v5"
)

// handleShare returns the share link for a document on a social network.
// The title defaults to the document's own.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		jsonError(w, "url query parameter is required", http.StatusBadRequest)
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		doc, err := s.docs.Get(r.Context(), docID)
		if errors.Is(err, document.ErrNotFound) {
			jsonError(w, "document not found", http.StatusNotFound)
			return
		}
		if err != nil {
			jsonError(w, "failed to load document", http.StatusBadGateway)
			return
		}
		title = doc.Title
	}

	link, err := viewer.ShareURL(chi.URLParam(r, "network"), title, pageURL)
	if errors.Is(err, viewer.ErrUnknownNetwork) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"share_url": link})
}

// handleAction queues a save, export or summarize job for a document.
func (s *Server) handleAction(kind actions.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if r.ContentLength > 0 && !decodeBody(w, r, &req) {
			return
		}
		userID, ok := requireUser(w, r, req.UserID)
		if !ok {
			return
		}

		job, err := s.orchestrator.Submit(kind, userID, chi.URLParam(r, "docID"))
		switch {
		case errors.Is(err, actions.ErrInFlight):
			jsonError(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		snap := job.Snapshot()
		writeJSON(w, http.StatusAccepted, map[string]any{
			"job_id":      snap.ID,
			"kind":        snap.Kind,
			"document_id": snap.DocID,
			"status":      snap.Status,
			"poll_url":    fmt.Sprintf("/api/actions/%s", snap.ID),
		})
	}
}

func (s *Server) handleActionStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleActionResult downloads the file produced by an export job.
func (s *Server) handleActionResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if snap.Status != actions.StatusCompleted {
		jsonError(w, "job is "+string(snap.Status), http.StatusConflict)
		return
	}
	data, contentType := job.Result()
	if len(data) == 0 {
		jsonError(w, "job has no downloadable result", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, sanitizeFilename(snap.DocID)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.log.Warn("write action result failed", "job_id", snap.ID, "error", err)
	}
}
