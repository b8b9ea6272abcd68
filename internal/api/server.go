package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dgallion1/boelens/internal/actions"
	"github.com/dgallion1/boelens/internal/alerts"
	"github.com/dgallion1/boelens/internal/config"
	"github.com/dgallion1/boelens/internal/document"
	"github.com/dgallion1/boelens/internal/summary"
	"github.com/dgallion1/boelens/internal/viewer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Dashboard is the backend surface behind the alert and notification pages.
type Dashboard interface {
	ListNotifications(ctx context.Context, userID string, status alerts.Status) ([]alerts.Notification, error)
	GetNotification(ctx context.Context, userID string, id int64) (*alerts.Notification, error)
	SetNotificationStatus(ctx context.Context, userID string, id int64, status alerts.Status) error
	ListAlerts(ctx context.Context, userID string) ([]alerts.Alert, error)
	SetAlertActive(ctx context.Context, userID string, id int64, active bool) error
	NotificationCounts(ctx context.Context, userID string) (map[alerts.Status]int, error)
}

// Deps are the components the server routes requests to. Claude and Prefs
// may be nil.
type Deps struct {
	Docs         document.Source
	Dashboard    Dashboard
	Sessions     *viewer.SessionStore
	Prefs        viewer.PreferenceStore
	Orchestrator *actions.Orchestrator
	Claude       *summary.ClaudeClient
}

// Server is the HTTP API server for boelens.
type Server struct {
	router       chi.Router
	docs         document.Source
	dashboard    Dashboard
	sessions     *viewer.SessionStore
	prefs        viewer.PreferenceStore
	orchestrator *actions.Orchestrator
	claude       *summary.ClaudeClient
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(d Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		docs:         d.Docs,
		dashboard:    d.Dashboard,
		sessions:     d.Sessions,
		prefs:        d.Prefs,
		orchestrator: d.Orchestrator,
		claude:       d.Claude,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.BoelensAPIKey, s.log))

		r.Post("/api/sessions", s.handleOpenSession)
		r.Get("/api/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/api/sessions/{sessionID}", s.handleCloseSession)
		r.Post("/api/sessions/{sessionID}/search", s.handleSearch)
		r.Delete("/api/sessions/{sessionID}/search", s.handleClearSearch)
		r.Post("/api/sessions/{sessionID}/zoom", s.handleZoom)
		r.Put("/api/sessions/{sessionID}/tab", s.handleTab)
		r.Get("/api/sessions/{sessionID}/print", s.handlePrint)

		r.Get("/api/documents/{docID}/share/{network}", s.handleShare)
		r.Post("/api/documents/{docID}/save", s.handleAction(actions.KindSave))
		r.Post("/api/documents/{docID}/export", s.handleAction(actions.KindExport))
		r.Post("/api/documents/{docID}/summarize", s.handleAction(actions.KindSummarize))
		r.Get("/api/actions/{jobID}", s.handleActionStatus)
		r.Get("/api/actions/{jobID}/result", s.handleActionResult)

		r.Get("/api/notifications", s.handleListNotifications)
		r.Get("/api/notifications/{id}", s.handleGetNotification)
		r.Post("/api/notifications/{id}/status", s.handleNotificationStatus)
		r.Get("/api/alerts", s.handleListAlerts)
		r.Post("/api/alerts/{id}/toggle", s.handleToggleAlert)
		r.Get("/api/categories", s.handleCategories)

		r.Get("/api/stats/notifications", s.handleNotificationStats)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
