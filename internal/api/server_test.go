package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/boelens/internal/actions"
	"github.com/dgallion1/boelens/internal/alerts"
	"github.com/dgallion1/boelens/internal/config"
	"github.com/dgallion1/boelens/internal/document"
	"github.com/dgallion1/boelens/internal/viewer"
)

const testKey = "test-key"

type fakeSource map[string]string

func (f fakeSource) Get(ctx context.Context, id string) (*document.Document, error) {
	body, ok := f[id]
	if !ok {
		return nil, document.ErrNotFound
	}
	root, err := document.ParseContent(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	return &document.Document{
		ID:        id,
		Title:     "Resolución de ayudas",
		Published: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Content:   root,
	}, nil
}

type fakeDashboard struct {
	mu            sync.Mutex
	notifications map[int64]alerts.Notification
	alerts        []alerts.Alert
	statusCalls   []alerts.Status
	activeCalls   []bool
}

func (f *fakeDashboard) ListNotifications(ctx context.Context, userID string, status alerts.Status) ([]alerts.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []alerts.Notification
	for _, n := range f.notifications {
		if status == "" || n.Status == status {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeDashboard) GetNotification(ctx context.Context, userID string, id int64) (*alerts.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (f *fakeDashboard) SetNotificationStatus(ctx context.Context, userID string, id int64, status alerts.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, status)
	n := f.notifications[id]
	n.Status = status
	f.notifications[id] = n
	return nil
}

func (f *fakeDashboard) ListAlerts(ctx context.Context, userID string) ([]alerts.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]alerts.Alert(nil), f.alerts...), nil
}

func (f *fakeDashboard) SetAlertActive(ctx context.Context, userID string, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeCalls = append(f.activeCalls, active)
	return nil
}

func (f *fakeDashboard) NotificationCounts(ctx context.Context, userID string) (map[alerts.Status]int, error) {
	return map[alerts.Status]int{alerts.StatusRead: 4, alerts.StatusPending: 2}, nil
}

type fakeBackend struct {
	gate chan struct{}
}

func (f *fakeBackend) SaveDocument(ctx context.Context, userID, docID string) error {
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) ExportPDF(ctx context.Context, userID, docID string) ([]byte, error) {
	return []byte("%PDF-1.4 export"), nil
}

type memPrefs struct {
	mu    sync.Mutex
	saved map[string]viewer.Preferences
}

func (m *memPrefs) Load(ctx context.Context, userID string) (viewer.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.saved[userID]; ok {
		return p, nil
	}
	return viewer.DefaultPreferences(), nil
}

func (m *memPrefs) Save(ctx context.Context, userID string, p viewer.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[userID] = p
	return nil
}

type harness struct {
	srv   *httptest.Server
	api   *Server
	logs  *syncBuffer
	dash  *fakeDashboard
	prefs *memPrefs
	be    *fakeBackend
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logs := &syncBuffer{}
	log := slog.New(slog.NewTextHandler(logs, nil))
	cfg := config.Config{
		BoelensAPIKey: testKey,
		WorkerCount:   1,
		MaxQueueSize:  10,
		JobTTL:        time.Hour,
		File: config.File{Categories: []alerts.Category{
			{Name: "Energía", Keywords: "renovable, autoconsumo"},
		}},
	}
	docs := fakeSource{
		"BOE-A-2024-1": `<h1>Resolución</h1><p>Se convocan ayudas para el autoconsumo. Las ayudas son anuales.</p><script>var ayudas = 1;</script>`,
	}
	h := &harness{
		logs: logs,
		dash: &fakeDashboard{
			notifications: map[int64]alerts.Notification{
				7: {ID: 7, AlertID: 1, DocumentID: "BOE-A-2024-1", Keywords: "autoconsumo", Status: alerts.StatusPending},
				8: {ID: 8, AlertID: 1, DocumentID: "BOE-A-2024-1", Status: alerts.StatusArchived},
			},
			alerts: []alerts.Alert{{ID: 1, Name: "Energía", Keywords: "autoconsumo", Active: true}},
		},
		prefs: &memPrefs{saved: map[string]viewer.Preferences{}},
		be:    &fakeBackend{gate: make(chan struct{})},
	}
	orch := actions.NewOrchestrator(cfg, h.be, docs, nil, log)
	orch.Start(context.Background())

	server := NewServer(Deps{
		Docs:         docs,
		Dashboard:    h.dash,
		Sessions:     viewer.NewSessionStore(time.Hour),
		Prefs:        h.prefs,
		Orchestrator: orch,
	}, log, cfg)
	h.api = server
	h.srv = httptest.NewServer(server)
	t.Cleanup(func() {
		h.srv.Close()
		close(h.be.gate)
		orch.Stop()
	})
	return h
}

func (h *harness) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(data, &out), string(data))
	}
	return resp.StatusCode, out
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	resp, err := http.Get(h.srv.URL + "/api/alerts?user_id=u1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/api/alerts?user_id=u1", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSessionSearchFlow(t *testing.T) {
	h := newHarness(t)

	code, sess := h.do(t, http.MethodPost, "/api/sessions", `{"user_id":"u1","document_id":"BOE-A-2024-1","alert_keywords":["autoconsumo"]}`)
	require.Equal(t, http.StatusCreated, code, sess)
	id := sess["session_id"].(string)
	assert.EqualValues(t, 1, sess["alert_count"])
	assert.Contains(t, sess["content"], `<span class="resaltado-alerta">autoconsumo</span>`)

	code, res := h.do(t, http.MethodPost, "/api/sessions/"+id+"/search", `{"query":"ayudas"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, res["searched"])
	assert.EqualValues(t, 2, res["count"])
	assert.Equal(t, "primer-resultado", res["focus_id"])
	inner := res["session"].(map[string]any)
	content := inner["content"].(string)
	assert.Contains(t, content, `id="primer-resultado"`)
	assert.Contains(t, content, "var ayudas = 1;")
	assert.Equal(t, true, inner["results_visible"])

	code, res = h.do(t, http.MethodPost, "/api/sessions/"+id+"/search", `{"query":"  "}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, res["searched"])

	code, res = h.do(t, http.MethodDelete, "/api/sessions/"+id+"/search", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, res["removed"])
	inner = res["session"].(map[string]any)
	assert.NotContains(t, inner["content"], "resaltado-busqueda")
	assert.Contains(t, inner["content"], "resaltado-alerta")
	assert.Equal(t, "idle", inner["state"])

	code, _ = h.do(t, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = h.do(t, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestOpenSessionFromNotification(t *testing.T) {
	h := newHarness(t)
	code, sess := h.do(t, http.MethodPost, "/api/sessions", `{"user_id":"u1","notification_id":7}`)
	require.Equal(t, http.StatusCreated, code, sess)
	assert.Equal(t, "BOE-A-2024-1", sess["document_id"])
	assert.EqualValues(t, 1, sess["alert_count"])

	h.dash.mu.Lock()
	defer h.dash.mu.Unlock()
	assert.Equal(t, []alerts.Status{alerts.StatusRead}, h.dash.statusCalls)
}

func TestOpenSessionErrors(t *testing.T) {
	h := newHarness(t)
	code, _ := h.do(t, http.MethodPost, "/api/sessions", `{"document_id":"BOE-A-2024-1"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = h.do(t, http.MethodPost, "/api/sessions", `{"user_id":"u1","document_id":"nope"}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = h.do(t, http.MethodPost, "/api/sessions", `{"user_id":"u1","notification_id":99}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = h.do(t, http.MethodPost, "/api/sessions", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestZoomAndTabPersist(t *testing.T) {
	h := newHarness(t)
	_, sess := h.do(t, http.MethodPost, "/api/sessions", `{"user_id":"u1","document_id":"BOE-A-2024-1"}`)
	id := sess["session_id"].(string)

	code, res := h.do(t, http.MethodPost, "/api/sessions/"+id+"/zoom", `{"action":"in"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "110%", res["font_size"])

	for range 10 {
		h.do(t, http.MethodPost, "/api/sessions/"+id+"/zoom", `{"action":"out"}`)
	}
	h.prefs.mu.Lock()
	assert.Equal(t, viewer.MinZoom, h.prefs.saved["u1"].ZoomPercent)
	h.prefs.mu.Unlock()

	code, _ = h.do(t, http.MethodPost, "/api/sessions/"+id+"/zoom", `{"action":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPut, "/api/sessions/"+id+"/tab", `{"tab":"resumen"}`)
	require.Equal(t, http.StatusOK, code)

	// A new session starts from the saved preferences.
	_, sess = h.do(t, http.MethodPost, "/api/sessions", `{"user_id":"u1","document_id":"BOE-A-2024-1"}`)
	prefs := sess["preferences"].(map[string]any)
	assert.EqualValues(t, viewer.MinZoom, prefs["zoom_percent"])
	assert.Equal(t, "resumen", prefs["last_tab"])
}

func TestPrintView(t *testing.T) {
	h := newHarness(t)
	_, sess := h.do(t, http.MethodPost, "/api/sessions", `{"user_id":"u1","document_id":"BOE-A-2024-1","alert_keywords":["autoconsumo"]}`)
	id := sess["session_id"].(string)

	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/api/sessions/"+id+"/print", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<title>Resolución de ayudas</title>")
	assert.Contains(t, string(body), "05/03/2024")
	assert.Contains(t, string(body), `<span class="resaltado-alerta">autoconsumo</span>`)
}

func TestShare(t *testing.T) {
	h := newHarness(t)
	code, res := h.do(t, http.MethodGet, "/api/documents/BOE-A-2024-1/share/linkedin?url=https://boe.example/d/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "https://www.linkedin.com/sharing/share-offsite/?url=https%3A%2F%2Fboe.example%2Fd%2F1", res["share_url"])

	code, res = h.do(t, http.MethodGet, "/api/documents/BOE-A-2024-1/share/twitter?url=https://boe.example/d/1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, res["share_url"], "Resoluci%C3%B3n+de+ayudas")

	code, _ = h.do(t, http.MethodGet, "/api/documents/BOE-A-2024-1/share/myspace?url=x", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = h.do(t, http.MethodGet, "/api/documents/BOE-A-2024-1/share/twitter", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestActionsInFlightAndExport(t *testing.T) {
	h := newHarness(t)

	code, res := h.do(t, http.MethodPost, "/api/documents/BOE-A-2024-1/save", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusAccepted, code, res)
	saveID := res["job_id"].(string)

	code, _ = h.do(t, http.MethodPost, "/api/documents/BOE-A-2024-1/save", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = h.do(t, http.MethodPost, "/api/documents/BOE-A-2024-1/save", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = h.do(t, http.MethodPost, "/api/documents/BOE-A-2024-1/export?user_id=u1", "")
	require.Equal(t, http.StatusAccepted, code, res)
	exportID := res["job_id"].(string)

	code, _ = h.do(t, http.MethodPost, "/api/documents/BOE-A-2024-1/export?user_id=u1", "")
	assert.Equal(t, http.StatusConflict, code)

	// The single worker is busy with the save until the gate opens.
	require.Eventually(t, func() bool {
		_, res := h.do(t, http.MethodGet, "/api/actions/"+saveID, "")
		return res["status"] == "running"
	}, 2*time.Second, 5*time.Millisecond)

	code, _ = h.do(t, http.MethodGet, "/api/actions/"+exportID+"/result", "")
	assert.Equal(t, http.StatusConflict, code)

	h.be.gate <- struct{}{}

	require.Eventually(t, func() bool {
		_, res := h.do(t, http.MethodGet, "/api/actions/"+exportID, "")
		return res["status"] == "completed"
	}, 2*time.Second, 5*time.Millisecond)

	req, _ := http.NewRequest(http.MethodGet, h.srv.URL+"/api/actions/"+exportID+"/result", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="BOE-A-2024-1.pdf"`)
	assert.Equal(t, "%PDF-1.4 export", string(body))

	code, _ = h.do(t, http.MethodGet, "/api/actions/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestActionResultWriteFailureLogged(t *testing.T) {
	h := newHarness(t)

	code, res := h.do(t, http.MethodPost, "/api/documents/BOE-A-2024-1/export?user_id=u1", "")
	require.Equal(t, http.StatusAccepted, code, res)
	exportID := res["job_id"].(string)
	require.Eventually(t, func() bool {
		_, res := h.do(t, http.MethodGet, "/api/actions/"+exportID, "")
		return res["status"] == "completed"
	}, 2*time.Second, 5*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/api/actions/"+exportID+"/result", nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	h.api.ServeHTTP(brokenWriter{httptest.NewRecorder()}, req)

	logs := h.logs.String()
	assert.Contains(t, logs, "write action result failed")
	assert.Contains(t, logs, "connection reset")
}

func TestNotifications(t *testing.T) {
	h := newHarness(t)

	code, res := h.do(t, http.MethodGet, "/api/notifications?user_id=u1&estado=archivada", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res["notifications"], 1)

	code, _ = h.do(t, http.MethodGet, "/api/notifications?user_id=u1&estado=borrada", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = h.do(t, http.MethodGet, "/api/notifications/7?user_id=u1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "leida", res["estado"])

	code, _ = h.do(t, http.MethodGet, "/api/notifications/99?user_id=u1", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = h.do(t, http.MethodPost, "/api/notifications/7/status", `{"user_id":"u1","estado":"enviada"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = h.do(t, http.MethodPost, "/api/notifications/7/status", `{"user_id":"u1","estado":"archivada"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "archivada", res["estado"])

	code, _ = h.do(t, http.MethodGet, "/api/notifications/abc?user_id=u1", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAlertsToggleAndStats(t *testing.T) {
	h := newHarness(t)

	code, res := h.do(t, http.MethodGet, "/api/alerts?user_id=u1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res["alerts"], 1)

	code, res = h.do(t, http.MethodPost, "/api/alerts/1/toggle?user_id=u1", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, res["activa"])

	code, _ = h.do(t, http.MethodPost, "/api/alerts/2/toggle?user_id=u1", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, res = h.do(t, http.MethodGet, "/api/stats/notifications?user_id=u1", "")
	require.Equal(t, http.StatusOK, code)
	chart := res["chart"].(map[string]any)
	assert.Equal(t, []any{"Pendiente", "Leida"}, chart["labels"])
	assert.Equal(t, []any{"#ffc107", "#28a745"}, chart["colors"])

	code, res = h.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, res["categories"], 1)

	code, _ = h.do(t, http.MethodGet, "/api/stats/llm", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
