// Package backend is the HTTP client for the BOE backend, which owns
// documents, alerts, notifications and PDF generation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgallion1/boelens/internal/alerts"
	"github.com/dgallion1/boelens/internal/document"
)

// Client communicates with the BOE backend HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RetryableError indicates a transient backend failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable backend error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// DocumentResponse is the body of GET /api/documentos/{id}/.
type DocumentResponse struct {
	ID         string `json:"identificador"`
	Title      string `json:"titulo"`
	HTML       string `json:"texto"`
	Department string `json:"departamento"`
	Section    string `json:"seccion"`
	Published  string `json:"fecha_publicacion"`
	PDFURL     string `json:"url_pdf"`
}

type actionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Get implements document.Source.
func (c *Client) Get(ctx context.Context, id string) (*document.Document, error) {
	var resp DocumentResponse
	status, err := c.doJSON(ctx, http.MethodGet, "/api/documentos/"+url.PathEscape(id)+"/", "", nil, &resp)
	if status == http.StatusNotFound {
		return nil, document.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}

	content, err := document.ParseContent(strings.NewReader(resp.HTML))
	if err != nil {
		return nil, err
	}
	doc := &document.Document{
		ID:         resp.ID,
		Title:      resp.Title,
		Department: resp.Department,
		Section:    resp.Section,
		PDFURL:     resp.PDFURL,
		Content:    content,
	}
	if doc.ID == "" {
		doc.ID = id
	}
	if t, err := time.Parse("2006-01-02", resp.Published); err == nil {
		doc.Published = t
	}
	return doc, nil
}

// SaveDocument adds a document to the user's library.
func (c *Client) SaveDocument(ctx context.Context, userID, docID string) error {
	var resp actionResponse
	if _, err := c.doJSON(ctx, http.MethodPost, "/documentos/guardar/"+url.PathEscape(docID)+"/", userID, struct{}{}, &resp); err != nil {
		return fmt.Errorf("save document %s: %w", docID, err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "backend rejected save"
		}
		return fmt.Errorf("save document %s: %s", docID, msg)
	}
	return nil
}

// ExportPDF asks the backend to generate the document PDF and returns its bytes.
func (c *Client) ExportPDF(ctx context.Context, userID, docID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/documentos/exportar-pdf/"+url.PathEscape(docID)+"/", userID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export pdf: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("export pdf %s: %w", docID, err)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return data, nil
}

// ListNotifications lists the user's notifications, optionally filtered by status.
func (c *Client) ListNotifications(ctx context.Context, userID string, status alerts.Status) ([]alerts.Notification, error) {
	path := "/api/notificaciones/"
	if status != "" {
		path += "?estado=" + url.QueryEscape(string(status))
	}
	var resp struct {
		Notifications []alerts.Notification `json:"notificaciones"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, path, userID, nil, &resp); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return resp.Notifications, nil
}

// GetNotification returns one notification, or nil if it does not exist.
func (c *Client) GetNotification(ctx context.Context, userID string, id int64) (*alerts.Notification, error) {
	var n alerts.Notification
	status, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/notificaciones/%d/", id), userID, nil, &n)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification %d: %w", id, err)
	}
	return &n, nil
}

// SetNotificationStatus changes a notification's status.
func (c *Client) SetNotificationStatus(ctx context.Context, userID string, id int64, status alerts.Status) error {
	var resp actionResponse
	body := map[string]string{"estado": string(status)}
	if _, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/notificaciones/%d/estado/", id), userID, body, &resp); err != nil {
		return fmt.Errorf("set notification %d status: %w", id, err)
	}
	if !resp.Success {
		return fmt.Errorf("set notification %d status: backend rejected %q", id, status)
	}
	return nil
}

// ListAlerts lists the user's alerts.
func (c *Client) ListAlerts(ctx context.Context, userID string) ([]alerts.Alert, error) {
	var resp struct {
		Alerts []alerts.Alert `json:"alertas"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/alertas/", userID, nil, &resp); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return resp.Alerts, nil
}

// SetAlertActive enables or disables an alert.
func (c *Client) SetAlertActive(ctx context.Context, userID string, id int64, active bool) error {
	var resp actionResponse
	body := map[string]bool{"activa": active}
	if _, err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/alertas/%d/activa/", id), userID, body, &resp); err != nil {
		return fmt.Errorf("set alert %d active: %w", id, err)
	}
	if !resp.Success {
		return fmt.Errorf("set alert %d active: backend rejected", id)
	}
	return nil
}

// NotificationCounts returns the user's notification totals per status.
func (c *Client) NotificationCounts(ctx context.Context, userID string) (map[alerts.Status]int, error) {
	var resp struct {
		ByStatus map[alerts.Status]int `json:"por_estado"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, "/api/estadisticas/notificaciones/", userID, nil, &resp); err != nil {
		return nil, fmt.Errorf("notification counts: %w", err)
	}
	if resp.ByStatus == nil {
		resp.ByStatus = map[alerts.Status]int{}
	}
	return resp.ByStatus, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) newRequest(ctx context.Context, method, path, userID string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if userID != "" {
		req.Header.Set("X-BOE-User", userID)
	}
	return req, nil
}

// doJSON sends a request and decodes a JSON response into out. It returns
// the HTTP status code alongside any error.
func (c *Client) doJSON(ctx context.Context, method, path, userID string, body, out any) (int, error) {
	req, err := c.newRequest(ctx, method, path, userID, body)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return resp.StatusCode, err
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
