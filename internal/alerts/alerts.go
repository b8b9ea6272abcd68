// Package alerts models user alerts, the notifications they produce and the
// dashboard datasets derived from them. Matching and notification generation
// happen in the backend.
package alerts

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidStatus is returned for a status a user is not allowed to set.
var ErrInvalidStatus = errors.New("invalid notification status")

// Status is the lifecycle state of a notification.
type Status string

const (
	StatusPending  Status = "pendiente"
	StatusSent     Status = "enviada"
	StatusRead     Status = "leida"
	StatusArchived Status = "archivada"
)

// Frequency in days between alert digests.
type Frequency int

const (
	FrequencyImmediate Frequency = 1
	FrequencyWeekly    Frequency = 7
	FrequencyMonthly   Frequency = 30
)

// Alert is a user's keyword subscription.
type Alert struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nombre"`
	Keywords    string    `json:"palabras_clave"`
	Departments string    `json:"departamentos,omitempty"`
	Active      bool      `json:"activa"`
	Frequency   Frequency `json:"frecuencia"`
	Threshold   float64   `json:"umbral_relevancia"`
	Pending     int       `json:"notificaciones_pendientes,omitempty"`
}

// KeywordList returns the alert keywords as a term list.
func (a Alert) KeywordList() []string {
	return ParseKeywords(a.Keywords)
}

// Toggle flips the alert's active flag and returns the new value.
func (a *Alert) Toggle() bool {
	a.Active = !a.Active
	return a.Active
}

// Notification is a document matched by an alert.
type Notification struct {
	ID            int64     `json:"id"`
	AlertID       int64     `json:"alerta_id"`
	AlertName     string    `json:"alerta_nombre,omitempty"`
	Keywords      string    `json:"palabras_clave,omitempty"`
	DocumentID    string    `json:"documento"`
	DocumentTitle string    `json:"titulo_documento"`
	DocumentDate  string    `json:"fecha_documento"`
	NotifiedAt    time.Time `json:"fecha_notificacion"`
	Relevance     float64   `json:"relevancia"`
	Status        Status    `json:"estado"`
	Summary       string    `json:"resumen,omitempty"`
}

// MarkViewed moves a pending notification to read. It reports whether the
// status changed.
func (n *Notification) MarkViewed() bool {
	if n.Status != StatusPending {
		return false
	}
	n.Status = StatusRead
	return true
}

// ParseKeywords splits comma-separated keyword text into trimmed, non-empty terms.
func ParseKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// ParseStatus validates s as any known status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusSent, StatusRead, StatusArchived:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// ValidateUserStatus accepts only the statuses a user may set by hand.
func ValidateUserStatus(s string) (Status, error) {
	st, err := ParseStatus(s)
	if err != nil {
		return "", err
	}
	if st == StatusSent {
		return "", fmt.Errorf("%w: %q is set by the backend", ErrInvalidStatus, s)
	}
	return st, nil
}
