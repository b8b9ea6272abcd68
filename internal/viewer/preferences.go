package viewer

import (
	"context"
	"strconv"
)

const (
	DefaultZoom = 100
	MinZoom     = 50
	ZoomStep    = 10
)

// Preferences is the per-user viewer state that outlives a session.
type Preferences struct {
	ZoomPercent int    `json:"zoom_percent"`
	LastTab     string `json:"last_tab,omitempty"`
}

// DefaultPreferences returns the preferences of a user who never changed any.
func DefaultPreferences() Preferences {
	return Preferences{ZoomPercent: DefaultZoom}
}

// PreferenceStore loads and saves preferences by user.
type PreferenceStore interface {
	Load(ctx context.Context, userID string) (Preferences, error)
	Save(ctx context.Context, userID string, p Preferences) error
}

// ZoomIn raises the zoom by one step.
func (p Preferences) ZoomIn() Preferences {
	p.ZoomPercent += ZoomStep
	return p
}

// ZoomOut lowers the zoom by one step, never below MinZoom.
func (p Preferences) ZoomOut() Preferences {
	p.ZoomPercent -= ZoomStep
	if p.ZoomPercent < MinZoom {
		p.ZoomPercent = MinZoom
	}
	return p
}

// ZoomReset restores the default zoom.
func (p Preferences) ZoomReset() Preferences {
	p.ZoomPercent = DefaultZoom
	return p
}

// WithTab records the last active tab.
func (p Preferences) WithTab(tab string) Preferences {
	p.LastTab = tab
	return p
}

// FontSize is the CSS font-size for the content container.
func (p Preferences) FontSize() string {
	return strconv.Itoa(p.ZoomPercent) + "%"
}

// Normalize repairs values loaded from storage.
func (p Preferences) Normalize() Preferences {
	if p.ZoomPercent < MinZoom {
		p.ZoomPercent = DefaultZoom
	}
	return p
}
