package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/dgallion1/boelens/internal/document"
	"github.com/dgallion1/boelens/internal/highlight"
)

// ErrSessionNotFound is returned for an unknown or expired session id.
var ErrSessionNotFound = errors.New("session not found")

// Session is one user's view of one document. Content is a private copy of
// the document subtree; annotations never reach the source document.
type Session struct {
	ID     string
	UserID string
	Doc    *document.Document

	search     *highlight.Session
	status     *highlight.Status
	sourceHash string

	mu          sync.Mutex
	prefs       Preferences
	lastTouched time.Time
}

// Snapshot is a JSON-safe copy of the session state.
type Snapshot struct {
	ID          string      `json:"session_id"`
	UserID      string      `json:"user_id"`
	DocumentID  string      `json:"document_id"`
	Title       string      `json:"title"`
	SourceHash  string      `json:"source_hash"`
	Content     string      `json:"content"`
	State       string      `json:"state"`
	AlertCount  int         `json:"alert_count"`
	ResultCount int         `json:"result_count"`
	Visible     bool        `json:"results_visible"`
	Prefs       Preferences `json:"preferences"`
}

// Search marks query terms in the session content.
func (s *Session) Search(query string) (highlight.Result, bool) {
	s.touch()
	return s.search.Search(query)
}

// ClearSearch removes search markers and hides the result indicator.
func (s *Session) ClearSearch() int {
	s.touch()
	n := s.search.Clear()
	s.status.Hide()
	return n
}

// Content serializes the current, possibly annotated, content subtree.
func (s *Session) Content() (string, error) {
	var out string
	var err error
	s.search.Do(func(root *html.Node) {
		out, err = document.Render(root)
	})
	return out, err
}

// Prefs returns the current preferences.
func (s *Session) Prefs() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// UpdatePrefs applies fn to the preferences and persists the result through
// store when it is non-nil.
func (s *Session) UpdatePrefs(ctx context.Context, store PreferenceStore, fn func(Preferences) Preferences) (Preferences, error) {
	s.mu.Lock()
	p := fn(s.prefs)
	s.prefs = p
	s.lastTouched = time.Now()
	s.mu.Unlock()

	if store == nil {
		return p, nil
	}
	return p, store.Save(ctx, s.UserID, p)
}

// Snapshot returns the session state including rendered content.
func (s *Session) Snapshot() (Snapshot, error) {
	var content string
	var alertCount int
	var err error
	s.search.Do(func(root *html.Node) {
		content, err = document.Render(root)
		alertCount = highlight.Count(root, highlight.CategoryAlert)
	})
	if err != nil {
		return Snapshot{}, err
	}
	count, visible := s.status.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:          s.ID,
		UserID:      s.UserID,
		DocumentID:  s.Doc.ID,
		Title:       s.Doc.Title,
		SourceHash:  s.sourceHash,
		Content:     content,
		State:       s.search.State().String(),
		AlertCount:  alertCount,
		ResultCount: count,
		Visible:     visible,
		Prefs:       s.prefs,
	}, nil
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastTouched = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}

// SessionStore is a thread-safe in-memory session registry with TTL eviction.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	// RevealOnZero is copied to every new session's result indicator.
	RevealOnZero bool
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Open starts a session over a copy of doc's content and marks alert keywords.
func (s *SessionStore) Open(userID string, doc *document.Document, prefs Preferences, alertKeywords []string) *Session {
	root := document.Clone(doc.Content)
	source, _ := document.Render(root)
	status := &highlight.Status{RevealOnZero: s.RevealOnZero}
	sess := &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Doc:         doc,
		search:      highlight.NewSession(root, status),
		status:      status,
		sourceHash:  document.ContentHashHex([]byte(source)),
		prefs:       prefs.Normalize(),
		lastTouched: time.Now(),
	}
	sess.search.HighlightAlerts(alertKeywords)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session or ErrSessionNotFound.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close drops a session.
func (s *SessionStore) Close(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle longer than the TTL.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, sess := range s.sessions {
		if now.Sub(sess.idleSince()) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// RunCleanup evicts expired sessions every interval until ctx is done.
func (s *SessionStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}
