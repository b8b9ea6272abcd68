package highlight

import (
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// State of an interactive search session.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateAnnotated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateAnnotated:
		return "annotated"
	}
	return "unknown"
}

// FocusID is the id given to the first search marker, the scroll target.
const FocusID = "primer-resultado"

// Result describes one search pass.
type Result struct {
	Terms   []string
	Count   int
	FocusID string // empty when nothing matched
}

// Session runs repeated searches over a single content subtree. At most one
// generation of search markers exists at a time; alert markers are kept across
// searches. Methods serialize on an internal mutex.
type Session struct {
	mu       sync.Mutex
	root     *html.Node
	reporter Reporter
	state    State
	search   Cache
	alert    Cache
}

// NewSession binds a session to root. reporter may be nil.
func NewSession(root *html.Node, reporter Reporter) *Session {
	return &Session{root: root, reporter: reporter}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HighlightAlerts marks alert keywords. It does not touch search markers or
// the session state and returns the number of markers produced.
func (s *Session) HighlightAlerts(keywords []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Annotate(s.root, s.alert.Get(keywords), CategoryAlert)
}

// Search clears the previous search generation and marks every whitespace
// separated term of query. A blank query is a no-op: it returns false and
// leaves both the subtree and the state unchanged.
func (s *Session) Search(query string) (Result, bool) {
	terms := strings.Fields(query)
	m := s.search.Get(terms)
	if m == nil || s.root == nil {
		return Result{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	Remove(s.root, CategorySearch)
	s.state = StateSearching

	res := Result{Terms: m.Terms()}
	res.Count = Annotate(s.root, m, CategorySearch)
	if first := firstMarker(s.root, CategorySearch); first != nil {
		first.Attr = append(first.Attr, html.Attribute{Key: "id", Val: FocusID})
		res.FocusID = FocusID
	}
	if s.reporter != nil {
		s.reporter.Report(res.Count)
	}
	s.state = StateAnnotated
	return res, true
}

// Clear removes the current search generation and returns to idle.
func (s *Session) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := Remove(s.root, CategorySearch)
	s.state = StateIdle
	return n
}

// Do runs fn with exclusive access to the subtree, e.g. to render it.
func (s *Session) Do(fn func(root *html.Node)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.root)
}

func firstMarker(n *html.Node, c Category) *html.Node {
	if IsMarker(n, c) {
		return n
	}
	if _, ok := Classify(n).(ElementNode); !ok {
		return nil
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if m := firstMarker(ch, c); m != nil {
			return m
		}
	}
	return nil
}
