package highlight

import "sync"

// Reporter receives the number of markers produced by a search.
type Reporter interface {
	Report(count int)
}

// Status is a Reporter backing a results indicator: a numeric counter and a
// container that starts hidden.
type Status struct {
	mu sync.Mutex

	// RevealOnZero shows the indicator even when a search found nothing.
	RevealOnZero bool

	count   int
	visible bool
}

func (s *Status) Report(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = count
	if count > 0 || s.RevealOnZero {
		s.visible = true
	}
}

// Hide hides the indicator without resetting the counter.
func (s *Status) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = false
}

// Snapshot returns the current counter value and visibility.
func (s *Status) Snapshot() (count int, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, s.visible
}
