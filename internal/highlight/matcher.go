package highlight

import (
	"regexp"
	"strings"
	"sync"
)

// Matcher finds all non-overlapping, case-insensitive occurrences of any term
// of a normalized term set.
//
// When two terms match at the same position the one listed first wins; the
// leftmost match always wins over a later one. Longest match is not attempted.
type Matcher struct {
	re    *regexp.Regexp
	terms []string
}

// NormalizeTerms trims terms, replaces invalid UTF-8 with U+FFFD, drops blank
// entries and case-insensitive duplicates, and keeps the original order.
func NormalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(strings.ToValidUTF8(t, "\uFFFD"))
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// NewMatcher compiles a matcher for terms. It returns nil when no usable term
// remains after normalization or the pattern does not compile.
func NewMatcher(terms []string) *Matcher {
	terms = NormalizeTerms(terms)
	if len(terms) == 0 {
		return nil
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = Escape(t)
	}
	re, err := regexp.Compile("(?i)" + strings.Join(parts, "|"))
	if err != nil {
		return nil
	}
	return &Matcher{re: re, terms: terms}
}

// Terms returns the normalized term set the matcher was built from.
func (m *Matcher) Terms() []string {
	return append([]string(nil), m.terms...)
}

// FindAll returns the [start, end) byte offsets of every match in s.
func (m *Matcher) FindAll(s string) [][]int {
	if m == nil {
		return nil
	}
	return m.re.FindAllStringIndex(s, -1)
}

// Cache holds the most recently compiled matcher keyed by its normalized term
// set, so repeated searches for the same terms skip compilation.
type Cache struct {
	mu      sync.Mutex
	key     string
	matcher *Matcher
}

// Get returns a matcher for terms, reusing the cached one if the normalized
// term set has not changed. It returns nil for an empty term set.
func (c *Cache) Get(terms []string) *Matcher {
	norm := NormalizeTerms(terms)
	if len(norm) == 0 {
		return nil
	}
	key := cacheKey(norm)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.matcher != nil && c.key == key {
		return c.matcher
	}
	c.key = key
	c.matcher = NewMatcher(norm)
	return c.matcher
}

func cacheKey(norm []string) string {
	lower := make([]string, len(norm))
	for i, t := range norm {
		lower[i] = strings.ToLower(t)
	}
	return strings.Join(lower, "\x00")
}
