package highlight

import "regexp"

// Escape returns term with every regular expression metacharacter escaped,
// so the result matches exactly the literal term.
func Escape(term string) string {
	return regexp.QuoteMeta(term)
}
