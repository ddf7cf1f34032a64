package model

import "strings"

// DefaultCategories is the category set offered when none is configured.
var DefaultCategories = []string{"Work", "Personal", "Shopping", "Health", "Study"}

// MatchCategory returns the entry of categories equal to raw ignoring case,
// so typed input resolves to the canonical spelling.
func MatchCategory(categories []string, raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", false
	}
	for _, c := range categories {
		if strings.EqualFold(c, value) {
			return c, true
		}
	}
	return "", false
}
