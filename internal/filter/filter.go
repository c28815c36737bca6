// Package filter selects raw debug log lines by category and free text.
// Filters operate on the original line sequence, not on parsed structure, so
// they work even for traces the parser had to force-close.
package filter

import "strings"

// Category selects a fixed class of raw debug log lines.
type Category string

const (
	CategoryAll    Category = "all"
	CategoryDebug  Category = "debug"
	CategoryErrors Category = "errors"
	CategorySoql   Category = "soql"
	CategoryLimits Category = "limits"
)

// categoryMarkers maps each category to the substrings that admit a line.
var categoryMarkers = map[Category][]string{
	CategoryDebug:  {"USER_DEBUG"},
	CategoryErrors: {"EXCEPTION", "FATAL_ERROR"},
	CategorySoql:   {"SOQL_EXECUTE"},
	CategoryLimits: {"LIMIT_USAGE", "out of"},
}

// Valid reports whether cat names a known category.
func Valid(cat Category) bool {
	if cat == CategoryAll {
		return true
	}
	_, ok := categoryMarkers[cat]
	return ok
}

// Matches reports whether a single raw line passes the category filter and
// the case-insensitive free-text search. Empty search matches everything.
func Matches(line string, cat Category, search string) bool {
	if cat != CategoryAll && cat != "" {
		markers := categoryMarkers[cat]
		found := false
		for _, marker := range markers {
			if strings.Contains(line, marker) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(line), strings.ToLower(search))
}

// Lines splits raw trace text and returns the lines passing the filter,
// preserving original order. Blank lines are dropped.
func Lines(text string, cat Category, search string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if Matches(line, cat, search) {
			out = append(out, line)
		}
	}
	return out
}
