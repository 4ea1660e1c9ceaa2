package workbook

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize canonicalizes cell text for comparison: whitespace runs (including
// embedded line breaks) collapse to single spaces and the ends are trimmed.
// Case is preserved; callers upper-case explicitly when they need folding.
// Normalize is idempotent.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// NormalizeUpper is Normalize followed by upper-casing, the form used for
// marker and pattern matching.
func NormalizeUpper(s string) string {
	return strings.ToUpper(Normalize(s))
}

// ContainsNormalized reports whether needle occurs in hay after both are
// normalized and upper-cased. Empty needles never match.
func ContainsNormalized(hay, needle string) bool {
	n := NormalizeUpper(needle)
	if n == "" {
		return false
	}
	return strings.Contains(NormalizeUpper(hay), n)
}

// EqualNormalized reports case- and whitespace-insensitive equality.
func EqualNormalized(a, b string) bool {
	return strings.EqualFold(Normalize(a), Normalize(b))
}
