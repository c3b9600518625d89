// Package title normalizes catalog titles such as "Toy Story (1995)" into a
// lookup title and release year.
package title

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	yearRe     = regexp.MustCompile(`\((\d{4})\)`)
	trailingRe = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
	prefixRe   = regexp.MustCompile(`[:\-–]`)
)

// ExtractYear returns the first parenthesised four-digit year in t.
func ExtractYear(t string) (int, bool) {
	m := yearRe.FindStringSubmatch(t)
	if len(m) < 2 {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// Clean strips a trailing "(YYYY)" and surrounding whitespace.
func Clean(t string) string {
	return strings.TrimSpace(trailingRe.ReplaceAllString(t, ""))
}

// Prefix returns the part of t before the first ':', '-' or en-dash, trimmed.
func Prefix(t string) string {
	return strings.TrimSpace(prefixRe.Split(t, 2)[0])
}

// Key builds the cache key for a clean title and optional year.
func Key(clean string, year int) string {
	if year == 0 {
		return clean + "__"
	}
	return clean + "__" + strconv.Itoa(year)
}
