// Package search implements the client-side filtering used by list commands
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s for matching: decomposes, drops combining marks,
// recomposes, lower-cases and collapses whitespace. "Trombón" and "trombon"
// normalize to the same string.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = norm.NFC.String(s)
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Matches reports whether every word of query occurs in at least one of fields
func Matches(query string, fields ...string) bool {
	terms := strings.Fields(Normalize(query))
	if len(terms) == 0 {
		return true
	}

	normalized := make([]string, len(fields))
	for i, f := range fields {
		normalized[i] = Normalize(f)
	}

	for _, term := range terms {
		found := false
		for _, f := range normalized {
			if strings.Contains(f, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Filter returns the items whose fields match query, in their original order.
// An empty query returns items unchanged.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	if strings.TrimSpace(query) == "" {
		return items
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if Matches(query, fields(item)...) {
			out = append(out, item)
		}
	}
	return out
}
