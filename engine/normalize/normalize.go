// Package normalize canonicalises free-text tokens so catalog lookups and
// tag composition are case- and whitespace-insensitive.
package normalize

import (
	"regexp"
	"strings"
)

// nonAlnum matches every run of characters outside [a-z0-9] after folding.
var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases s, collapses every run of non-alphanumeric
// characters to a single space, and trims the result. The empty string
// means "no evidence": absent input, empty input, and input with no
// alphanumeric content all normalise to "". Never returns whitespace-only
// output, so downstream required-field checks can test for "" alone.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Join normalises and joins the given parts with single spaces, skipping
// empty ones. Used for composite tags: a composite is only formed when all
// of its constituents are non-empty, so callers check that first.
func Join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if n := Normalize(p); n != "" {
			kept = append(kept, n)
		}
	}
	return strings.Join(kept, " ")
}
