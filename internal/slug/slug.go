// Package slug builds the human-readable identifiers used in catalog routes.
package slug

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmpty is returned when text has nothing left to build a slug from.
var ErrEmpty = errors.New("slug is empty")

var (
	parenthesized = regexp.MustCompile(`\([^)]*\)`)
	nonAlnumRun   = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate lower-cases text, strips diacritics, drops parenthesized
// fragments and joins the remaining alphanumeric runs with single hyphens.
// Input without any alphanumeric character yields "".
func Generate(text string) string {
	s := stripMarks(strings.ToLower(text))
	s = parenthesized.ReplaceAllString(s, "")
	s = nonAlnumRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Derive is Generate for callers that persist the result: it fails instead
// of returning an empty slug.
func Derive(text string) (string, error) {
	s := Generate(text)
	if s == "" {
		return "", fmt.Errorf("%q: %w", text, ErrEmpty)
	}
	return s, nil
}

// IsValid reports whether s is one or more lowercase alphanumeric segments
// separated by single hyphens.
func IsValid(s string) bool {
	return validSlug.MatchString(s)
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
