package intent

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned for input that is empty after trimming.
var ErrEmptyText = errors.New("EMPTY_TEXT")

// Normalize trims, lower-cases with Russian casing rules and collapses
// internal whitespace to single spaces. Punctuation, including '#' and '№',
// is preserved. Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) (string, error) {
	// cases.Caser keeps state and must not be shared between goroutines.
	lower := cases.Lower(language.Russian)

	s := norm.NFC.String(raw)
	s = norm.NFC.String(lower.String(s))
	s = strings.Join(strings.Fields(s), " ")

	if s == "" {
		return "", ErrEmptyText
	}
	return s, nil
}
