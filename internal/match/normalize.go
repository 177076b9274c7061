package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks strips combining marks after canonical decomposition, turning
// "Beyoncé" into "Beyonce".
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduces a title or artist name to a comparison key: lowercase,
// diacritics folded, parenthetical qualifiers dropped, punctuation removed,
// whitespace collapsed. Normalize(Normalize(s)) == Normalize(s) holds for
// every input.
func Normalize(s string) string {
	s = strings.ToLower(s)

	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}

	s = stripQualifiers(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Punctuation and symbols are dropped entirely.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// stripQualifiers removes parenthesized and bracketed segments, which on
// streaming platforms hold variant qualifiers like "(Remastered 2011)" or
// "[feat. Someone]" rather than title content.
func stripQualifiers(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	depth := 0
	for _, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// tokens splits a normalized string into its word set.
func tokens(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// tokenOverlap reports how many words the two normalized strings share.
func tokenOverlap(a, b string) int {
	as := tokens(a)
	count := 0
	for w := range tokens(b) {
		if _, ok := as[w]; ok {
			count++
		}
	}
	return count
}
