// Package textmatch provides the whole-word, case-insensitive matching shared
// by content selection and ATS scoring.
package textmatch

import (
	"strings"
	"unicode"
)

// Normalize lower-cases s and reduces it to space-separated tokens. Letters,
// digits and the characters + # . survive inside a token so that terms such
// as "c++", "c#" and "node.js" stay intact; trailing dots are trimmed.
func Normalize(s string) string {
	return strings.Join(Tokens(s), " ")
}

// Tokens returns the normalized tokens of s in order.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !isTokenRune(r)
	})

	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ".")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// TokenSet returns the distinct normalized tokens of s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokens(s) {
		set[t] = struct{}{}
	}
	return set
}

// ContainsPhrase reports whether the already-normalized phrase occurs in the
// already-normalized text as whole words.
func ContainsPhrase(normalizedText, normalizedPhrase string) bool {
	if normalizedPhrase == "" {
		return false
	}
	hay := " " + normalizedText + " "
	needle := " " + normalizedPhrase + " "
	return strings.Contains(hay, needle)
}

// Matcher answers repeated whole-word queries against one text.
type Matcher struct {
	text string
}

// NewMatcher normalizes text once for repeated Contains calls.
func NewMatcher(text string) *Matcher {
	return &Matcher{text: Normalize(text)}
}

// Contains reports whether keyword occurs in the text as whole words,
// ignoring case.
func (m *Matcher) Contains(keyword string) bool {
	return ContainsPhrase(m.text, Normalize(keyword))
}

func isTokenRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.'
}
