// Package rendering synthesizes LaTeX resume source from a profile and the
// content selected for a job.
package rendering

import "strings"

// ReservedCharacters are the ten characters LaTeX treats specially in text.
const ReservedCharacters = `&%$#_{}~^\`

// latexEscapes maps each reserved character to its literal-safe form.
var latexEscapes = map[rune]string{
	'&':  `\&`,
	'%':  `\%`,
	'$':  `\$`,
	'#':  `\#`,
	'_':  `\_`,
	'{':  `\{`,
	'}':  `\}`,
	'~':  `\textasciitilde{}`,
	'^':  `\textasciicircum{}`,
	'\\': `\textbackslash{}`,
}

// EscapeLaTeX replaces every reserved character in text with its escaped
// form in a single pass, so replacements are never escaped twice. All other
// runes pass through unchanged.
func EscapeLaTeX(text string) string {
	if !strings.ContainsAny(text, ReservedCharacters) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(text)/2)
	for _, r := range text {
		if esc, ok := latexEscapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeAll escapes every element of values into a new slice.
func EscapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = EscapeLaTeX(v)
	}
	return out
}

// EscapedForm returns the escaped representation of a reserved character,
// or false when r is not reserved.
func EscapedForm(r rune) (string, bool) {
	esc, ok := latexEscapes[r]
	return esc, ok
}
