package parsing

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jonathan/resume-builder/internal/textmatch"
)

// stopWords never count as keywords, whether they come from the
// completion service or from the frequency fallback.
var stopWords = map[string]bool{
	"a": true, "about": true, "above": true, "across": true, "after": true, "all": true,
	"also": true, "an": true, "and": true, "any": true, "are": true, "as": true,
	"at": true, "be": true, "been": true, "being": true, "both": true, "but": true,
	"by": true, "can": true, "candidate": true, "company": true, "do": true,
	"each": true, "etc": true, "experience": true, "for": true, "from": true,
	"has": true, "have": true, "how": true, "if": true, "in": true, "including": true,
	"into": true, "is": true, "it": true, "its": true, "job": true, "looking": true,
	"may": true, "more": true, "most": true, "must": true, "new": true, "no": true,
	"not": true, "of": true, "on": true, "or": true, "other": true, "our": true,
	"out": true, "over": true, "plus": true, "preferred": true, "required": true,
	"requirements": true, "responsibilities": true, "role": true, "should": true,
	"so": true, "some": true, "such": true, "team": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"these": true, "they": true, "this": true, "to": true, "up": true, "us": true,
	"use": true, "using": true, "we": true, "well": true, "were": true, "what": true,
	"when": true, "where": true, "which": true, "while": true, "who": true,
	"will": true, "with": true, "within": true, "work": true, "working": true,
	"would": true, "year": true, "years": true, "you": true, "your": true,
}

// IsStopWord reports whether a normalized keyword is on the stop list.
func IsStopWord(keyword string) bool {
	return stopWords[keyword]
}

// NormalizeKeyword lower-cases a keyword, collapses inner whitespace and
// trims surrounding punctuation. Characters that carry meaning in technology
// names such as "c++", "c#" and ".net" are kept.
func NormalizeKeyword(keyword string) string {
	k := strings.ToLower(strings.Join(strings.Fields(keyword), " "))
	k = strings.TrimLeftFunc(k, func(r rune) bool {
		return r != '.' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	k = strings.TrimRightFunc(k, func(r rune) bool {
		return r != '+' && r != '#' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.TrimSpace(k)
}

// NormalizeKeywords normalizes, drops stop-words and empties, and
// deduplicates while keeping first-seen order.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		n := NormalizeKeyword(kw)
		if n == "" || stopWords[n] || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// FrequentTerms returns up to limit single-word terms from text ordered by
// descending frequency, ties broken by first occurrence. Stop-words,
// numbers and single characters are skipped.
func FrequentTerms(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	type term struct {
		word  string
		count int
		first int
	}
	terms := make(map[string]*term)
	for i, tok := range textmatch.Tokens(text) {
		if !isCandidateTerm(tok) {
			continue
		}
		if t, ok := terms[tok]; ok {
			t.count++
			continue
		}
		terms[tok] = &term{word: tok, count: 1, first: i}
	}

	ranked := make([]*term, 0, len(terms))
	for _, t := range terms {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, t := range ranked {
		out[i] = t.word
	}
	return out
}

func isCandidateTerm(tok string) bool {
	if stopWords[tok] || len([]rune(tok)) < 2 {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
