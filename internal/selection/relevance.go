// Package selection ranks profile entries against job keywords and selects
// the ones that go into a tailored resume.
package selection

import (
	"github.com/jonathan/resume-builder/internal/textmatch"
)

// Relevance returns 100 * |keywords found in text| / max(1, |keywords|).
// A keyword is found when it occurs in text as whole words, ignoring case;
// for single-token keywords this is the token-set intersection.
func Relevance(text string, keywords []string) float64 {
	matcher := textmatch.NewMatcher(text)

	seen := make(map[string]bool, len(keywords))
	total, hits := 0, 0
	for _, kw := range keywords {
		key := textmatch.Normalize(kw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		total++
		if matcher.Contains(key) {
			hits++
		}
	}

	if total < 1 {
		total = 1
	}
	return roundScore(100 * float64(hits) / float64(total))
}

func roundScore(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
