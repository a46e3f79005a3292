// Package scoring computes the ATS keyword-coverage score of selected resume
// content against job keywords.
package scoring

import (
	"github.com/jonathan/resume-builder/internal/textmatch"
	"github.com/jonathan/resume-builder/internal/types"
)

// Score labels
const (
	LabelExcellent = "Excellent match"
	LabelGood      = "Good match"
	LabelImprove   = "Could be improved"
)

// ScoreATS matches every job keyword against the selected content as a
// whole word, ignoring case. The score is 100 * matched / max(1, n) rounded
// to one decimal. Matched and missing keep the keyword order.
func ScoreATS(job *types.JobRequirement, selected *types.SelectedContent) types.AtsResult {
	var keywords []string
	if job != nil {
		keywords = job.Keywords
	}
	return Score(keywords, selected.Text())
}

// Score is the text-level form of ScoreATS.
func Score(keywords []string, text string) types.AtsResult {
	matcher := textmatch.NewMatcher(text)

	matched := []string{}
	missing := []string{}
	seen := make(map[string]bool, len(keywords))
	total := 0
	for _, kw := range keywords {
		key := textmatch.Normalize(kw)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		total++

		if matcher.Contains(key) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	score := coverage(len(matched), total)
	return types.AtsResult{
		Score:   score,
		Matched: matched,
		Missing: missing,
		Label:   Label(score),
	}
}

// Label maps a score to its user-facing quality label.
func Label(score float64) string {
	switch {
	case score >= 80:
		return LabelExcellent
	case score >= 60:
		return LabelGood
	default:
		return LabelImprove
	}
}

// coverage returns 100 * matched / max(1, total) rounded to one decimal and
// clamped to [0, 100]. Rounding never reaches 100 while a keyword is missing
// and never reaches 0 while a keyword matched.
func coverage(matched, total int) float64 {
	denom := total
	if denom < 1 {
		denom = 1
	}
	raw := 100 * float64(matched) / float64(denom)
	score := round1(raw)

	switch {
	case matched < total && score >= 100:
		score = 99.9
	case matched > 0 && score <= 0:
		score = 0.1
	}
	return clamp(score, 0, 100)
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
