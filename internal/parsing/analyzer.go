// Package parsing turns job posting text into a JobRequirement with a
// normalized keyword list.
package parsing

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/types"
)

// Defaults for Options.
const (
	DefaultMinJobLength        = 100
	DefaultMinKeywords         = 5
	DefaultMaxFallbackKeywords = 15
)

// Completer is the part of the text extraction adapter the analyzer needs.
type Completer interface {
	Complete(ctx context.Context, instruction, input string) (llm.Document, error)
}

// Options tune the analyzer.
type Options struct {
	// MinJobLength is the shortest trimmed posting, in runes.
	MinJobLength int
	// MinKeywords triggers the frequency fallback when fewer keywords survive.
	MinKeywords int
	// MaxFallbackKeywords caps the list once the fallback has run.
	MaxFallbackKeywords int
}

// DefaultOptions returns the default analyzer options.
func DefaultOptions() Options {
	return Options{
		MinJobLength:        DefaultMinJobLength,
		MinKeywords:         DefaultMinKeywords,
		MaxFallbackKeywords: DefaultMaxFallbackKeywords,
	}
}

func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.MinJobLength <= 0 {
		o.MinJobLength = d.MinJobLength
	}
	if o.MinKeywords <= 0 {
		o.MinKeywords = d.MinKeywords
	}
	if o.MaxFallbackKeywords <= 0 {
		o.MaxFallbackKeywords = d.MaxFallbackKeywords
	}
	return o
}

// Analyzer extracts job requirements from posting text.
type Analyzer struct {
	adapter Completer
	opts    Options
	log     zerolog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(adapter Completer, opts Options, log *zerolog.Logger) *Analyzer {
	l := zerolog.Nop()
	if log != nil {
		l = log.With().Str("component", "parsing").Logger()
	}
	return &Analyzer{adapter: adapter, opts: opts.normalized(), log: l}
}

// Analyze builds a JobRequirement from text. Keywords come from the
// completion service first; when too few survive normalization, the most
// frequent terms of the posting fill the list.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*types.JobRequirement, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &AnalysisError{Reason: ReasonEmpty, Message: "job posting is empty"}
	}
	if n := utf8.RuneCountInString(trimmed); n < a.opts.MinJobLength {
		return nil, &AnalysisError{
			Reason:  ReasonTooShort,
			Message: fmt.Sprintf("job posting has %d characters, need at least %d", n, a.opts.MinJobLength),
		}
	}

	doc, err := a.adapter.Complete(ctx, prompts.MustGet(prompts.ParsingFile, prompts.AnalyzeJobKey), trimmed)
	if err != nil {
		return nil, &AnalysisError{
			Reason:  ReasonServiceUnavailable,
			Message: "text extraction service failed",
			Cause:   err,
		}
	}

	job := &types.JobRequirement{
		Title:            doc.String("title"),
		Organization:     doc.String("organization"),
		ExperienceLevel:  strings.ToLower(doc.String("experience_level")),
		Responsibilities: nonNil(doc.Strings("responsibilities")),
		NiceToHave:       nonNil(doc.Strings("nice_to_have")),
		Description:      trimmed,
	}
	if job.Title == "" {
		job.Title = firstLine(trimmed)
	}

	keywords := NormalizeKeywords(append(doc.Strings("required_skills"), doc.Strings("keywords")...))
	if len(keywords) < a.opts.MinKeywords {
		before := len(keywords)
		keywords = fillKeywords(keywords, FrequentTerms(trimmed, a.opts.MaxFallbackKeywords), a.opts.MaxFallbackKeywords)
		a.log.Debug().Int("from_service", before).Int("after_fallback", len(keywords)).Msg("keyword fallback applied")
	}
	if len(keywords) == 0 {
		return nil, &AnalysisError{Reason: ReasonNoKeywords, Message: "no keywords found in the job posting"}
	}
	job.Keywords = keywords

	a.log.Info().
		Str("title", job.Title).
		Str("organization", job.Organization).
		Int("keywords", len(job.Keywords)).
		Msg("job analyzed")

	return job, nil
}

// fillKeywords appends fallback terms not already present until the list
// holds limit entries.
func fillKeywords(keywords, fallback []string, limit int) []string {
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		seen[k] = true
	}
	for _, term := range fallback {
		if len(keywords) >= limit {
			break
		}
		if !seen[term] {
			seen[term] = true
			keywords = append(keywords, term)
		}
	}
	return keywords
}

// maxFallbackTitle bounds a title taken from the first line of a posting.
const maxFallbackTitle = 120

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			if r := []rune(line); len(r) > maxFallbackTitle {
				line = string(r[:maxFallbackTitle])
			}
			return line
		}
	}
	return ""
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
