package conversation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-builder/internal/textmatch"
)

// MessageKind is the coarse intent of a user message.
type MessageKind int

// Message kinds
const (
	KindChatter MessageKind = iota
	KindResume
	KindJobPosting
	KindAmbiguous
)

func (k MessageKind) String() string {
	switch k {
	case KindResume:
		return "resume"
	case KindJobPosting:
		return "job_posting"
	case KindAmbiguous:
		return "ambiguous"
	default:
		return "chatter"
	}
}

const (
	// minCues is how many cues a message needs before it clearly is a
	// resume or a posting.
	minCues = 2
	// chatterMaxLength is the longest cue-free message treated as chatter.
	chatterMaxLength = 200
)

var resumeCues = []string{
	"education",
	"work experience",
	"professional experience",
	"employment history",
	"technical skills",
	"projects",
	"gpa",
	"relevant coursework",
	"expected graduation",
	"certifications",
	"awards",
	"linkedin",
	"github",
}

var postingCues = []string{
	"responsibilities",
	"requirements",
	"qualifications",
	"job description",
	"about the role",
	"about the job",
	"we are looking",
	"we're looking",
	"you will",
	"what you'll do",
	"who you are",
	"the ideal candidate",
	"years of experience",
	"nice to have",
	"preferred",
	"benefits",
	"compensation",
	"salary",
	"equal opportunity",
	"join our team",
	"apply",
}

var (
	latexPreamble = regexp.MustCompile(`\\documentclass|\\begin\{document\}`)
	emailPattern  = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[A-Za-z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+?\d[\d\-\s().]{8,}\d`)
)

// Classify guesses whether text is a resume, a job posting, small talk, or
// something that cannot be told apart.
func Classify(text string) MessageKind {
	text = strings.TrimSpace(text)
	if text == "" {
		return KindChatter
	}
	if IsLaTeXDocument(text) {
		return KindResume
	}

	m := textmatch.NewMatcher(text)
	resume := countCues(m, resumeCues)
	if emailPattern.MatchString(text) {
		resume++
	}
	if phonePattern.MatchString(text) {
		resume++
	}
	posting := countCues(m, postingCues)

	switch {
	case resume >= minCues && resume > posting:
		return KindResume
	case posting >= minCues && posting > resume:
		return KindJobPosting
	case resume < minCues && posting < minCues && utf8.RuneCountInString(text) <= chatterMaxLength:
		return KindChatter
	default:
		return KindAmbiguous
	}
}

// IsLaTeXDocument reports whether text carries a LaTeX preamble. It is the
// only signal strong enough to refuse a message as a job posting.
func IsLaTeXDocument(text string) bool {
	return latexPreamble.MatchString(text)
}

func countCues(m *textmatch.Matcher, cues []string) int {
	n := 0
	for _, c := range cues {
		if m.Contains(c) {
			n++
		}
	}
	return n
}
