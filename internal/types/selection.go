// Package types provides type definitions for structured data used throughout the resume builder.
package types

import "strings"

// SelectedContent is the ranked subset of a profile chosen for one job.
type SelectedContent struct {
	Experiences []ScoredExperience `json:"experiences"`
	Projects    []ScoredProject    `json:"projects"`
}

// ScoredExperience is an experience entry with its relevance (0-100) and
// its position in the source profile.
type ScoredExperience struct {
	Experience
	Relevance float64 `json:"relevance"`
	Index     int     `json:"index"`
}

// ScoredProject is a project entry with its relevance (0-100) and its
// position in the source profile.
type ScoredProject struct {
	Project
	Relevance float64 `json:"relevance"`
	Index     int     `json:"index"`
}

// IsEmpty reports whether nothing was selected.
func (s *SelectedContent) IsEmpty() bool {
	return s == nil || (len(s.Experiences) == 0 && len(s.Projects) == 0)
}

// Text concatenates the text of every selected entry in selection order.
func (s *SelectedContent) Text() string {
	if s == nil {
		return ""
	}
	parts := make([]string, 0, len(s.Experiences)+len(s.Projects))
	for _, e := range s.Experiences {
		parts = append(parts, e.Text())
	}
	for _, p := range s.Projects {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}
