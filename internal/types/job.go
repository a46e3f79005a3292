// Package types provides type definitions for structured data used throughout the resume builder.
package types

// JobRequirement is the analyzed form of a job posting. One requirement is
// active per generation cycle; a later posting replaces it.
type JobRequirement struct {
	Title            string   `json:"title"`
	Organization     string   `json:"organization,omitempty"`
	Keywords         []string `json:"keywords"`
	Description      string   `json:"description"`
	ExperienceLevel  string   `json:"experience_level,omitempty"`
	Responsibilities []string `json:"responsibilities,omitempty"`
	NiceToHave       []string `json:"nice_to_have,omitempty"`
}
