// Package types provides type definitions for structured data used throughout the resume builder.
package types

// AtsResult is the keyword coverage of the selected content against the
// job keywords.
type AtsResult struct {
	Score   float64  `json:"score"`
	Matched []string `json:"matched"`
	Missing []string `json:"missing"`
	Label   string   `json:"label"`
}
