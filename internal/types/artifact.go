// Package types provides type definitions for structured data used throughout the resume builder.
package types

import "time"

// ResumeArtifact is one generated document. Artifacts form an append-only
// history per user.
type ResumeArtifact struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	UserID       string    `json:"user_id"`
	JobTitle     string    `json:"job_title,omitempty"`
	Organization string    `json:"organization,omitempty"`
	DocumentText string    `json:"document_text"`
	BinaryRef    string    `json:"binary_ref,omitempty"`
	ATS          AtsResult `json:"ats"`
	CreatedAt    time.Time `json:"created_at"`
}
