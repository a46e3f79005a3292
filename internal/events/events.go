// Package events publishes notifications about generated resumes.
package events

import (
	"context"
	"time"
)

// RoutingKeyResumeGenerated is the routing key of ResumeGenerated events.
const RoutingKeyResumeGenerated = "resume.generated"

// ResumeGenerated is emitted after a resume artifact is saved.
type ResumeGenerated struct {
	ArtifactID   string    `json:"artifact_id"`
	ThreadID     string    `json:"thread_id"`
	UserID       string    `json:"user_id"`
	JobTitle     string    `json:"job_title,omitempty"`
	Organization string    `json:"organization,omitempty"`
	ATSScore     float64   `json:"ats_score"`
	BinaryRef    string    `json:"binary_ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Publisher delivers events. Publishing is best effort: callers log
// failures and carry on.
type Publisher interface {
	PublishResumeGenerated(ctx context.Context, ev ResumeGenerated) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// PublishResumeGenerated implements Publisher.
func (NopPublisher) PublishResumeGenerated(context.Context, ResumeGenerated) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }
