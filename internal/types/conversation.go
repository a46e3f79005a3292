// Package types provides type definitions for structured data used throughout the resume builder.
package types

import (
	"fmt"
	"time"
)

// Stage is a named point in the conversation state machine.
type Stage string

// Stages in canonical order.
const (
	StageInit                 Stage = "INIT"
	StageAwaitResume          Stage = "AWAIT_RESUME"
	StageExtractingProfile    Stage = "EXTRACTING_PROFILE"
	StageAwaitJobDescription  Stage = "AWAIT_JOB_DESCRIPTION"
	StageAnalyzingJob         Stage = "ANALYZING_JOB"
	StageSelectingContent     Stage = "SELECTING_CONTENT"
	StageScoringATS           Stage = "SCORING_ATS"
	StageSynthesizingDocument Stage = "SYNTHESIZING_DOCUMENT"
	StageDone                 Stage = "DONE"
)

// CanonicalStages lists every stage in the order a generation cycle visits them.
var CanonicalStages = []Stage{
	StageInit,
	StageAwaitResume,
	StageExtractingProfile,
	StageAwaitJobDescription,
	StageAnalyzingJob,
	StageSelectingContent,
	StageScoringATS,
	StageSynthesizingDocument,
	StageDone,
}

// Order returns the position of the stage in CanonicalStages, or -1.
func (s Stage) Order() int {
	for i, c := range CanonicalStages {
		if c == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return s.Order() >= 0
}

// IsSuspension reports whether the engine waits for user input at s.
func (s Stage) IsSuspension() bool {
	return s == StageAwaitResume || s == StageAwaitJobDescription
}

// Role identifies who authored a message.
type Role string

// Message roles
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation history
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ConversationState is the checkpointed state of a single thread.
type ConversationState struct {
	ThreadID  string           `json:"thread_id"`
	UserID    string           `json:"user_id"`
	Stage     Stage            `json:"stage"`
	Profile   *UserProfile     `json:"profile,omitempty"`
	Job       *JobRequirement  `json:"job,omitempty"`
	Selected  *SelectedContent `json:"selected,omitempty"`
	ATS       *AtsResult       `json:"ats,omitempty"`
	Messages  []Message        `json:"messages"`
	Version   int64            `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewConversationState returns a fresh INIT state for a thread.
func NewConversationState(threadID, userID string, now time.Time) *ConversationState {
	return &ConversationState{
		ThreadID:  threadID,
		UserID:    userID,
		Stage:     StageInit,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks that the stage is consistent with the populated fields.
func (s *ConversationState) Validate() error {
	if s.ThreadID == "" {
		return fmt.Errorf("conversation state: thread id is empty")
	}
	order := s.Stage.Order()
	if order < 0 {
		return fmt.Errorf("conversation state %s: unknown stage %q", s.ThreadID, s.Stage)
	}
	if order >= StageAwaitJobDescription.Order() && s.Profile == nil {
		return fmt.Errorf("conversation state %s: stage %s requires a profile", s.ThreadID, s.Stage)
	}
	if order > StageAnalyzingJob.Order() && s.Job == nil {
		return fmt.Errorf("conversation state %s: stage %s requires a job requirement", s.ThreadID, s.Stage)
	}
	if order > StageSelectingContent.Order() && s.Selected == nil {
		return fmt.Errorf("conversation state %s: stage %s requires selected content", s.ThreadID, s.Stage)
	}
	if order > StageScoringATS.Order() && s.ATS == nil {
		return fmt.Errorf("conversation state %s: stage %s requires an ATS result", s.ThreadID, s.Stage)
	}
	return nil
}

// AppendMessage adds a message and keeps at most maxHistory entries,
// dropping the oldest. A non-positive maxHistory keeps everything.
func (s *ConversationState) AppendMessage(role Role, content string, at time.Time, maxHistory int) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, At: at})
	if maxHistory > 0 && len(s.Messages) > maxHistory {
		s.Messages = append([]Message(nil), s.Messages[len(s.Messages)-maxHistory:]...)
	}
}

// ThreadSummary is the list view of a thread.
type ThreadSummary struct {
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
