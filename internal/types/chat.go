// Package types provides type definitions for structured data used throughout the resume builder.
package types

import "github.com/go-playground/validator/v10"

// ChatRequest is one inbound conversation turn.
type ChatRequest struct {
	Message  string `json:"message" validate:"required,max=100000"`
	ThreadID string `json:"thread_id,omitempty" validate:"omitempty,uuid"`
}

// ChatResponse is the outcome of one conversation turn.
type ChatResponse struct {
	ThreadID     string     `json:"thread_id"`
	Response     string     `json:"response"`
	Stage        Stage      `json:"stage"`
	ATSScore     *float64   `json:"ats_score"`
	ATS          *AtsResult `json:"ats,omitempty"`
	DocumentText *string    `json:"document_text"`
	BinaryRef    string     `json:"binary_ref,omitempty"`
	ErrorCode    string     `json:"error_code,omitempty"`
}

// Validate validates the ChatRequest using the validator.
func (r *ChatRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ValidateContact reports the contact fields that fail their format tags.
func ValidateContact(c Contact) validator.ValidationErrors {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		return verrs
	}
	return nil
}
