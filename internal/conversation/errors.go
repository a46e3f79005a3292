package conversation

import "errors"

var (
	// ErrThreadForbidden is returned when a thread belongs to another user.
	ErrThreadForbidden = errors.New("thread belongs to another user")
	// ErrThreadNotFound is returned by thread queries for unknown ids.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrMissingUser is returned for a turn without a user id.
	ErrMissingUser = errors.New("user id is required")
)
