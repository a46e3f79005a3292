// Package checkpoint persists conversation state between turns. Saves are
// atomic per thread and guarded by an optimistic version check; whole turns
// are serialized per thread with a Locker.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jonathan/resume-builder/internal/types"
)

// Store loads and saves conversation checkpoints.
type Store interface {
	// Load returns the latest state of a thread, or ErrNotFound.
	Load(ctx context.Context, threadID string) (*types.ConversationState, error)
	// Save writes state if the stored version still equals state.Version,
	// then increments state.Version. A fresh thread has version 0.
	Save(ctx context.Context, state *types.ConversationState) error
	// Delete removes a thread, or returns ErrNotFound.
	Delete(ctx context.Context, threadID string) error
	// ListByUser returns the user's threads, most recently updated first.
	ListByUser(ctx context.Context, userID string) ([]types.ThreadSummary, error)
	// Prune removes threads last updated before olderThan and returns how
	// many were removed.
	Prune(ctx context.Context, olderThan time.Time) (int, error)
}

// encodeState serializes state as it will be stored after a successful
// save, that is with the next version.
func encodeState(state *types.ConversationState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("nil state")
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	next := *state
	next.Version = state.Version + 1
	return json.Marshal(&next)
}

func decodeState(data []byte) (*types.ConversationState, error) {
	var state types.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

func summaryOf(s *types.ConversationState) types.ThreadSummary {
	return types.ThreadSummary{
		ThreadID:  s.ThreadID,
		UserID:    s.UserID,
		Stage:     s.Stage,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func sortSummaries(out []types.ThreadSummary) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ThreadID < out[j].ThreadID
	})
}
