package checkpoint

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/resume-builder/internal/types"
)

// MemoryStore keeps checkpoints in process. States are stored serialized so
// callers never share memory with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	userID    string
	version   int64
	updatedAt time.Time
	data      []byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]memoryRecord)}
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, threadID string) (*types.ConversationState, error) {
	if err := ctx.Err(); err != nil {
		return nil, persistenceErr("load", threadID, err)
	}

	m.mu.RLock()
	rec, ok := m.records[threadID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	state, err := decodeState(rec.data)
	if err != nil {
		return nil, persistenceErr("load", threadID, err)
	}
	return state, nil
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, state *types.ConversationState) error {
	if err := ctx.Err(); err != nil {
		return persistenceErr("save", threadIDOf(state), err)
	}
	data, err := encodeState(state)
	if err != nil {
		return persistenceErr("save", threadIDOf(state), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.records[state.ThreadID]
	if (exists && current.version != state.Version) || (!exists && state.Version != 0) {
		return persistenceErr("save", state.ThreadID, ErrVersionConflict)
	}

	m.records[state.ThreadID] = memoryRecord{
		userID:    state.UserID,
		version:   state.Version + 1,
		updatedAt: state.UpdatedAt,
		data:      data,
	}
	state.Version++
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return persistenceErr("delete", threadID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[threadID]; !ok {
		return ErrNotFound
	}
	delete(m.records, threadID)
	return nil
}

// ListByUser implements Store.
func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]types.ThreadSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, persistenceErr("list", "", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []types.ThreadSummary{}
	for threadID, rec := range m.records {
		if rec.userID != userID {
			continue
		}
		state, err := decodeState(rec.data)
		if err != nil {
			return nil, persistenceErr("list", threadID, err)
		}
		out = append(out, summaryOf(state))
	}
	sortSummaries(out)
	return out, nil
}

// Prune implements Store.
func (m *MemoryStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, persistenceErr("prune", "", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for threadID, rec := range m.records {
		if rec.updatedAt.Before(olderThan) {
			delete(m.records, threadID)
			removed++
		}
	}
	return removed, nil
}

func threadIDOf(state *types.ConversationState) string {
	if state == nil {
		return ""
	}
	return state.ThreadID
}
