package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/resume-builder/internal/types"
)

// Memory implements Repository in process. Values are copied on the way in
// and out.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string][]byte
	resumes  map[string]types.ResumeArtifact
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[string][]byte),
		resumes:  make(map[string]types.ResumeArtifact),
	}
}

// GetProfile implements ProfileRepository.
func (m *Memory) GetProfile(_ context.Context, userID string) (*types.UserProfile, error) {
	m.mu.RLock()
	data, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var profile types.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile implements ProfileRepository.
func (m *Memory) SaveProfile(_ context.Context, userID string, profile *types.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	m.mu.Lock()
	m.profiles[userID] = data
	m.mu.Unlock()
	return nil
}

// DeleteProfile implements ProfileRepository.
func (m *Memory) DeleteProfile(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.profiles[userID]
	delete(m.profiles, userID)
	return ok, nil
}

// SaveResume implements ResumeRepository.
func (m *Memory) SaveResume(_ context.Context, artifact *types.ResumeArtifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.resumes[artifact.ID]; exists {
		return fmt.Errorf("failed to save resume: duplicate id %s", artifact.ID)
	}
	m.resumes[artifact.ID] = copyArtifact(*artifact)
	return nil
}

// GetResume implements ResumeRepository.
func (m *Memory) GetResume(_ context.Context, id string) (*types.ResumeArtifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.resumes[id]
	if !ok {
		return nil, nil
	}
	c := copyArtifact(a)
	return &c, nil
}

// ListResumes implements ResumeRepository.
func (m *Memory) ListResumes(_ context.Context, userID string, limit, offset int) ([]types.ResumeArtifact, error) {
	limit, offset = normalizePage(limit, offset)

	m.mu.RLock()
	all := make([]types.ResumeArtifact, 0)
	for _, a := range m.resumes {
		if a.UserID == userID {
			all = append(all, copyArtifact(a))
		}
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	if offset >= len(all) {
		return []types.ResumeArtifact{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func copyArtifact(a types.ResumeArtifact) types.ResumeArtifact {
	a.ATS.Matched = copyStrings(a.ATS.Matched)
	a.ATS.Missing = copyStrings(a.ATS.Missing)
	return a
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
