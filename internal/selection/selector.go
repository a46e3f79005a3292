package selection

import (
	"sort"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// DefaultMaxExperiences caps the experience entries of one document
	DefaultMaxExperiences = 5
	// DefaultMaxProjects caps the project entries of one document
	DefaultMaxProjects = 4
)

// Options bounds the selection.
type Options struct {
	MaxExperiences int
	// MaxProjects caps the number of selected projects
	MaxProjects int
	// MinRelevance is the exclusive floor an entry must beat to be preferred.
	// Entries at or below it only fill slots the preferred entries leave open.
	MinRelevance float64
}

// DefaultOptions returns the default caps and a floor of zero.
func DefaultOptions() Options {
	return Options{
		MaxExperiences: DefaultMaxExperiences,
		MaxProjects:    DefaultMaxProjects,
	}
}

func (o Options) normalized() Options {
	if o.MaxExperiences <= 0 {
		o.MaxExperiences = DefaultMaxExperiences
	}
	if o.MaxProjects <= 0 {
		o.MaxProjects = DefaultMaxProjects
	}
	return o
}

// Select scores every experience and project against the job keywords,
// orders them by relevance (stable, so ties keep profile order) and keeps
// the top entries per Options. A non-empty profile never yields an empty
// selection.
func Select(profile *types.UserProfile, job *types.JobRequirement, opts Options) *types.SelectedContent {
	opts = opts.normalized()
	out := &types.SelectedContent{
		Experiences: []types.ScoredExperience{},
		Projects:    []types.ScoredProject{},
	}
	if profile == nil {
		return out
	}

	var keywords []string
	if job != nil {
		keywords = job.Keywords
	}

	experiences := make([]types.ScoredExperience, len(profile.Experience))
	for i, e := range profile.Experience {
		experiences[i] = types.ScoredExperience{Experience: e, Relevance: Relevance(e.Text(), keywords), Index: i}
	}
	sort.SliceStable(experiences, func(i, j int) bool {
		return experiences[i].Relevance > experiences[j].Relevance
	})

	projects := make([]types.ScoredProject, len(profile.Projects))
	for i, p := range profile.Projects {
		projects[i] = types.ScoredProject{Project: p, Relevance: Relevance(p.Text(), keywords), Index: i}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Relevance > projects[j].Relevance
	})

	out.Experiences = pick(experiences, opts.MaxExperiences, func(e types.ScoredExperience) bool {
		return e.Relevance > opts.MinRelevance
	})
	out.Projects = pick(projects, opts.MaxProjects, func(p types.ScoredProject) bool {
		return p.Relevance > opts.MinRelevance
	})
	return out
}

// pick takes up to limit entries that pass the floor, then fills the
// remaining slots with the best entries that did not, keeping rank order.
func pick[T any](ranked []T, limit int, aboveFloor func(T) bool) []T {
	chosen := make([]bool, len(ranked))
	count := 0
	for i, entry := range ranked {
		if count == limit {
			break
		}
		if aboveFloor(entry) {
			chosen[i] = true
			count++
		}
	}
	for i := range ranked {
		if count == limit {
			break
		}
		if !chosen[i] {
			chosen[i] = true
			count++
		}
	}

	out := make([]T, 0, count)
	for i, entry := range ranked {
		if chosen[i] {
			out = append(out, entry)
		}
	}
	return out
}
