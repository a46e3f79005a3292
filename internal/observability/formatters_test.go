package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonathan/resume-builder/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintJobRequirement(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobRequirement(&types.JobRequirement{
		Title:           "Senior Engineer",
		Organization:    "Acme Corp",
		ExperienceLevel: "senior",
		Keywords:        []string{"Go", "Kubernetes"},
		NiceToHave:      []string{"Rust"},
	})
	output := buf.String()

	assert.Contains(t, output, "JOB REQUIREMENT")
	assert.Contains(t, output, "Acme Corp")
	assert.Contains(t, output, "Senior Engineer")
	assert.Contains(t, output, "• Kubernetes")
	assert.Contains(t, output, "• Rust")
}

func TestPrinter_NilInputsPrintNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintProfile(nil)
	p.PrintJobRequirement(nil)
	p.PrintSelection(nil)
	p.PrintSelection(&types.SelectedContent{})
	p.PrintATS(nil)
	p.PrintState(nil)

	assert.Empty(t, buf.String())
}

func TestPrintSelection(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSelection(&types.SelectedContent{
		Experiences: []types.ScoredExperience{
			{Experience: types.Experience{Title: "Engineer", Organization: "Acme"}, Relevance: 66.7},
		},
		Projects: []types.ScoredProject{
			{Project: types.Project{Name: "kvstore"}, Relevance: 50},
		},
	})
	output := buf.String()

	assert.Contains(t, output, "SELECTED CONTENT")
	assert.Contains(t, output, "66.7  Engineer, Acme")
	assert.Contains(t, output, "50.0  kvstore")
}

func TestPrintATS_TruncatesLongLists(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	missing := make([]string, 14)
	for i := range missing {
		missing[i] = strings.Repeat("k", i+1)
	}
	p.PrintATS(&types.AtsResult{Score: 40, Label: "fair", Matched: []string{"go"}, Missing: missing})
	output := buf.String()

	assert.Contains(t, output, "Score:  40.0 (fair)")
	assert.Contains(t, output, "• go")
	assert.Contains(t, output, "... and 4 more")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobRequirement(&types.JobRequirement{Title: strings.Repeat("x", 200)})

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth, line)
	}
	assert.Contains(t, buf.String(), "...")
}

func TestPrintState(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintState(&types.ConversationState{
		Profile: &types.UserProfile{
			Contact: types.Contact{Name: "Jane Doe"},
			Skills:  map[string][]string{"languages": {"Go"}},
		},
		Job: &types.JobRequirement{Title: "Backend Engineer"},
		ATS: &types.AtsResult{Score: 100},
	})
	output := buf.String()

	assert.Contains(t, output, "PROFILE")
	assert.Contains(t, output, "Languages: Go")
	assert.Contains(t, output, "JOB REQUIREMENT")
	assert.NotContains(t, output, "SELECTED CONTENT")
	assert.Contains(t, output, "ATS SCORE")
}
