package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelevance(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     float64
	}{
		{name: "two of three", text: "Python, AWS", keywords: []string{"python", "aws", "docker"}, want: 66.7},
		{name: "all", text: "Go and Kubernetes", keywords: []string{"go", "kubernetes"}, want: 100},
		{name: "none", text: "Baking bread", keywords: []string{"go"}, want: 0},
		{name: "no keywords", text: "Python", keywords: nil, want: 0},
		{name: "phrase keyword", text: "Applied machine learning to ads", keywords: []string{"machine learning", "sql"}, want: 50},
		{name: "duplicate keywords", text: "go", keywords: []string{"go", "GO"}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Relevance(tt.text, tt.keywords))
		})
	}
}
