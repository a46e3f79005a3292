//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile_SkillCategories(t *testing.T) {
	p := &UserProfile{Skills: map[string][]string{
		"libraries":    {"NumPy"},
		"cloud":        {"AWS"},
		"languages":    {"Go", "Python"},
		"frameworks":   {},
		"certificates": {"CKA"},
	}}

	cats := p.SkillCategories()
	require.Len(t, cats, 4)
	assert.Equal(t, "languages", cats[0].Name)
	assert.Equal(t, "libraries", cats[1].Name)
	assert.Equal(t, "certificates", cats[2].Name)
	assert.Equal(t, "cloud", cats[3].Name)

	assert.Nil(t, (*UserProfile)(nil).SkillCategories())
}

func TestSkillCategory_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{name: "developer_tools", want: "Developer Tools"},
		{name: "languages", want: "Languages"},
		{name: "éléments_clés", want: "Éléments Clés"},
		{name: "  spaced__out ", want: "Spaced Out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkillCategory{Name: tt.name}.DisplayName()
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestUserProfile_IsEmpty(t *testing.T) {
	assert.True(t, (*UserProfile)(nil).IsEmpty())
	assert.True(t, (&UserProfile{}).IsEmpty())
	assert.False(t, (&UserProfile{Contact: Contact{Name: "Ada"}}).IsEmpty())
	assert.False(t, (&UserProfile{Projects: []Project{{Name: "x"}}}).IsEmpty())
}

func TestSelectedContent_Text(t *testing.T) {
	s := &SelectedContent{
		Experiences: []ScoredExperience{{Experience: Experience{Title: "Engineer", Organization: "Acme", Bullets: []string{"Built Python, AWS"}}}},
		Projects:    []ScoredProject{{Project: Project{Name: "Tool", Technologies: []string{"Docker"}}}},
	}

	text := s.Text()
	assert.Contains(t, text, "Engineer")
	assert.Contains(t, text, "Built Python, AWS")
	assert.Contains(t, text, "Docker")
	assert.False(t, s.IsEmpty())
	assert.True(t, (&SelectedContent{}).IsEmpty())
	assert.Equal(t, "", (*SelectedContent)(nil).Text())
}
