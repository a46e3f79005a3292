package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSections(t *testing.T) {
	assert.Equal(t, []string{
		SectionAwards,
		SectionContact,
		SectionEducation,
		SectionExperience,
		SectionProjects,
		SectionSkills,
	}, Sections())
}

func TestValidateSection(t *testing.T) {
	tests := []struct {
		name    string
		section string
		json    string
		wantErr bool
	}{
		{"contact valid", SectionContact, `{"full_name": "Ada", "email": "ada@example.com"}`, false},
		{"contact wrong type", SectionContact, `{"full_name": 42}`, true},
		{"contact not an object", SectionContact, `["Ada"]`, true},
		{"experience valid", SectionExperience, `[{"title": "Engineer", "organization": "Acme", "bullets": ["Built things"]}]`, false},
		{"experience missing title", SectionExperience, `[{"organization": "Acme"}]`, false},
		{"experience empty title", SectionExperience, `[{"title": ""}]`, false},
		{"experience title not a string", SectionExperience, `[{"title": 7}]`, true},
		{"experience bullets not strings", SectionExperience, `[{"title": "Engineer", "bullets": [1, 2]}]`, true},
		{"experience empty list", SectionExperience, `[]`, false},
		{"projects valid", SectionProjects, `[{"name": "CLI", "technologies": ["Go"]}]`, false},
		{"projects technologies string", SectionProjects, `[{"name": "CLI", "technologies": "Go"}]`, true},
		{"education valid", SectionEducation, `[{"institution": "MIT", "degree": "B.S."}]`, false},
		{"skills valid", SectionSkills, `{"languages": ["Go", "SQL"], "tools": []}`, false},
		{"skills not lists", SectionSkills, `{"languages": "Go, SQL"}`, true},
		{"awards valid", SectionAwards, `[{"title": "Dean's List"}]`, false},
		{"projects missing name", SectionProjects, `[{"technologies": ["Go"]}]`, false},
		{"malformed json", SectionContact, `{ invalid json }`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSection(tt.section, []byte(tt.json))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			validationErr, ok := err.(*ValidationError)
			require.True(t, ok, "error should be ValidationError type, got %T", err)
			assert.Equal(t, tt.section, validationErr.Section)
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidateSection_UnknownSection(t *testing.T) {
	err := ValidateSection("hobbies", []byte(`[]`))
	require.Error(t, err)

	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok, "error should be SchemaLoadError type")
}

func TestValidateJSONString(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}}
	}`

	assert.NoError(t, ValidateJSONString(schemaContent, `{"name": "test"}`))

	err := ValidateJSONString(schemaContent, `{"other": "test"}`)
	require.Error(t, err)
	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, validationErr.Error(), "name")
}

func TestValidateJSONString_InvalidSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)
	_, ok := err.(*SchemaLoadError)
	assert.True(t, ok)
}
