// Package schemas provides JSON Schema validation for the sections of an
// extracted profile.
package schemas

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed profile/*.schema.json
var schemaFiles embed.FS

// Profile sections with a schema.
const (
	SectionContact    = "contact"
	SectionEducation  = "education"
	SectionExperience = "experience"
	SectionProjects   = "projects"
	SectionSkills     = "technical_skills"
	SectionAwards     = "awards"
)

var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Section string
	Errors  []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	if ve.Section != "" {
		sb.WriteString(fmt.Sprintf("validation failed for %s:\n", ve.Section))
	} else {
		sb.WriteString("validation failed:\n")
	}
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Sections lists the profile sections that have a schema, in name order.
func Sections() []string {
	entries, err := schemaFiles.ReadDir("profile")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".schema.json"))
	}
	sort.Strings(out)
	return out
}

// ValidateSection validates the raw JSON of one profile section against
// its embedded schema.
func ValidateSection(section string, raw []byte) error {
	schema, err := sectionSchema(section)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{
			Section: section,
			Errors:  []FieldError{{Field: "(root)", Message: err.Error()}},
		}
	}
	return toValidationError(section, result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}
	return toValidationError("", result)
}

func sectionSchema(section string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[section]; ok {
		return s, nil
	}

	file := path.Join("profile", section+".schema.json")
	data, err := schemaFiles.ReadFile(file)
	if err != nil {
		return nil, &SchemaLoadError{Path: file, Message: "unknown section", Cause: err}
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &SchemaLoadError{Path: file, Message: "invalid schema", Cause: err}
	}
	compiled[section] = s
	return s, nil
}

func toValidationError(section string, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Section: section,
		Errors:  make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
