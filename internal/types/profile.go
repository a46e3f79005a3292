// Package types provides type definitions for structured data used throughout the resume builder.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// UserProfile is the structured form of a pasted resume. It is keyed by the
// owning user and is never edited after extraction, only replaced or deleted.
type UserProfile struct {
	Contact    Contact             `json:"contact"`
	Education  []Education         `json:"education"`
	Experience []Experience        `json:"experience"`
	Projects   []Project           `json:"projects"`
	Skills     map[string][]string `json:"technical_skills"`
	Awards     []Award             `json:"awards,omitempty"`
}

// Contact holds the header fields of a resume. Every field is optional.
type Contact struct {
	Name      string `json:"full_name"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty" validate:"omitempty,url"`
	GitHub    string `json:"github,omitempty" validate:"omitempty,url"`
	Portfolio string `json:"portfolio,omitempty" validate:"omitempty,url"`
}

// Education is a single degree entry
type Education struct {
	Institution string `json:"institution"`
	Location    string `json:"location,omitempty"`
	Degree      string `json:"degree"`
	GPA         string `json:"gpa,omitempty"`
	Dates       string `json:"dates,omitempty"`
}

// Experience is a single work history entry
type Experience struct {
	Title        string   `json:"title"`
	Organization string   `json:"organization"`
	Location     string   `json:"location,omitempty"`
	Dates        string   `json:"dates,omitempty"`
	Bullets      []string `json:"bullets"`
}

// Project is a single project entry
type Project struct {
	Name         string   `json:"name"`
	Technologies []string `json:"technologies"`
	Dates        string   `json:"dates,omitempty"`
	Bullets      []string `json:"bullets"`
}

// Award is an optional honor or recognition
type Award struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// SkillCategory is one rendered row of the skills section
type SkillCategory struct {
	Name   string
	Skills []string
}

// skillCategoryOrder fixes the position of the well-known categories.
var skillCategoryOrder = []string{"languages", "frameworks", "developer_tools", "libraries"}

// IsEmpty reports whether the profile carries no usable content.
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Contact.Name == "" && len(p.Experience) == 0 && len(p.Projects) == 0 && len(p.Education) == 0
}

// SkillCategories returns the skill map as an ordered list. Well-known
// categories come first, remaining ones follow in name order. Empty
// categories are skipped.
func (p *UserProfile) SkillCategories() []SkillCategory {
	if p == nil || len(p.Skills) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(p.Skills))
	var out []SkillCategory
	for _, name := range skillCategoryOrder {
		seen[name] = true
		if skills := p.Skills[name]; len(skills) > 0 {
			out = append(out, SkillCategory{Name: name, Skills: skills})
		}
	}

	var rest []string
	for name := range p.Skills {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if skills := p.Skills[name]; len(skills) > 0 {
			out = append(out, SkillCategory{Name: name, Skills: skills})
		}
	}
	return out
}

// DisplayName turns a category key such as "developer_tools" into "Developer Tools".
func (c SkillCategory) DisplayName() string {
	words := strings.Fields(strings.ReplaceAll(c.Name, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Text returns the searchable text of an experience entry: title,
// organization and bullets.
func (e Experience) Text() string {
	parts := make([]string, 0, len(e.Bullets)+2)
	parts = append(parts, e.Title, e.Organization)
	parts = append(parts, e.Bullets...)
	return strings.Join(parts, "\n")
}

// Text returns the searchable text of a project entry: name,
// technologies and bullets.
func (p Project) Text() string {
	parts := make([]string, 0, len(p.Bullets)+len(p.Technologies)+1)
	parts = append(parts, p.Name)
	parts = append(parts, p.Technologies...)
	parts = append(parts, p.Bullets...)
	return strings.Join(parts, "\n")
}
