package rendering

import (
	"embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/jonathan/resume-builder/internal/types"
)

//go:embed templates/resume.tex
var templateFS embed.FS

// DefaultTemplateName is the embedded template used when no path is configured.
const DefaultTemplateName = "templates/resume.tex"

// Template delimiters. LaTeX uses braces heavily, so placeholders are
// written as <<.NAME>> instead of the text/template default.
const (
	leftDelim  = "<<"
	rightDelim = ">>"
)

// missingKeyPattern extracts the key from text/template's missingkey=error message.
var missingKeyPattern = regexp.MustCompile(`map has no entry for key "([^"]+)"`)

// Synthesizer fills a LaTeX template with escaped profile content.
type Synthesizer struct {
	tmpl *template.Template
}

// NewSynthesizer parses the template at templatePath, or the embedded
// default when templatePath is empty.
func NewSynthesizer(templatePath string) (*Synthesizer, error) {
	content, err := readTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	return NewSynthesizerFromString(content)
}

// NewSynthesizerFromString parses template source directly.
func NewSynthesizerFromString(content string) (*Synthesizer, error) {
	tmpl, err := template.New("resume").
		Delims(leftDelim, rightDelim).
		Option("missingkey=error").
		Parse(content)
	if err != nil {
		return nil, &TemplateError{
			Message: "failed to parse template",
			Cause:   err,
		}
	}
	return &Synthesizer{tmpl: tmpl}, nil
}

func readTemplate(templatePath string) (string, error) {
	if templatePath == "" {
		data, err := templateFS.ReadFile(DefaultTemplateName)
		if err != nil {
			return "", &TemplateError{Message: "embedded template missing", Cause: err}
		}
		return string(data), nil
	}

	data, err := os.ReadFile(templatePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &TemplateError{
				Message: fmt.Sprintf("template file not found: %s", templatePath),
				Cause:   err,
			}
		}
		return "", &TemplateError{
			Message: fmt.Sprintf("failed to read template file: %s", templatePath),
			Cause:   err,
		}
	}
	return string(data), nil
}

// Synthesize renders the document for profile using the entries in
// selected, in selection order. A nil selection renders every profile entry
// in profile order. Every user-supplied value is escaped and otherwise left
// untouched.
func (s *Synthesizer) Synthesize(profile *types.UserProfile, selected *types.SelectedContent) (string, error) {
	if profile == nil {
		return "", &TemplateError{Message: "no profile to render"}
	}

	var out strings.Builder
	if err := s.tmpl.Execute(&out, buildTemplateData(profile, selected)); err != nil {
		te := &TemplateError{Message: "failed to execute template", Cause: err}
		if m := missingKeyPattern.FindStringSubmatch(err.Error()); m != nil {
			te.Message = "unresolved placeholder"
			te.Placeholder = m[1]
		}
		return "", te
	}

	return out.String(), nil
}

// buildTemplateData maps the profile onto the placeholder names the
// template expects. Entry blocks are lists of maps so that a misspelled
// placeholder inside a block fails just like a top-level one.
func buildTemplateData(profile *types.UserProfile, selected *types.SelectedContent) map[string]any {
	c := profile.Contact
	data := map[string]any{
		"FULL_NAME":     EscapeLaTeX(c.Name),
		"EMAIL":         EscapeLaTeX(c.Email),
		"PHONE":         EscapeLaTeX(c.Phone),
		"LOCATION":      EscapeLaTeX(c.Location),
		"LINKEDIN_URL":  EscapeLaTeX(c.LinkedIn),
		"GITHUB_URL":    EscapeLaTeX(c.GitHub),
		"PORTFOLIO_URL": EscapeLaTeX(c.Portfolio),
	}

	education := make([]map[string]any, 0, len(profile.Education))
	for _, e := range profile.Education {
		education = append(education, map[string]any{
			"INSTITUTION": EscapeLaTeX(e.Institution),
			"LOCATION":    EscapeLaTeX(e.Location),
			"DEGREE":      EscapeLaTeX(e.Degree),
			"GPA":         EscapeLaTeX(e.GPA),
			"DATES":       EscapeLaTeX(e.Dates),
		})
	}
	data["EDUCATION"] = education

	experiences, projects := entriesFor(profile, selected)

	experience := make([]map[string]any, 0, len(experiences))
	for _, e := range experiences {
		experience = append(experience, map[string]any{
			"TITLE":        EscapeLaTeX(e.Title),
			"ORGANIZATION": EscapeLaTeX(e.Organization),
			"LOCATION":     EscapeLaTeX(e.Location),
			"DATES":        EscapeLaTeX(e.Dates),
			"BULLETS":      EscapeAll(e.Bullets),
		})
	}
	data["EXPERIENCE"] = experience

	project := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		project = append(project, map[string]any{
			"NAME":         EscapeLaTeX(p.Name),
			"TECHNOLOGIES": strings.Join(EscapeAll(p.Technologies), ", "),
			"DATES":        EscapeLaTeX(p.Dates),
			"BULLETS":      EscapeAll(p.Bullets),
		})
	}
	data["PROJECTS"] = project

	categories := profile.SkillCategories()
	skills := make([]map[string]any, 0, len(categories))
	for _, cat := range categories {
		skills = append(skills, map[string]any{
			"CATEGORY": EscapeLaTeX(cat.DisplayName()),
			"ITEMS":    strings.Join(EscapeAll(cat.Skills), ", "),
		})
	}
	data["SKILLS"] = skills

	awards := make([]map[string]any, 0, len(profile.Awards))
	for _, a := range profile.Awards {
		awards = append(awards, map[string]any{
			"TITLE":       EscapeLaTeX(a.Title),
			"DESCRIPTION": EscapeLaTeX(a.Description),
		})
	}
	data["AWARDS"] = awards

	return data
}

func entriesFor(profile *types.UserProfile, selected *types.SelectedContent) ([]types.Experience, []types.Project) {
	if selected == nil {
		return profile.Experience, profile.Projects
	}

	experiences := make([]types.Experience, 0, len(selected.Experiences))
	for _, e := range selected.Experiences {
		experiences = append(experiences, e.Experience)
	}
	projects := make([]types.Project, 0, len(selected.Projects))
	for _, p := range selected.Projects {
		projects = append(projects, p.Project)
	}
	return experiences, projects
}
