// Package extraction turns pasted resume text into a structured UserProfile.
package extraction

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/prompts"
	"github.com/jonathan/resume-builder/internal/schemas"
	"github.com/jonathan/resume-builder/internal/types"
)

// DefaultMinResumeLength is the shortest trimmed input, in runes, that is
// sent to the completion service.
const DefaultMinResumeLength = 100

// skillCategoryHint lists the skill map keys the prompt asks for.
const skillCategoryHint = "languages|frameworks|developer_tools|libraries"

// Completer is the part of the text extraction adapter the extractor needs.
type Completer interface {
	Complete(ctx context.Context, instruction, input string) (llm.Document, error)
}

// Extractor builds profiles from resume text.
type Extractor struct {
	adapter   Completer
	minLength int
	log       zerolog.Logger
}

// NewExtractor creates an extractor. A non-positive minLength uses
// DefaultMinResumeLength.
func NewExtractor(adapter Completer, minLength int, log *zerolog.Logger) *Extractor {
	if minLength <= 0 {
		minLength = DefaultMinResumeLength
	}
	l := zerolog.Nop()
	if log != nil {
		l = log.With().Str("component", "extraction").Logger()
	}
	return &Extractor{adapter: adapter, minLength: minLength, log: l}
}

// Extract converts resume text into a profile. Sections that fail schema
// validation are dropped individually; the profile is usable if it has a
// contact name or at least one experience entry.
func (x *Extractor) Extract(ctx context.Context, text string) (*types.UserProfile, error) {
	trimmed := strings.TrimSpace(text)
	if n := utf8.RuneCountInString(trimmed); n < x.minLength {
		return nil, &ExtractionError{
			Reason:  ReasonTooShort,
			Message: fmt.Sprintf("resume text has %d characters, need at least %d", n, x.minLength),
		}
	}

	instruction := prompts.Format(
		prompts.MustGet(prompts.ExtractionFile, prompts.ExtractProfileKey),
		map[string]string{"SkillCategories": skillCategoryHint},
	)

	doc, err := x.adapter.Complete(ctx, instruction, trimmed)
	if err != nil {
		return nil, &ExtractionError{
			Reason:  ReasonServiceUnavailable,
			Message: "text extraction service failed",
			Cause:   err,
		}
	}

	profile := x.buildProfile(doc)
	if profile.Contact.Name == "" && len(profile.Experience) == 0 {
		return nil, &ExtractionError{
			Reason:  ReasonNoUsableData,
			Message: "no name or work experience found in the resume",
		}
	}

	x.log.Info().
		Int("experience", len(profile.Experience)).
		Int("projects", len(profile.Projects)).
		Int("education", len(profile.Education)).
		Int("skill_categories", len(profile.Skills)).
		Msg("profile extracted")

	return profile, nil
}

// buildProfile decodes every section that passes its schema.
func (x *Extractor) buildProfile(doc llm.Document) *types.UserProfile {
	profile := &types.UserProfile{
		Education:  []types.Education{},
		Experience: []types.Experience{},
		Projects:   []types.Project{},
		Skills:     map[string][]string{},
	}

	var contact types.Contact
	if x.decodeSection(doc, schemas.SectionContact, &contact) {
		profile.Contact = cleanContact(contact)
	}

	var education []types.Education
	if x.decodeSection(doc, schemas.SectionEducation, &education) {
		for _, e := range education {
			e.Institution = strings.TrimSpace(e.Institution)
			if e.Institution == "" {
				continue
			}
			e.Location = strings.TrimSpace(e.Location)
			e.Degree = strings.TrimSpace(e.Degree)
			e.GPA = strings.TrimSpace(e.GPA)
			e.Dates = strings.TrimSpace(e.Dates)
			profile.Education = append(profile.Education, e)
		}
	}

	var experience []types.Experience
	if x.decodeSection(doc, schemas.SectionExperience, &experience) {
		for _, e := range experience {
			e.Title = strings.TrimSpace(e.Title)
			if e.Title == "" {
				continue
			}
			e.Organization = strings.TrimSpace(e.Organization)
			e.Location = strings.TrimSpace(e.Location)
			e.Dates = strings.TrimSpace(e.Dates)
			e.Bullets = cleanList(e.Bullets)
			profile.Experience = append(profile.Experience, e)
		}
	}

	var projects []types.Project
	if x.decodeSection(doc, schemas.SectionProjects, &projects) {
		for _, p := range projects {
			p.Name = strings.TrimSpace(p.Name)
			if p.Name == "" {
				continue
			}
			p.Technologies = cleanList(p.Technologies)
			p.Dates = strings.TrimSpace(p.Dates)
			p.Bullets = cleanList(p.Bullets)
			profile.Projects = append(profile.Projects, p)
		}
	}

	var skills map[string][]string
	if x.decodeSection(doc, schemas.SectionSkills, &skills) {
		categories := make([]string, 0, len(skills))
		for category := range skills {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			key := strings.ToLower(strings.Join(strings.Fields(category), "_"))
			if cleaned := cleanList(skills[category]); key != "" && len(cleaned) > 0 {
				profile.Skills[key] = append(profile.Skills[key], cleaned...)
			}
		}
	}

	var awards []types.Award
	if x.decodeSection(doc, schemas.SectionAwards, &awards) {
		for _, a := range awards {
			a.Title = strings.TrimSpace(a.Title)
			if a.Title == "" {
				continue
			}
			a.Description = strings.TrimSpace(a.Description)
			profile.Awards = append(profile.Awards, a)
		}
	}

	return profile
}

// decodeSection validates and decodes one section. Missing or invalid
// sections leave out untouched and report false.
func (x *Extractor) decodeSection(doc llm.Document, section string, out any) bool {
	if !doc.Has(section) {
		return false
	}
	if err := schemas.ValidateSection(section, doc[section]); err != nil {
		x.log.Warn().Str("section", section).Err(err).Msg("dropping invalid profile section")
		return false
	}
	return doc.Decode(section, out)
}

// cleanContact trims every field and drops emails and links that are not
// well formed.
func cleanContact(c types.Contact) types.Contact {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Location = strings.TrimSpace(c.Location)
	c.LinkedIn = normalizeURL(c.LinkedIn)
	c.GitHub = normalizeURL(c.GitHub)
	c.Portfolio = normalizeURL(c.Portfolio)

	for _, fe := range types.ValidateContact(c) {
		switch fe.StructField() {
		case "Email":
			c.Email = ""
		case "LinkedIn":
			c.LinkedIn = ""
		case "GitHub":
			c.GitHub = ""
		case "Portfolio":
			c.Portfolio = ""
		}
	}
	return c
}

// normalizeURL adds a scheme to bare links such as "github.com/ada".
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
