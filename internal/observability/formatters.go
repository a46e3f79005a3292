// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// writeList appends up to limit items under heading, with a trailing
// "... and N more" line when the list is longer.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	for _, item := range items[:min(len(items), limit)] {
		fmt.Fprintf(sb, "  • %s\n", item)
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
}

// PrintProfile outputs a short summary of an extracted profile.
func (p *Printer) PrintProfile(profile *types.UserProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:        %s\n", profile.Contact.Name)
	fmt.Fprintf(&sb, "Experience:  %d entries\n", len(profile.Experience))
	fmt.Fprintf(&sb, "Projects:    %d entries\n", len(profile.Projects))
	fmt.Fprintf(&sb, "Education:   %d entries\n", len(profile.Education))

	cats := profile.SkillCategories()
	if len(cats) > 0 {
		sb.WriteString("\n")
		for _, c := range cats {
			fmt.Fprintf(&sb, "%s: %s\n", c.DisplayName(), strings.Join(c.Skills, ", "))
		}
	}

	p.printBox("PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobRequirement outputs a human-readable summary of the analyzed job.
func (p *Printer) PrintJobRequirement(job *types.JobRequirement) {
	if job == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Role:          %s\n", job.Title)
	if job.Organization != "" {
		fmt.Fprintf(&sb, "Organization:  %s\n", job.Organization)
	}
	if job.ExperienceLevel != "" {
		fmt.Fprintf(&sb, "Level:         %s\n", job.ExperienceLevel)
	}
	sb.WriteString("\n")

	writeList(&sb, "Keywords", job.Keywords, maxItemsToShow*2)
	writeList(&sb, "Nice-to-haves", job.NiceToHave, 3)

	p.printBox("JOB REQUIREMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSelection outputs the selected entries with their relevance.
func (p *Printer) PrintSelection(selected *types.SelectedContent) {
	if selected.IsEmpty() {
		return
	}

	var sb strings.Builder
	if len(selected.Experiences) > 0 {
		sb.WriteString("Experience:\n")
		for _, e := range selected.Experiences[:min(len(selected.Experiences), maxItemsToShow)] {
			fmt.Fprintf(&sb, "  %5.1f  %s, %s\n", e.Relevance, e.Title, e.Organization)
		}
	}
	if len(selected.Projects) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Projects:\n")
		for _, pr := range selected.Projects[:min(len(selected.Projects), maxItemsToShow)] {
			fmt.Fprintf(&sb, "  %5.1f  %s\n", pr.Relevance, pr.Name)
		}
	}

	p.printBox("SELECTED CONTENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintATS outputs the keyword coverage of the generated document.
func (p *Printer) PrintATS(ats *types.AtsResult) {
	if ats == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Score:  %.1f", ats.Score)
	if ats.Label != "" {
		fmt.Fprintf(&sb, " (%s)", ats.Label)
	}
	sb.WriteString("\n\n")
	writeList(&sb, "Matched", ats.Matched, maxItemsToShow*2)
	writeList(&sb, "Missing", ats.Missing, maxItemsToShow*2)

	p.printBox("ATS SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintState outputs every populated part of a conversation state.
func (p *Printer) PrintState(state *types.ConversationState) {
	if state == nil {
		return
	}
	p.PrintProfile(state.Profile)
	p.PrintJobRequirement(state.Job)
	p.PrintSelection(state.Selected)
	p.PrintATS(state.ATS)
}
