package conversation

import (
	"fmt"
	"strings"

	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/types"
)

const msgRequestResume = "Welcome to the resume builder! I'll tailor an ATS-friendly resume to any job posting.\n\n" +
	"**Step 1:** paste your resume below. Plain text, LaTeX source or a detailed summary of your experience all work."

const msgResumeNotPosting = "That looks like a job posting. I need your resume first, then I'll ask for the posting.\n\n" +
	"Please paste your resume."

const msgRequestJob = "**Step 2:** paste the job description you're applying to. " +
	"Include the title, requirements, responsibilities and preferred skills. The more detail, the better the match."

const msgPostingNotResume = "That looks like a resume, and I already have your profile. " +
	"Please paste the job description you want to tailor it to."

const msgWelcomeBack = "Welcome back! Your profile is on file.\n\n" + msgRequestJob

const msgNextJob = "Want another one? Paste the next job description and I'll tailor your resume to it."

func profileSavedMessage(p *types.UserProfile) string {
	return fmt.Sprintf("**Profile extracted.** Found %d work experiences, %d projects and %d skill categories. "+
		"Your profile is saved.\n\n%s",
		len(p.Experience), len(p.Projects), len(p.SkillCategories()), msgRequestJob)
}

func extractionFailedMessage(err *extraction.ExtractionError) string {
	switch err.Reason {
	case extraction.ReasonTooShort:
		return fmt.Sprintf("That's too short to be a resume (%s). Please paste your full resume.", err.Message)
	case extraction.ReasonNoUsableData:
		return "I couldn't find your name or any work experience in that text. " +
			"Please paste a plain text version of your resume."
	default:
		return "The extraction service is unavailable right now. Please paste your resume again in a moment."
	}
}

func analysisFailedMessage(err *parsing.AnalysisError) string {
	switch err.Reason {
	case parsing.ReasonEmpty, parsing.ReasonTooShort:
		return fmt.Sprintf("That job description is too short (%s). Please paste the full posting.", err.Message)
	case parsing.ReasonNoKeywords:
		return "I couldn't find any skills or keywords in that posting. Please paste the full job description."
	default:
		return "The analysis service is unavailable right now. Please paste the job description again in a moment."
	}
}

const msgTemplateFailed = "Your content was analyzed but the document could not be rendered. " +
	"Send any message to try again."

func generatedMessage(job *types.JobRequirement, ats *types.AtsResult, binaryRef string) string {
	var b strings.Builder
	b.WriteString("**Resume generated")
	if job != nil && job.Title != "" {
		b.WriteString(" for ")
		b.WriteString(job.Title)
		if job.Organization != "" {
			b.WriteString(" at ")
			b.WriteString(job.Organization)
		}
	}
	b.WriteString(".**\n\n")
	fmt.Fprintf(&b, "**ATS score:** %.1f%% (%s). Matched %d of %d keywords.\n",
		ats.Score, ats.Label, len(ats.Matched), len(ats.Matched)+len(ats.Missing))
	if len(ats.Missing) > 0 {
		fmt.Fprintf(&b, "Missing keywords: %s\n", strings.Join(ats.Missing, ", "))
	}
	if binaryRef != "" {
		b.WriteString("\nYour PDF is ready to download.")
	} else {
		b.WriteString("\nPDF compilation is unavailable, so here is the LaTeX source. " +
			"Paste it into any LaTeX editor to build the PDF.")
	}
	b.WriteString("\n\n")
	b.WriteString(msgNextJob)
	return b.String()
}
