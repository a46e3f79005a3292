package server

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/resume-builder/internal/types"
)

const (
	defaultResumePage = 20
	maxResumePage     = 100
)

// ResumeListResponse represents the response for GET /resumes
type ResumeListResponse struct {
	Resumes []ResumeSummary `json:"resumes"`
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// ResumeSummary is the list view of an artifact; the LaTeX source is
// returned by GET /resumes/{id}.
type ResumeSummary struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	JobTitle     string    `json:"job_title,omitempty"`
	Organization string    `json:"organization,omitempty"`
	ATSScore     float64   `json:"ats_score"`
	HasPDF       bool      `json:"has_pdf"`
	CreatedAt    time.Time `json:"created_at"`
}

// handleListResumes returns the user's resume history, newest first.
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	limit, err := queryInt(r, "limit", defaultResumePage)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if limit <= 0 || limit > maxResumePage {
		limit = defaultResumePage
	}
	if offset < 0 {
		offset = 0
	}

	artifacts, err := s.resumes.ListResumes(r.Context(), uid, limit, offset)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	out := make([]ResumeSummary, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, ResumeSummary{
			ID:           a.ID,
			ThreadID:     a.ThreadID,
			JobTitle:     a.JobTitle,
			Organization: a.Organization,
			ATSScore:     a.ATS.Score,
			HasPDF:       a.BinaryRef != "",
			CreatedAt:    a.CreatedAt,
		})
	}

	s.jsonResponse(w, http.StatusOK, ResumeListResponse{
		Resumes: out,
		Count:   len(out),
		Limit:   limit,
		Offset:  offset,
	})
}

// handleGetResume returns one artifact with its LaTeX source.
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	artifact, ok := s.ownedResume(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, artifact)
}

// handleGetResumePDF streams the compiled document.
func (s *Server) handleGetResumePDF(w http.ResponseWriter, r *http.Request) {
	artifact, ok := s.ownedResume(w, r)
	if !ok {
		return
	}
	if artifact.BinaryRef == "" || s.documents == nil {
		s.failure(w, r, &ErrNotFound{Resource: "compiled document", ID: artifact.ID})
		return
	}

	body, err := s.documents.Get(r.Context(), artifact.BinaryRef)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="resume-`+artifact.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.log.Error().Err(err).Str("resume_id", artifact.ID).Msg("error streaming document")
	}
}

// ownedResume loads the artifact named in the path. Another user's
// artifact is reported as not found.
func (s *Server) ownedResume(w http.ResponseWriter, r *http.Request) (*types.ResumeArtifact, bool) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return nil, false
	}

	id := r.PathValue("id")
	artifact, err := s.resumes.GetResume(r.Context(), id)
	if err != nil {
		s.failure(w, r, err)
		return nil, false
	}
	if artifact == nil || artifact.UserID != uid {
		s.failure(w, r, &ErrNotFound{Resource: "resume", ID: id})
		return nil, false
	}
	return artifact, true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ErrValidation{Field: name, Message: "must be an integer"}
	}
	return v, nil
}
