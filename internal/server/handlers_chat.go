package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-builder/internal/conversation"
	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
)

// maxChatBody bounds a chat request; pasted resumes are plain text.
const maxChatBody = 1 << 20

// Error codes reported with a recoverable turn failure.
const (
	codeExtractionFailed = "extraction_failed"
	codeAnalysisFailed   = "analysis_failed"
	codeTemplateFailed   = "template_failed"
	codeTurnFailed       = "turn_failed"
)

// ThreadListResponse represents the response for GET /chat/threads
type ThreadListResponse struct {
	Threads []types.ThreadSummary `json:"threads"`
	Count   int                   `json:"count"`
}

// handleChatMessage runs one conversation turn for the authenticated user.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	var req types.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.failure(w, r, validationError(err))
		return
	}

	result, err := s.engine.ProcessTurn(r.Context(), conversation.TurnRequest{
		ThreadID: req.ThreadID,
		UserID:   uid,
		Message:  req.Message,
	})
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, chatResponse(result))
}

func chatResponse(result *conversation.TurnResult) types.ChatResponse {
	resp := types.ChatResponse{
		ThreadID:     result.ThreadID,
		Response:     result.Response,
		Stage:        result.Stage,
		ATS:          result.ATS,
		DocumentText: result.DocumentText,
		BinaryRef:    result.BinaryRef,
		ErrorCode:    errorCode(result.Err),
	}
	if result.ATS != nil {
		score := result.ATS.Score
		resp.ATSScore = &score
	}
	return resp
}

func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var (
		extractErr  *extraction.ExtractionError
		analysisErr *parsing.AnalysisError
		templateErr *rendering.TemplateError
	)
	switch {
	case errors.As(err, &extractErr):
		return codeExtractionFailed
	case errors.As(err, &analysisErr):
		return codeAnalysisFailed
	case errors.As(err, &templateErr):
		return codeTemplateFailed
	default:
		return codeTurnFailed
	}
}

// validationError reports the first failing field of a request.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: "failed '" + verrs[0].Tag() + "' check"}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// handleListThreads returns the user's thread summaries.
func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	threads, err := s.engine.ListThreads(r.Context(), uid)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if threads == nil {
		threads = []types.ThreadSummary{}
	}

	s.jsonResponse(w, http.StatusOK, ThreadListResponse{Threads: threads, Count: len(threads)})
}

// handleGetThread returns the full state of one thread.
func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	state, err := s.engine.GetThread(r.Context(), uid, r.PathValue("thread_id"))
	if err != nil {
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, state)
}

// handleDeleteThread deletes one thread.
func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		s.failure(w, r, err)
		return
	}

	if err := s.engine.DeleteThread(r.Context(), uid, r.PathValue("thread_id")); err != nil {
		s.failure(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
