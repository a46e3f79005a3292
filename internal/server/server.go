// Package server provides the HTTP REST API for the resume builder.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/conversation"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/server/middleware"
	"github.com/jonathan/resume-builder/internal/server/ratelimit"
	"github.com/jonathan/resume-builder/internal/storage"
	"github.com/jonathan/resume-builder/internal/types"
)

// ChatEngine is the conversation surface the server drives.
type ChatEngine interface {
	ProcessTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error)
	GetThread(ctx context.Context, userID, threadID string) (*types.ConversationState, error)
	ListThreads(ctx context.Context, userID string) ([]types.ThreadSummary, error)
	DeleteThread(ctx context.Context, userID, threadID string) error
}

// Deps are the collaborators the server needs.
type Deps struct {
	Engine    ChatEngine
	Profiles  db.ProfileRepository
	Resumes   db.ResumeRepository
	Documents storage.ObjectStorage
	JWT       *JWTService
	// Limiter overrides the limiter built from the server config.
	Limiter *ratelimit.Limiter
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	engine      ChatEngine
	profiles    db.ProfileRepository
	resumes     db.ResumeRepository
	documents   storage.ObjectStorage
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	origins     []string
	log         zerolog.Logger
}

// New creates a new server instance
func New(cfg config.ServerConfig, deps Deps, log *zerolog.Logger) (*Server, error) {
	switch {
	case deps.Engine == nil:
		return nil, fmt.Errorf("server: chat engine is required")
	case deps.Profiles == nil || deps.Resumes == nil:
		return nil, fmt.Errorf("server: profile and resume repositories are required")
	case deps.JWT == nil:
		return nil, fmt.Errorf("server: JWT service is required")
	}

	logger := zerolog.Nop()
	if log != nil {
		logger = log.With().Str("component", "server").Logger()
	}

	s := &Server{
		engine:      deps.Engine,
		profiles:    deps.Profiles,
		resumes:     deps.Resumes,
		documents:   deps.Documents,
		jwtService:  deps.JWT,
		rateLimiter: deps.Limiter,
		origins:     cfg.AllowedOrigins,
		log:         logger,
	}
	if s.rateLimiter == nil {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig(cfg.RequestsPerMinute, cfg.Burst))
	}

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Conversation endpoints
	mux.Handle("POST /chat/message", protected(s.handleChatMessage))
	mux.Handle("GET /chat/threads", protected(s.handleListThreads))
	mux.Handle("GET /chat/threads/{thread_id}", protected(s.handleGetThread))
	mux.Handle("DELETE /chat/threads/{thread_id}", protected(s.handleDeleteThread))

	// Resume history endpoints
	mux.Handle("GET /resumes", protected(s.handleListResumes))
	mux.Handle("GET /resumes/{id}", protected(s.handleGetResume))
	mux.Handle("GET /resumes/{id}/pdf", protected(s.handleGetResumePDF))

	// Profile endpoints
	mux.Handle("GET /profile/me", protected(s.handleGetProfile))
	mux.Handle("DELETE /profile/me", protected(s.handleDeleteProfile))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))

	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		// A turn can run two LLM calls back to back.
		writeTimeout = 300 * time.Second
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	s.rateLimiter.Stop()
	s.log.Info().Msg("server stopped")
	return nil
}

// withCORS adds CORS headers for the configured origins. An empty list
// allows any origin.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	if len(s.origins) == 0 {
		return "*"
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) {
			return o
		}
	}
	return ""
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)

		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ev := s.log.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = s.log.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// failure maps err to a status and writes it. Server errors are logged and
// their details kept out of the response.
func (s *Server) failure(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		s.errorResponse(w, status, http.StatusText(status))
		return
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		retry := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = retry
		w.Header().Set("Retry-After", strconv.Itoa(retry))
	}

	s.log.Warn().
		Int("limit", info.Limit).
		Time("reset", info.ResetTime).
		Msg("rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// userID returns the authenticated user's id as stored by the engine.
func userID(r *http.Request) (string, error) {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return "", conversation.ErrMissingUser
	}
	return id.String(), nil
}
