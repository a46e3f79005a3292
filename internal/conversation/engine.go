// Package conversation drives the resume tailoring workflow one user message
// at a time. Each turn loads the thread checkpoint, runs stage transitions
// until the workflow needs more input, and saves the result atomically.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/checkpoint"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/selection"
	"github.com/jonathan/resume-builder/internal/types"
)

// ProfileExtractor turns resume text into a profile.
type ProfileExtractor interface {
	Extract(ctx context.Context, text string) (*types.UserProfile, error)
}

// JobAnalyzer turns posting text into job requirements.
type JobAnalyzer interface {
	Analyze(ctx context.Context, text string) (*types.JobRequirement, error)
}

// DocumentSynthesizer renders the final document source.
type DocumentSynthesizer interface {
	Synthesize(profile *types.UserProfile, selected *types.SelectedContent) (string, error)
}

// DocumentCompiler builds a binary document from source and returns a
// reference to the stored result.
type DocumentCompiler interface {
	Compile(ctx context.Context, source, key string) (string, error)
}

// Deps are the collaborators of an Engine. Compiler and Publisher are
// optional.
type Deps struct {
	Store       checkpoint.Store
	Locker      checkpoint.Locker
	Profiles    db.ProfileRepository
	Resumes     db.ResumeRepository
	Extractor   ProfileExtractor
	Analyzer    JobAnalyzer
	Synthesizer DocumentSynthesizer
	Compiler    DocumentCompiler
	Publisher   events.Publisher
}

// Options tune an Engine.
type Options struct {
	Selection selection.Options
	// MaxHistory bounds the stored messages per thread. Zero keeps all.
	MaxHistory int
	// ThreadTTL is the idle time after which Prune removes a thread.
	ThreadTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// DefaultMaxHistory is the default message bound per thread.
const DefaultMaxHistory = 50

// DefaultThreadTTL is the default idle lifetime of a thread.
const DefaultThreadTTL = 30 * 24 * time.Hour

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		Selection:  selection.DefaultOptions(),
		MaxHistory: DefaultMaxHistory,
		ThreadTTL:  DefaultThreadTTL,
	}
}

// TurnRequest is one inbound user message. An empty ThreadID starts a new
// thread.
type TurnRequest struct {
	ThreadID string
	UserID   string
	Message  string
}

// TurnResult is the outcome of a turn. Err carries a recoverable failure
// the user was asked to correct; it is never a reason to retry the call.
type TurnResult struct {
	ThreadID     string
	Response     string
	Stage        types.Stage
	ATS          *types.AtsResult
	DocumentText *string
	BinaryRef    string
	ArtifactID   string
	Visited      []types.Stage
	Err          error
}

// Engine runs conversation turns.
type Engine struct {
	deps Deps
	opts Options
	log  zerolog.Logger
}

// NewEngine validates deps and returns an Engine.
func NewEngine(deps Deps, opts Options, log *zerolog.Logger) (*Engine, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("conversation engine: checkpoint store is required")
	case deps.Profiles == nil || deps.Resumes == nil:
		return nil, fmt.Errorf("conversation engine: profile and resume repositories are required")
	case deps.Extractor == nil || deps.Analyzer == nil || deps.Synthesizer == nil:
		return nil, fmt.Errorf("conversation engine: extractor, analyzer and synthesizer are required")
	}
	if deps.Locker == nil {
		deps.Locker = checkpoint.NewKeyedMutex()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ThreadTTL <= 0 {
		opts.ThreadTTL = DefaultThreadTTL
	}

	l := zerolog.Nop()
	if log != nil {
		l = log.With().Str("component", "conversation").Logger()
	}
	return &Engine{deps: deps, opts: opts, log: l}, nil
}

// ProcessTurn handles one user message. Recoverable failures are reported
// in TurnResult.Err together with a re-prompt. A returned error means the
// turn was rejected or could not be persisted; in that case no state was
// written.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUser
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	unlock, err := e.deps.Locker.Lock(ctx, threadID)
	if err != nil {
		return nil, &checkpoint.PersistenceError{Op: "lock", ThreadID: threadID, Cause: err}
	}
	defer unlock()

	now := e.opts.Now().UTC()
	state, err := e.deps.Store.Load(ctx, threadID)
	fresh := false
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		state = types.NewConversationState(threadID, req.UserID, now)
		fresh = true
	case err != nil:
		return nil, err
	case state.UserID != req.UserID:
		return nil, ErrThreadForbidden
	}

	log := e.log.With().Str("thread_id", threadID).Str("user_id", req.UserID).Logger()
	start := state.Stage

	state.AppendMessage(types.RoleUser, req.Message, now, e.opts.MaxHistory)

	t := &turn{
		engine:  e,
		state:   state,
		message: req.Message,
		kind:    Classify(req.Message),
		log:     log,
		result:  &TurnResult{ThreadID: threadID},
	}
	if fresh {
		t.result.Visited = append(t.result.Visited, state.Stage)
	}
	if err := t.run(ctx); err != nil {
		log.Error().Err(err).Str("stage", string(state.Stage)).Msg("turn failed")
		return nil, err
	}

	state.AppendMessage(types.RoleAssistant, t.result.Response, e.opts.Now().UTC(), e.opts.MaxHistory)
	state.UpdatedAt = e.opts.Now().UTC()

	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("conversation engine produced an invalid state: %w", err)
	}
	if err := e.deps.Store.Save(ctx, state); err != nil {
		log.Error().Err(err).Msg("checkpoint save failed")
		return nil, err
	}

	t.result.Stage = state.Stage
	if state.ATS != nil {
		ats := *state.ATS
		t.result.ATS = &ats
	}

	log.Info().
		Str("from", string(start)).
		Str("to", string(state.Stage)).
		Str("kind", t.kind.String()).
		Bool("recoverable_error", t.result.Err != nil).
		Msg("turn processed")
	return t.result, nil
}

// GetThread returns the full state of one of the user's threads.
func (e *Engine) GetThread(ctx context.Context, userID, threadID string) (*types.ConversationState, error) {
	state, err := e.deps.Store.Load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, err
	}
	if state.UserID != userID {
		return nil, ErrThreadForbidden
	}
	return state, nil
}

// ListThreads returns the user's thread summaries, most recent first.
func (e *Engine) ListThreads(ctx context.Context, userID string) ([]types.ThreadSummary, error) {
	return e.deps.Store.ListByUser(ctx, userID)
}

// DeleteThread removes one of the user's threads.
func (e *Engine) DeleteThread(ctx context.Context, userID, threadID string) error {
	unlock, err := e.deps.Locker.Lock(ctx, threadID)
	if err != nil {
		return &checkpoint.PersistenceError{Op: "lock", ThreadID: threadID, Cause: err}
	}
	defer unlock()

	if _, err := e.GetThread(ctx, userID, threadID); err != nil {
		return err
	}
	err = e.deps.Store.Delete(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return ErrThreadNotFound
	}
	return err
}

// Prune removes threads idle for longer than the configured TTL.
func (e *Engine) Prune(ctx context.Context) (int, error) {
	cutoff := e.opts.Now().UTC().Add(-e.opts.ThreadTTL)
	n, err := e.deps.Store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.log.Info().Int("removed", n).Time("cutoff", cutoff).Msg("pruned idle threads")
	}
	return n, nil
}
