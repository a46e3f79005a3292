package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/checkpoint"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/scoring"
	"github.com/jonathan/resume-builder/internal/selection"
	"github.com/jonathan/resume-builder/internal/storage"
	"github.com/jonathan/resume-builder/internal/types"
)

// turn is the working set of one ProcessTurn call.
type turn struct {
	engine  *Engine
	state   *types.ConversationState
	message string
	kind    MessageKind
	log     zerolog.Logger
	result  *TurnResult

	// consumed is set once the message has been used as input. A message
	// feeds at most one suspension point.
	consumed bool
}

// step runs the current stage. It returns false when the turn should stop
// at the current stage.
type step func(ctx context.Context) (bool, error)

// run advances the state machine until a stage stops the turn. Every stage
// change moves forward in canonical order except the DONE restart, which
// begins a new cycle.
func (t *turn) run(ctx context.Context) error {
	for {
		var s step
		switch t.state.Stage {
		case types.StageInit:
			s = t.init
		case types.StageAwaitResume:
			s = t.awaitResume
		case types.StageExtractingProfile:
			s = t.extractProfile
		case types.StageAwaitJobDescription:
			s = t.awaitJobDescription
		case types.StageAnalyzingJob:
			s = t.analyzeJob
		case types.StageSelectingContent:
			s = t.selectContent
		case types.StageScoringATS:
			s = t.scoreATS
		case types.StageSynthesizingDocument:
			s = t.synthesize
		case types.StageDone:
			s = t.restart
		default:
			return fmt.Errorf("thread %s is at unknown stage %q", t.state.ThreadID, t.state.Stage)
		}

		more, err := s(ctx)
		if err != nil || !more {
			return err
		}
	}
}

func (t *turn) enter(stage types.Stage) {
	t.state.Stage = stage
	t.result.Visited = append(t.result.Visited, stage)
}

func (t *turn) consume() { t.consumed = true }

func (t *turn) stop(response string) (bool, error) {
	t.result.Response = response
	return false, nil
}

func (t *turn) loadProfile(ctx context.Context) (*types.UserProfile, error) {
	p, err := t.engine.deps.Profiles.GetProfile(ctx, t.state.UserID)
	if err != nil {
		return nil, &checkpoint.PersistenceError{Op: "load profile", ThreadID: t.state.ThreadID, Cause: err}
	}
	return p, nil
}

// init routes a new thread on whether the user already has a profile.
func (t *turn) init(ctx context.Context) (bool, error) {
	profile, err := t.loadProfile(ctx)
	if err != nil {
		return false, err
	}
	return t.route(profile, msgRequestResume, msgWelcomeBack)
}

// route starts a cycle with or without a stored profile. Without a profile
// only a clear resume continues the turn. With one, anything but small talk
// is taken as the posting.
func (t *turn) route(profile *types.UserProfile, askResume, askJob string) (bool, error) {
	if profile == nil {
		t.state.Profile = nil
		if t.kind == KindResume {
			t.consume()
			t.enter(types.StageExtractingProfile)
			return true, nil
		}
		t.enter(types.StageAwaitResume)
		return t.stop(askResume)
	}

	t.state.Profile = profile
	t.enter(types.StageAwaitJobDescription)
	if t.kind != KindChatter && !IsLaTeXDocument(t.message) {
		t.consume()
		t.enter(types.StageAnalyzingJob)
		return true, nil
	}
	return t.stop(askJob)
}

func (t *turn) awaitResume(context.Context) (bool, error) {
	if t.consumed {
		return t.stop(msgRequestResume)
	}
	if t.kind == KindJobPosting {
		return t.stop(msgResumeNotPosting)
	}
	t.consume()
	t.enter(types.StageExtractingProfile)
	return true, nil
}

func (t *turn) extractProfile(ctx context.Context) (bool, error) {
	profile, err := t.engine.deps.Extractor.Extract(ctx, t.message)
	var xerr *extraction.ExtractionError
	switch {
	case errors.As(err, &xerr):
		t.log.Info().Str("reason", xerr.Reason).Msg("profile extraction rejected")
		t.result.Err = xerr
		t.state.Stage = types.StageAwaitResume
		return t.stop(extractionFailedMessage(xerr))
	case err != nil:
		return false, err
	}

	if err := t.engine.deps.Profiles.SaveProfile(ctx, t.state.UserID, profile); err != nil {
		return false, &checkpoint.PersistenceError{Op: "save profile", ThreadID: t.state.ThreadID, Cause: err}
	}
	t.state.Profile = profile
	t.enter(types.StageAwaitJobDescription)
	return t.stop(profileSavedMessage(profile))
}

func (t *turn) awaitJobDescription(context.Context) (bool, error) {
	if t.consumed {
		return t.stop(msgRequestJob)
	}
	if IsLaTeXDocument(t.message) {
		return t.stop(msgPostingNotResume)
	}
	t.consume()
	t.enter(types.StageAnalyzingJob)
	return true, nil
}

func (t *turn) analyzeJob(ctx context.Context) (bool, error) {
	job, err := t.engine.deps.Analyzer.Analyze(ctx, t.message)
	var aerr *parsing.AnalysisError
	switch {
	case errors.As(err, &aerr):
		t.log.Info().Str("reason", aerr.Reason).Msg("job analysis rejected")
		t.result.Err = aerr
		t.state.Stage = types.StageAwaitJobDescription
		return t.stop(analysisFailedMessage(aerr))
	case err != nil:
		return false, err
	}

	// a new posting supersedes everything derived from the previous one
	t.state.Job = job
	t.state.Selected = nil
	t.state.ATS = nil
	t.enter(types.StageSelectingContent)
	return true, nil
}

func (t *turn) selectContent(context.Context) (bool, error) {
	t.state.Selected = selection.Select(t.state.Profile, t.state.Job, t.engine.opts.Selection)
	t.log.Debug().
		Int("experiences", len(t.state.Selected.Experiences)).
		Int("projects", len(t.state.Selected.Projects)).
		Msg("content selected")
	t.enter(types.StageScoringATS)
	return true, nil
}

func (t *turn) scoreATS(context.Context) (bool, error) {
	ats := scoring.ScoreATS(t.state.Job, t.state.Selected)
	t.state.ATS = &ats
	t.enter(types.StageSynthesizingDocument)
	return true, nil
}

func (t *turn) synthesize(ctx context.Context) (bool, error) {
	doc, err := t.engine.deps.Synthesizer.Synthesize(t.state.Profile, t.state.Selected)
	var terr *rendering.TemplateError
	switch {
	case errors.As(err, &terr):
		t.log.Warn().Err(terr).Msg("document synthesis failed")
		t.result.Err = terr
		return t.stop(msgTemplateFailed)
	case err != nil:
		return false, err
	}

	artifact := &types.ResumeArtifact{
		ID:           uuid.NewString(),
		ThreadID:     t.state.ThreadID,
		UserID:       t.state.UserID,
		DocumentText: doc,
		ATS:          *t.state.ATS,
		CreatedAt:    t.engine.opts.Now().UTC(),
	}
	if t.state.Job != nil {
		artifact.JobTitle = t.state.Job.Title
		artifact.Organization = t.state.Job.Organization
	}
	artifact.BinaryRef = t.compile(ctx, doc, artifact)

	if err := t.engine.deps.Resumes.SaveResume(ctx, artifact); err != nil {
		return false, &checkpoint.PersistenceError{Op: "save resume", ThreadID: t.state.ThreadID, Cause: err}
	}
	t.publish(ctx, artifact)

	t.result.DocumentText = &doc
	t.result.BinaryRef = artifact.BinaryRef
	t.result.ArtifactID = artifact.ID
	t.enter(types.StageDone)
	return t.stop(generatedMessage(t.state.Job, t.state.ATS, artifact.BinaryRef))
}

// compile returns the stored PDF reference, or "" when compilation is not
// configured or failed. Failures degrade the turn to source-only output.
func (t *turn) compile(ctx context.Context, doc string, artifact *types.ResumeArtifact) string {
	if t.engine.deps.Compiler == nil {
		return ""
	}
	ref, err := t.engine.deps.Compiler.Compile(ctx, doc, storage.ResumeKey(artifact.UserID, artifact.ID))
	if err != nil {
		t.log.Warn().Err(err).Str("artifact_id", artifact.ID).Msg("compilation failed, returning source only")
		return ""
	}
	return ref
}

func (t *turn) publish(ctx context.Context, a *types.ResumeArtifact) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := t.engine.deps.Publisher.PublishResumeGenerated(ctx, events.ResumeGenerated{
		ArtifactID:   a.ID,
		ThreadID:     a.ThreadID,
		UserID:       a.UserID,
		JobTitle:     a.JobTitle,
		Organization: a.Organization,
		ATSScore:     a.ATS.Score,
		BinaryRef:    a.BinaryRef,
		CreatedAt:    a.CreatedAt,
	})
	if err != nil {
		t.log.Warn().Err(err).Str("artifact_id", a.ID).Msg("failed to publish resume event")
	}
}

// restart begins a new cycle after DONE with a freshly loaded profile.
func (t *turn) restart(ctx context.Context) (bool, error) {
	profile, err := t.loadProfile(ctx)
	if err != nil {
		return false, err
	}
	t.state.Job = nil
	t.state.Selected = nil
	t.state.ATS = nil
	return t.route(profile, msgRequestResume, msgNextJob)
}
