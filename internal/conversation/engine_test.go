package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/checkpoint"
	"github.com/jonathan/resume-builder/internal/db"
	"github.com/jonathan/resume-builder/internal/events"
	"github.com/jonathan/resume-builder/internal/extraction"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/parsing"
	"github.com/jonathan/resume-builder/internal/rendering"
	"github.com/jonathan/resume-builder/internal/types"
	"github.com/jonathan/resume-builder/internal/validation"
)

const testResume = `Jane Doe
jane.doe@example.com

Education
State University, B.S. Computer Science, 2019

Work Experience
Backend Engineer, Initech, 2019 - Present
- Built data pipelines in Python running on AWS
- Reduced deploy time by 40%

Projects
resume-cli: command line tool written in Go`

const testPosting = `Senior Backend Engineer
Acme Corp

About the role
We are looking for a backend engineer to build reliable services.

Responsibilities
- Design and operate Python services on AWS
- Ship containers with Docker

Requirements
- 5+ years of experience with Python
- Hands-on AWS and Docker knowledge`

const profileReply = `{
  "contact": {"full_name": "Jane Doe", "email": "jane.doe@example.com"},
  "education": [{"institution": "State University", "degree": "B.S. Computer Science", "dates": "2019"}],
  "experience": [{
    "title": "Backend Engineer",
    "organization": "Initech",
    "dates": "2019 -- Present",
    "bullets": ["Built data pipelines in Python running on AWS", "Reduced deploy time by 40%"]
  }],
  "projects": [{"name": "resume-cli", "technologies": ["Go"], "bullets": ["Command line tool"]}],
  "technical_skills": {"languages": ["Python", "Go"]}
}`

const jobReply = `{
  "title": "Senior Backend Engineer",
  "organization": "Acme Corp",
  "required_skills": ["python", "aws", "docker"],
  "keywords": ["kubernetes", "postgresql"]
}`

const testUser = "0b6b2a1e-8f7e-4a57-9a59-1f2d4c1b7e01"

// fakeLLM answers job prompts with jobReply and everything else with
// profileReply.
type fakeLLM struct {
	calls atomic.Int32
}

func (f *fakeLLM) client() llm.Client {
	return llm.ClientFunc(func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		f.calls.Add(1)
		if strings.Contains(prompt, "job posting parser") {
			return jobReply, nil
		}
		return profileReply, nil
	})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ResumeGenerated
}

func (p *recordingPublisher) PublishResumeGenerated(_ context.Context, ev events.ResumeGenerated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type compilerFunc func(ctx context.Context, source, key string) (string, error)

func (f compilerFunc) Compile(ctx context.Context, source, key string) (string, error) {
	return f(ctx, source, key)
}

// flakySynthesizer fails the first n calls with a TemplateError.
type flakySynthesizer struct {
	failures int
	next     DocumentSynthesizer
}

func (s *flakySynthesizer) Synthesize(p *types.UserProfile, sel *types.SelectedContent) (string, error) {
	if s.failures > 0 {
		s.failures--
		return "", &rendering.TemplateError{Message: "unresolved placeholder", Placeholder: "FAX_NUMBER"}
	}
	return s.next.Synthesize(p, sel)
}

type harness struct {
	engine    *Engine
	store     *checkpoint.MemoryStore
	repo      *db.Memory
	llm       *fakeLLM
	publisher *recordingPublisher
	now       time.Time
}

func newHarness(t *testing.T, mutate func(*Deps, *Options)) *harness {
	t.Helper()
	synth, err := rendering.NewSynthesizer("")
	require.NoError(t, err)

	h := &harness{
		store:     checkpoint.NewMemoryStore(),
		repo:      db.NewMemory(),
		llm:       &fakeLLM{},
		publisher: &recordingPublisher{},
		now:       time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	adapter := llm.NewAdapter(h.llm.client())
	deps := Deps{
		Store:       h.store,
		Locker:      checkpoint.NewKeyedMutex(),
		Profiles:    h.repo,
		Resumes:     h.repo,
		Extractor:   extraction.NewExtractor(adapter, 0, nil),
		Analyzer:    parsing.NewAnalyzer(adapter, parsing.DefaultOptions(), nil),
		Synthesizer: synth,
		Publisher:   h.publisher,
	}
	opts := DefaultOptions()
	opts.Now = func() time.Time { return h.now }
	if mutate != nil {
		mutate(&deps, &opts)
	}

	h.engine, err = NewEngine(deps, opts, nil)
	require.NoError(t, err)
	return h
}

func (h *harness) turn(t *testing.T, threadID, message string) *TurnResult {
	t.Helper()
	res, err := h.engine.ProcessTurn(context.Background(), TurnRequest{ThreadID: threadID, UserID: testUser, Message: message})
	require.NoError(t, err)
	return res
}

func (h *harness) seedProfile(t *testing.T) {
	t.Helper()
	require.NoError(t, h.repo.SaveProfile(context.Background(), testUser, &types.UserProfile{
		Contact: types.Contact{Name: "Jane Doe"},
		Experience: []types.Experience{{
			Title:        "Backend Engineer",
			Organization: "Initech",
			Bullets:      []string{"Built data pipelines in Python running on AWS"},
		}},
		Projects: []types.Project{{Name: "resume-cli", Technologies: []string{"Go"}}},
		Skills:   map[string][]string{"languages": {"Python", "Go"}},
	}))
}

func assertCanonicalOrder(t *testing.T, visited []types.Stage) {
	t.Helper()
	for i := 1; i < len(visited); i++ {
		assert.Less(t, visited[i-1].Order(), visited[i].Order(), "stage sequence %v is not in canonical order", visited)
	}
}

func TestNewEngine_RequiresDeps(t *testing.T) {
	_, err := NewEngine(Deps{}, DefaultOptions(), nil)
	assert.Error(t, err)
}

func TestProcessTurn_GreetingWithoutProfile(t *testing.T) {
	h := newHarness(t, nil)

	res := h.turn(t, "", "hi")

	assert.NotEmpty(t, res.ThreadID)
	assert.Equal(t, types.StageAwaitResume, res.Stage)
	assert.Equal(t, msgRequestResume, res.Response)
	assert.Nil(t, res.DocumentText)
	assert.Nil(t, res.ATS)
	assert.NoError(t, res.Err)
	assert.Equal(t, []types.Stage{types.StageInit, types.StageAwaitResume}, res.Visited)
	assert.Zero(t, h.llm.calls.Load())

	state, err := h.store.Load(context.Background(), res.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, types.StageAwaitResume, state.Stage)
	require.Len(t, state.Messages, 2)
	assert.Equal(t, types.RoleUser, state.Messages[0].Role)
	assert.Equal(t, types.RoleAssistant, state.Messages[1].Role)
	assert.Equal(t, int64(1), state.Version)
}

func TestProcessTurn_ReturningUserPostingRunsToDone(t *testing.T) {
	h := newHarness(t, nil)
	h.seedProfile(t)

	res := h.turn(t, "", testPosting)

	require.NoError(t, res.Err)
	assert.Equal(t, types.StageDone, res.Stage)
	require.NotNil(t, res.DocumentText)
	assert.Contains(t, *res.DocumentText, `\documentclass`)
	assert.Contains(t, *res.DocumentText, "Jane Doe")
	assert.Equal(t, []types.Stage{
		types.StageInit,
		types.StageAwaitJobDescription,
		types.StageAnalyzingJob,
		types.StageSelectingContent,
		types.StageScoringATS,
		types.StageSynthesizingDocument,
		types.StageDone,
	}, res.Visited)
	assert.NotContains(t, res.Visited, types.StageAwaitResume)

	require.NotNil(t, res.ATS)
	assert.Equal(t, []string{"python", "aws"}, res.ATS.Matched)
	assert.Equal(t, []string{"docker", "kubernetes", "postgresql"}, res.ATS.Missing)
	assert.Equal(t, 40.0, res.ATS.Score)

	artifacts, err := h.repo.ListResumes(context.Background(), testUser, 10, 0)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, res.ArtifactID, artifacts[0].ID)
	assert.Equal(t, "Senior Backend Engineer", artifacts[0].JobTitle)
	assert.Equal(t, "Acme Corp", artifacts[0].Organization)
	assert.Equal(t, *res.DocumentText, artifacts[0].DocumentText)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, res.ArtifactID, h.publisher.events[0].ArtifactID)
	assert.Equal(t, 40.0, h.publisher.events[0].ATSScore)
}

func TestProcessTurn_ShortResumeStaysAwaitingResume(t *testing.T) {
	h := newHarness(t, nil)
	threadID := h.turn(t, "", "hi").ThreadID

	res := h.turn(t, threadID, "0123456789")

	assert.Equal(t, types.StageAwaitResume, res.Stage)
	var xerr *extraction.ExtractionError
	require.True(t, errors.As(res.Err, &xerr))
	assert.Equal(t, extraction.ReasonTooShort, xerr.Reason)
	assert.Contains(t, res.Response, "too short")
	assert.Nil(t, res.DocumentText)
	assert.Zero(t, h.llm.calls.Load(), "short input never reaches the completion service")

	profile, err := h.repo.GetProfile(context.Background(), testUser)
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestProcessTurn_FullConversation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first := h.turn(t, "", testResume)
	assert.Equal(t, types.StageAwaitJobDescription, first.Stage)
	assert.Equal(t, []types.Stage{types.StageInit, types.StageExtractingProfile, types.StageAwaitJobDescription}, first.Visited)
	assert.Contains(t, first.Response, "Profile extracted")

	profile, err := h.repo.GetProfile(ctx, testUser)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Jane Doe", profile.Contact.Name)

	second := h.turn(t, first.ThreadID, testPosting)
	assert.Equal(t, types.StageDone, second.Stage)
	require.NotNil(t, second.DocumentText)
	assertCanonicalOrder(t, second.Visited)

	third := h.turn(t, first.ThreadID, "thanks!")
	assert.Equal(t, types.StageAwaitJobDescription, third.Stage)
	assert.Equal(t, msgNextJob, third.Response)
	assert.Nil(t, third.DocumentText)
	assert.Nil(t, third.ATS, "restart clears the previous result")

	state, err := h.store.Load(ctx, first.ThreadID)
	require.NoError(t, err)
	assert.Nil(t, state.Job)
	assert.Nil(t, state.Selected)
	assert.NotNil(t, state.Profile)

	fourth := h.turn(t, first.ThreadID, testPosting)
	assert.Equal(t, types.StageDone, fourth.Stage)

	artifacts, err := h.repo.ListResumes(ctx, testUser, 10, 0)
	require.NoError(t, err)
	assert.Len(t, artifacts, 2)
}

func TestProcessTurn_DoneRestartWithPosting(t *testing.T) {
	h := newHarness(t, nil)
	h.seedProfile(t)
	threadID := h.turn(t, "", testPosting).ThreadID

	res := h.turn(t, threadID, testPosting)

	assert.Equal(t, types.StageDone, res.Stage)
	assert.Equal(t, types.StageAwaitJobDescription, res.Visited[0])
	assertCanonicalOrder(t, res.Visited)
}

func TestProcessTurn_DoneRestartAfterProfileDeleted(t *testing.T) {
	h := newHarness(t, nil)
	h.seedProfile(t)
	threadID := h.turn(t, "", testPosting).ThreadID

	_, err := h.repo.DeleteProfile(context.Background(), testUser)
	require.NoError(t, err)

	res := h.turn(t, threadID, "hello again")
	assert.Equal(t, types.StageAwaitResume, res.Stage)
	assert.Equal(t, msgRequestResume, res.Response)
}

func TestProcessTurn_Reprompts(t *testing.T) {
	t.Run("posting while waiting for resume", func(t *testing.T) {
		h := newHarness(t, nil)
		threadID := h.turn(t, "", "hi").ThreadID

		res := h.turn(t, threadID, testPosting)
		assert.Equal(t, types.StageAwaitResume, res.Stage)
		assert.Equal(t, msgResumeNotPosting, res.Response)
		assert.Empty(t, res.Visited)
		assert.Zero(t, h.llm.calls.Load())
	})

	t.Run("latex resume while waiting for posting", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seedProfile(t)
		threadID := h.turn(t, "", "hi").ThreadID

		res := h.turn(t, threadID, `\documentclass{article}\begin{document}Jane Doe\end{document}`)
		assert.Equal(t, types.StageAwaitJobDescription, res.Stage)
		assert.Equal(t, msgPostingNotResume, res.Response)
		assert.Zero(t, h.llm.calls.Load())
	})

	t.Run("returning user greeting", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seedProfile(t)

		res := h.turn(t, "", "hi")
		assert.Equal(t, types.StageAwaitJobDescription, res.Stage)
		assert.Equal(t, msgWelcomeBack, res.Response)
		assert.NotContains(t, res.Visited, types.StageAwaitResume)
	})
}

// cueHeavyPosting reads like a resume to the classifier: it names education,
// certifications, projects, GitHub, LinkedIn and carries an email.
const cueHeavyPosting = `Platform Engineer, Acme Corp

Education: B.S. in Computer Science or equivalent.
Certifications in AWS are a plus. Show us your projects on GitHub
or LinkedIn and send them to jobs@acme.example.com.`

func TestProcessTurn_ReturningUserCueHeavyPosting(t *testing.T) {
	require.Equal(t, KindResume, Classify(cueHeavyPosting))

	t.Run("first message", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seedProfile(t)

		res := h.turn(t, "", cueHeavyPosting)

		assert.Equal(t, types.StageDone, res.Stage)
		assert.Contains(t, res.Visited, types.StageAnalyzingJob)
		assert.NotContains(t, res.Visited, types.StageAwaitResume)
	})

	t.Run("while waiting for posting", func(t *testing.T) {
		h := newHarness(t, nil)
		h.seedProfile(t)
		threadID := h.turn(t, "", "hi").ThreadID

		res := h.turn(t, threadID, cueHeavyPosting)

		assert.Equal(t, types.StageDone, res.Stage)
		assert.NotEqual(t, msgPostingNotResume, res.Response)
		require.NotNil(t, res.DocumentText)
	})
}

func TestProcessTurn_AmbiguousInputIsNotBlocked(t *testing.T) {
	h := newHarness(t, nil)
	threadID := h.turn(t, "", "hi").ThreadID

	notes := strings.Repeat("Jane Doe, backend engineer who likes building data systems. ", 4)
	res := h.turn(t, threadID, notes)

	assert.Equal(t, types.StageAwaitJobDescription, res.Stage)
	assert.NoError(t, res.Err)
}

func TestProcessTurn_AnalysisErrorReturnsToAwaitingPosting(t *testing.T) {
	h := newHarness(t, nil)
	h.seedProfile(t)
	threadID := h.turn(t, "", "hi").ThreadID

	res := h.turn(t, threadID, "python please")

	assert.Equal(t, types.StageAwaitJobDescription, res.Stage)
	var aerr *parsing.AnalysisError
	require.True(t, errors.As(res.Err, &aerr))
	assert.Equal(t, parsing.ReasonTooShort, aerr.Reason)
	assert.Equal(t, []types.Stage{types.StageAnalyzingJob}, res.Visited)
}

func TestProcessTurn_TemplateErrorRetriesNextTurn(t *testing.T) {
	h := newHarness(t, func(d *Deps, _ *Options) {
		d.Synthesizer = &flakySynthesizer{failures: 1, next: d.Synthesizer}
	})
	h.seedProfile(t)

	first := h.turn(t, "", testPosting)
	assert.Equal(t, types.StageSynthesizingDocument, first.Stage)
	var terr *rendering.TemplateError
	require.True(t, errors.As(first.Err, &terr))
	assert.Equal(t, "FAX_NUMBER", terr.Placeholder)
	assert.Nil(t, first.DocumentText)
	require.NotNil(t, first.ATS, "score survives for the retry")

	second := h.turn(t, first.ThreadID, "try again")
	assert.Equal(t, types.StageDone, second.Stage)
	assert.NoError(t, second.Err)
	require.NotNil(t, second.DocumentText)
	assert.Equal(t, []types.Stage{types.StageDone}, second.Visited)
}

func TestProcessTurn_CompilationFailureDegradesToSource(t *testing.T) {
	h := newHarness(t, func(d *Deps, _ *Options) {
		d.Compiler = compilerFunc(func(context.Context, string, string) (string, error) {
			return "", &validation.CompilationError{Message: "pdflatex not found in PATH"}
		})
	})
	h.seedProfile(t)

	res := h.turn(t, "", testPosting)

	assert.Equal(t, types.StageDone, res.Stage)
	assert.NoError(t, res.Err)
	require.NotNil(t, res.DocumentText)
	assert.Empty(t, res.BinaryRef)
	assert.Contains(t, res.Response, "LaTeX source")
}

func TestProcessTurn_CompiledDocumentReference(t *testing.T) {
	var gotKey, gotSource string
	h := newHarness(t, func(d *Deps, _ *Options) {
		d.Compiler = compilerFunc(func(_ context.Context, source, key string) (string, error) {
			gotKey, gotSource = key, source
			return key, nil
		})
	})
	h.seedProfile(t)

	res := h.turn(t, "", testPosting)

	require.NotNil(t, res.DocumentText)
	assert.Equal(t, *res.DocumentText, gotSource)
	assert.Equal(t, fmt.Sprintf("resumes/%s/%s.pdf", testUser, res.ArtifactID), gotKey)
	assert.Equal(t, gotKey, res.BinaryRef)

	artifact, err := h.repo.GetResume(context.Background(), res.ArtifactID)
	require.NoError(t, err)
	assert.Equal(t, gotKey, artifact.BinaryRef)
}

func TestProcessTurn_RejectsOtherUsersThread(t *testing.T) {
	h := newHarness(t, nil)
	threadID := h.turn(t, "", "hi").ThreadID

	_, err := h.engine.ProcessTurn(context.Background(), TurnRequest{ThreadID: threadID, UserID: "someone-else", Message: "hi"})
	assert.ErrorIs(t, err, ErrThreadForbidden)

	state, err := h.store.Load(context.Background(), threadID)
	require.NoError(t, err)
	assert.Len(t, state.Messages, 2, "rejected turn writes nothing")
}

func TestProcessTurn_MissingUser(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.engine.ProcessTurn(context.Background(), TurnRequest{Message: "hi"})
	assert.ErrorIs(t, err, ErrMissingUser)
}

type failingSaveStore struct {
	*checkpoint.MemoryStore
}

func (s failingSaveStore) Save(context.Context, *types.ConversationState) error {
	return &checkpoint.PersistenceError{Op: "save", Cause: errors.New("disk full")}
}

func TestProcessTurn_PersistenceFailureIsFatal(t *testing.T) {
	mem := checkpoint.NewMemoryStore()
	h := newHarness(t, func(d *Deps, _ *Options) {
		d.Store = failingSaveStore{mem}
	})

	res, err := h.engine.ProcessTurn(context.Background(), TurnRequest{ThreadID: "t-1", UserID: testUser, Message: "hi"})
	assert.Nil(t, res)
	var perr *checkpoint.PersistenceError
	require.True(t, errors.As(err, &perr))

	_, err = mem.Load(context.Background(), "t-1")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestProcessTurn_HistoryIsBounded(t *testing.T) {
	h := newHarness(t, func(_ *Deps, o *Options) { o.MaxHistory = 4 })
	threadID := h.turn(t, "", "hi").ThreadID
	h.turn(t, threadID, testPosting)
	h.turn(t, threadID, "one more")

	state, err := h.store.Load(context.Background(), threadID)
	require.NoError(t, err)
	require.Len(t, state.Messages, 4)
	assert.Equal(t, testPosting, state.Messages[0].Content)
}

func TestProcessTurn_ConcurrentTurnsOnOneThread(t *testing.T) {
	h := newHarness(t, nil)
	threadID := h.turn(t, "", "hi").ThreadID

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.engine.ProcessTurn(context.Background(), TurnRequest{ThreadID: threadID, UserID: testUser, Message: testPosting})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	state, err := h.store.Load(context.Background(), threadID)
	require.NoError(t, err)
	assert.Len(t, state.Messages, 2+2*n)
	assert.Equal(t, int64(1+n), state.Version)
}

func TestThreadQueries(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	threadID := h.turn(t, "", "hi").ThreadID

	state, err := h.engine.GetThread(ctx, testUser, threadID)
	require.NoError(t, err)
	assert.Equal(t, types.StageAwaitResume, state.Stage)

	_, err = h.engine.GetThread(ctx, "intruder", threadID)
	assert.ErrorIs(t, err, ErrThreadForbidden)
	_, err = h.engine.GetThread(ctx, testUser, "missing")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	summaries, err := h.engine.ListThreads(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, threadID, summaries[0].ThreadID)

	assert.ErrorIs(t, h.engine.DeleteThread(ctx, "intruder", threadID), ErrThreadForbidden)
	require.NoError(t, h.engine.DeleteThread(ctx, testUser, threadID))
	assert.ErrorIs(t, h.engine.DeleteThread(ctx, testUser, threadID), ErrThreadNotFound)
}

func TestPrune(t *testing.T) {
	h := newHarness(t, func(_ *Deps, o *Options) { o.ThreadTTL = 24 * time.Hour })
	ctx := context.Background()
	oldThread := h.turn(t, "", "hi").ThreadID

	h.now = h.now.Add(23 * time.Hour)
	freshThread := h.turn(t, "", "hi").ThreadID

	h.now = h.now.Add(2 * time.Hour)
	n, err := h.engine.Prune(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = h.store.Load(ctx, oldThread)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
	_, err = h.store.Load(ctx, freshThread)
	assert.NoError(t, err)
}

func TestRunJanitor_StopsOnCancel(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.engine.RunJanitor(ctx, 10*time.Millisecond) }()

	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
