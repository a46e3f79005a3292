package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/conversation"
	"github.com/jonathan/resume-builder/internal/llm"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
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

// scriptedLLM answers job prompts with jobReply and everything else with
// profileReply.
func scriptedLLM() llm.Client {
	return llm.ClientFunc(func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
		if strings.Contains(prompt, "job posting parser") {
			return jobReply, nil
		}
		return profileReply, nil
	})
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Dir = filepath.Join(t.TempDir(), "documents")
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "chat.db")
	cfg.Workflow.CompilePDF = false
	return cfg
}

func message(text string) string {
	return text + "\n" + sendMarker + "\n"
}

// stubEngine records messages and replies from a script.
type stubEngine struct {
	requests []conversation.TurnRequest
	results  []*conversation.TurnResult
	state    *types.ConversationState
	err      error
}

func (s *stubEngine) GetThread(_ context.Context, _, threadID string) (*types.ConversationState, error) {
	if s.state == nil {
		return nil, conversation.ErrThreadNotFound
	}
	return s.state, nil
}

func (s *stubEngine) ProcessTurn(_ context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res, nil
}

func TestRunChat_MultiLineMessages(t *testing.T) {
	engine := &stubEngine{results: []*conversation.TurnResult{
		{ThreadID: "t-1", Stage: types.StageAwaitResume, Response: "paste your resume"},
		{ThreadID: "t-1", Stage: types.StageAwaitJobDescription, Response: "now the job"},
	}}
	in := strings.NewReader(message("hello") + "line one\n\nline two\n" + sendMarker + "\n" + quitCommand + "\nignored\n.\n")
	var out bytes.Buffer

	err := runChat(context.Background(), engine, in, &out, chatSession{userID: "u"})

	require.NoError(t, err)
	require.Len(t, engine.requests, 2)
	assert.Equal(t, "hello", engine.requests[0].Message)
	assert.Empty(t, engine.requests[0].ThreadID)
	assert.Equal(t, "line one\n\nline two", engine.requests[1].Message)
	assert.Equal(t, "t-1", engine.requests[1].ThreadID, "the thread id sticks after the first turn")
	assert.Contains(t, out.String(), "[AWAIT_RESUME] paste your resume")
	assert.Contains(t, out.String(), "[AWAIT_JOB_DESCRIPTION] now the job")
}

func TestRunChat_FlushesAtEOF(t *testing.T) {
	engine := &stubEngine{results: []*conversation.TurnResult{{ThreadID: "t", Stage: types.StageAwaitResume}}}

	err := runChat(context.Background(), engine, strings.NewReader("no marker"), &bytes.Buffer{}, chatSession{userID: "u"})

	require.NoError(t, err)
	require.Len(t, engine.requests, 1)
	assert.Equal(t, "no marker", engine.requests[0].Message)
}

func TestRunChat_SkipsBlankMessages(t *testing.T) {
	engine := &stubEngine{}

	err := runChat(context.Background(), engine, strings.NewReader(".\n\n.\n"), &bytes.Buffer{}, chatSession{userID: "u"})

	require.NoError(t, err)
	assert.Empty(t, engine.requests)
}

func TestRunChat_EngineError(t *testing.T) {
	engine := &stubEngine{err: errors.New("checkpoint down")}

	err := runChat(context.Background(), engine, strings.NewReader(message("hi")), &bytes.Buffer{}, chatSession{userID: "u"})

	assert.EqualError(t, err, "checkpoint down")
}

func TestRunChat_WritesDocument(t *testing.T) {
	doc := `\documentclass{article}`
	engine := &stubEngine{results: []*conversation.TurnResult{{
		ThreadID:     "t-1",
		ArtifactID:   "a-1",
		Stage:        types.StageDone,
		ATS:          &types.AtsResult{Score: 40, Matched: []string{"python"}, Missing: []string{"docker"}},
		DocumentText: &doc,
	}}}
	outDir := filepath.Join(t.TempDir(), "out")
	var out bytes.Buffer

	err := runChat(context.Background(), engine, strings.NewReader(message("posting")), &out, chatSession{userID: "u", outDir: outDir})

	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(outDir, "resume-a-1.tex"))
	require.NoError(t, err)
	assert.Equal(t, doc, string(data))
	assert.Contains(t, out.String(), "ATS score: 40.0 (matched: python; missing: docker)")
	assert.NotContains(t, out.String(), "JOB REQUIREMENT", "reports are printed only in verbose mode")
}

func TestRunChat_VerbosePrintsStateWhenDone(t *testing.T) {
	engine := &stubEngine{
		results: []*conversation.TurnResult{
			{ThreadID: "t-1", Stage: types.StageAwaitJobDescription, Response: "now the job"},
			{ThreadID: "t-1", Stage: types.StageDone, Response: "done"},
		},
		state: &types.ConversationState{
			ThreadID: "t-1",
			Stage:    types.StageDone,
			Job:      &types.JobRequirement{Title: "Backend Engineer", Keywords: []string{"python"}},
			ATS:      &types.AtsResult{Score: 100, Matched: []string{"python"}},
		},
	}
	var out bytes.Buffer
	s := chatSession{userID: "u", outDir: t.TempDir(), printer: observability.NewPrinter(&out)}

	err := runChat(context.Background(), engine, strings.NewReader(message("resume")+message("posting")), &out, s)

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out.String(), "JOB REQUIREMENT"))
	assert.Contains(t, out.String(), "Backend Engineer")
	assert.Contains(t, out.String(), "ATS SCORE")
}

func TestRunChat_VerboseThreadLookupFails(t *testing.T) {
	engine := &stubEngine{results: []*conversation.TurnResult{{ThreadID: "t-1", Stage: types.StageDone}}}
	var out bytes.Buffer
	s := chatSession{userID: "u", printer: observability.NewPrinter(&out)}

	err := runChat(context.Background(), engine, strings.NewReader(message("posting")), &out, s)

	assert.ErrorIs(t, err, conversation.ErrThreadNotFound)
}

func TestChat_FullConversationInMemory(t *testing.T) {
	cfg := testConfig(t)
	log := zerolog.Nop()
	a, err := buildApp(context.Background(), cfg, persistMemory, scriptedLLM(), &log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	outDir := t.TempDir()
	var out bytes.Buffer
	in := strings.NewReader(message("hi") + message(testResume) + message(testPosting))

	err = runChat(context.Background(), a.engine, in, &out, chatSession{userID: "local", outDir: outDir})

	require.NoError(t, err)
	transcript := out.String()
	assert.Contains(t, transcript, "[AWAIT_RESUME]")
	assert.Contains(t, transcript, "[AWAIT_JOB_DESCRIPTION]")
	assert.Contains(t, transcript, "[DONE]")
	assert.Contains(t, transcript, "ATS score: 40.0")

	files, err := filepath.Glob(filepath.Join(outDir, "*.tex"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	resumes, err := a.repo.ListResumes(context.Background(), "local", 10, 0)
	require.NoError(t, err)
	assert.Len(t, resumes, 1)
}

func TestChat_SQLiteRemembersProfile(t *testing.T) {
	cfg := testConfig(t)
	log := zerolog.Nop()

	first, err := buildApp(context.Background(), cfg, persistSQLite, scriptedLLM(), &log)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, runChat(context.Background(), first.engine, strings.NewReader(message(testResume)), &out, chatSession{userID: "local", outDir: t.TempDir()}))
	require.Contains(t, out.String(), "[AWAIT_JOB_DESCRIPTION]")
	require.NoError(t, first.Close())

	// A new process with a new thread goes straight to the job description.
	second, err := buildApp(context.Background(), cfg, persistSQLite, scriptedLLM(), &log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	out.Reset()
	require.NoError(t, runChat(context.Background(), second.engine, strings.NewReader(message("hello again")), &out, chatSession{userID: "local", outDir: t.TempDir()}))
	assert.Contains(t, out.String(), "[AWAIT_JOB_DESCRIPTION]")
	assert.NotContains(t, out.String(), "[AWAIT_RESUME]")
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)", sqliteDSN("a.db"))
	assert.Equal(t, "a.db?mode=ro", sqliteDSN("a.db?mode=ro"))
}
