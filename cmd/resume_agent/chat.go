package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-builder/internal/conversation"
	"github.com/jonathan/resume-builder/internal/logging"
	"github.com/jonathan/resume-builder/internal/observability"
	"github.com/jonathan/resume-builder/internal/types"
)

// Lines that control the REPL. A message ends with a line holding only
// sendMarker so that multi-line resumes can be pasted.
const (
	sendMarker  = "."
	quitCommand = "/quit"
)

var (
	chatUserID   string
	chatThreadID string
	chatMemory   bool
	chatOutDir   string
	chatVerbose  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the resume builder in the terminal",
	Long: `Start a local conversation backed by SQLite. Paste a resume or a job
posting, then end the message with a line containing only "." to send it.
Type /quit to exit. Generated LaTeX is written to --out.`,
	RunE: runChatCmd,
}

func init() {
	chatCmd.Flags().StringVar(&chatUserID, "user-id", "local", "User the profile is stored under")
	chatCmd.Flags().StringVar(&chatThreadID, "thread-id", "", "Continue an existing thread")
	chatCmd.Flags().BoolVar(&chatMemory, "memory", false, "Keep everything in memory instead of SQLite")
	chatCmd.Flags().StringVarP(&chatOutDir, "out", "o", "out", "Directory for generated .tex files")
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "Print the profile, job, selection and score after each document")
	rootCmd.AddCommand(chatCmd)
}

func runChatCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	// Logs go to stderr so they do not interleave with the conversation.
	log := logging.New(cfg.Logging, os.Stderr)

	mode := persistSQLite
	if chatMemory {
		mode = persistMemory
	}
	a, err := buildApp(cmd.Context(), cfg, mode, nil, &log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	s := chatSession{
		userID:   chatUserID,
		threadID: chatThreadID,
		outDir:   chatOutDir,
	}
	if chatVerbose {
		s.printer = observability.NewPrinter(cmd.OutOrStdout())
	}
	return runChat(cmd.Context(), a.engine, cmd.InOrStdin(), cmd.OutOrStdout(), s)
}

// turnProcessor is the part of the engine the REPL needs.
type turnProcessor interface {
	ProcessTurn(ctx context.Context, req conversation.TurnRequest) (*conversation.TurnResult, error)
	GetThread(ctx context.Context, userID, threadID string) (*types.ConversationState, error)
}

type chatSession struct {
	userID   string
	threadID string
	outDir   string
	printer  *observability.Printer
}

// runChat reads messages from in until EOF or /quit and prints each reply.
func runChat(ctx context.Context, engine turnProcessor, in io.Reader, out io.Writer, s chatSession) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	fmt.Fprintf(out, "Paste a message and end it with a line containing only %q. Type %s to exit.\n", sendMarker, quitCommand)

	var lines []string
	flush := func() error {
		msg := strings.TrimSpace(strings.Join(lines, "\n"))
		lines = lines[:0]
		if msg == "" {
			return nil
		}
		return chatTurn(ctx, engine, out, &s, msg)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case quitCommand:
			return nil
		case sendMarker:
			if err := flush(); err != nil {
				return err
			}
		default:
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return flush()
}

func chatTurn(ctx context.Context, engine turnProcessor, out io.Writer, s *chatSession, msg string) error {
	res, err := engine.ProcessTurn(ctx, conversation.TurnRequest{
		ThreadID: s.threadID,
		UserID:   s.userID,
		Message:  msg,
	})
	if err != nil {
		return err
	}
	s.threadID = res.ThreadID

	fmt.Fprintf(out, "\n[%s] %s\n", res.Stage, res.Response)
	if res.ATS != nil {
		fmt.Fprintf(out, "ATS score: %.1f (matched: %s; missing: %s)\n",
			res.ATS.Score, strings.Join(res.ATS.Matched, ", "), strings.Join(res.ATS.Missing, ", "))
	}
	if res.DocumentText != nil {
		path, err := writeDocument(s.outDir, res, *res.DocumentText)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "LaTeX written to %s\n", path)
	}
	if res.BinaryRef != "" {
		fmt.Fprintf(out, "PDF stored as %s\n", res.BinaryRef)
	}
	if s.printer != nil && res.Stage == types.StageDone {
		state, err := engine.GetThread(ctx, s.userID, res.ThreadID)
		if err != nil {
			return err
		}
		s.printer.PrintState(state)
	}
	fmt.Fprintln(out)
	return nil
}

func writeDocument(dir string, res *conversation.TurnResult, doc string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := res.ArtifactID
	if name == "" {
		name = res.ThreadID
	}
	path := filepath.Join(dir, "resume-"+name+".tex")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
