// Package validation compiles rendered LaTeX documents into PDFs.
package validation

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	// CompilationTimeout is the maximum time to wait for LaTeX compilation
	CompilationTimeout = 30 * time.Second

	// DefaultPasses runs pdflatex twice so cross references settle.
	DefaultPasses = 2
)

// pdflatexBinary is a variable so tests can point it at a missing binary.
var pdflatexBinary = "pdflatex"

// CompileLaTeX compiles a LaTeX file with pdflatex, running it passes times
// in workDir. The whole run is bounded by ctx.
func CompileLaTeX(ctx context.Context, texPath string, workDir string, passes int) (pdfPath string, logOutput string, err error) {
	if _, err := exec.LookPath(pdflatexBinary); err != nil {
		return "", "", &CompilationError{
			Message: "pdflatex not found in PATH. Please install a LaTeX distribution (e.g., TeX Live, MiKTeX)",
			Cause:   err,
		}
	}
	if passes < 1 {
		passes = 1
	}

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", "", &CompilationError{
			Message: fmt.Sprintf("failed to create working directory: %s", workDir),
			Cause:   err,
		}
	}

	texBaseName := filepath.Base(texPath)
	workTexPath := filepath.Join(workDir, texBaseName)
	if texPath != workTexPath {
		texContent, err := os.ReadFile(texPath)
		if err != nil {
			return "", "", &CompilationError{
				Message: fmt.Sprintf("failed to read LaTeX file: %s", texPath),
				Cause:   err,
			}
		}
		if err := os.WriteFile(workTexPath, texContent, 0o644); err != nil {
			return "", "", &CompilationError{
				Message: fmt.Sprintf("failed to write LaTeX file to working directory: %s", workDir),
				Cause:   err,
			}
		}
	}

	var runErr error
	var log strings.Builder
	for i := 0; i < passes; i++ {
		// -interaction=nonstopmode keeps pdflatex from waiting on stdin
		cmd := exec.CommandContext(ctx, pdflatexBinary, "-interaction=nonstopmode", "-halt-on-error", "-output-directory", workDir, workTexPath)
		cmd.Dir = workDir
		cmd.Stdout = &log
		cmd.Stderr = &log
		runErr = cmd.Run()
		if runErr != nil {
			break
		}
	}
	logOutput = log.String()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", logOutput, &CompilationError{
			Message:   "LaTeX compilation timed out",
			LogOutput: logOutput,
			Cause:     ctxErr,
		}
	}

	pdfPath = filepath.Join(workDir, strings.TrimSuffix(texBaseName, ".tex")+".pdf")
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		return "", logOutput, &CompilationError{
			Message:   "LaTeX compilation failed: PDF was not generated",
			LogOutput: logOutput,
			Cause:     runErr,
		}
	}
	if runErr != nil {
		return "", logOutput, &CompilationError{
			Message:   "LaTeX compilation completed with errors",
			LogOutput: logOutput,
			Cause:     runErr,
		}
	}

	return pdfPath, logOutput, nil
}

// lastLines returns the final n lines of a compiler log, which is where
// pdflatex reports the fatal error.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) <= n {
		return strings.Join(lines, "\n")
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
