package validation

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloTeX = `\documentclass{article}
\begin{document}
Hello, World!
\end{document}`

func requirePdflatex(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("pdflatex"); err != nil {
		t.Skip("pdflatex not available, skipping compilation test")
	}
}

func TestCompileLaTeX_ValidLaTeX(t *testing.T) {
	requirePdflatex(t)

	tmpDir := t.TempDir()
	texFile := filepath.Join(tmpDir, "test.tex")
	require.NoError(t, os.WriteFile(texFile, []byte(helloTeX), 0o644))

	pdfPath, _, err := CompileLaTeX(context.Background(), texFile, tmpDir, DefaultPasses)
	require.NoError(t, err)

	_, err = os.Stat(pdfPath)
	assert.NoError(t, err, "PDF should exist")
}

func TestCompileLaTeX_InvalidLaTeX(t *testing.T) {
	requirePdflatex(t)

	tmpDir := t.TempDir()
	texFile := filepath.Join(tmpDir, "test.tex")
	content := `\documentclass{article}
\begin{document}
\undefinedcommand{this will fail}
\end{document}`
	require.NoError(t, os.WriteFile(texFile, []byte(content), 0o644))

	_, logOutput, err := CompileLaTeX(context.Background(), texFile, tmpDir, DefaultPasses)
	var compErr *CompilationError
	require.True(t, errors.As(err, &compErr))
	assert.NotEmpty(t, logOutput)
}

func TestCompileLaTeX_FileNotFound(t *testing.T) {
	requirePdflatex(t)

	_, _, err := CompileLaTeX(context.Background(), "/nonexistent/file.tex", t.TempDir(), 1)
	var compErr *CompilationError
	assert.True(t, errors.As(err, &compErr))
}

func TestCompileLaTeX_PdflatexNotAvailable(t *testing.T) {
	orig := pdflatexBinary
	pdflatexBinary = "pdflatex-does-not-exist"
	t.Cleanup(func() { pdflatexBinary = orig })

	_, _, err := CompileLaTeX(context.Background(), "resume.tex", t.TempDir(), 1)
	var compErr *CompilationError
	require.True(t, errors.As(err, &compErr))
	assert.Contains(t, compErr.Message, "not found in PATH")
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a\nb", lastLines("a\nb", 5))
}
