package validation

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-builder/internal/storage"
)

// Compiler turns LaTeX source into a stored PDF.
type Compiler struct {
	store   storage.ObjectStorage
	timeout time.Duration
	passes  int
	log     zerolog.Logger
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithTimeout bounds a single Compile call.
func WithTimeout(d time.Duration) CompilerOption {
	return func(c *Compiler) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPasses sets how many times pdflatex runs.
func WithPasses(n int) CompilerOption {
	return func(c *Compiler) {
		if n > 0 {
			c.passes = n
		}
	}
}

// WithLogger sets the compiler logger.
func WithLogger(log *zerolog.Logger) CompilerOption {
	return func(c *Compiler) {
		if log != nil {
			c.log = log.With().Str("component", "compiler").Logger()
		}
	}
}

// NewCompiler returns a Compiler that stores PDFs in store.
func NewCompiler(store storage.ObjectStorage, opts ...CompilerOption) *Compiler {
	c := &Compiler{
		store:   store,
		timeout: CompilationTimeout,
		passes:  DefaultPasses,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile builds source into a PDF and stores it under key. It returns the
// key on success. Every failure is a *CompilationError.
func (c *Compiler) Compile(ctx context.Context, source, key string) (string, error) {
	if c.store == nil {
		return "", &CompilationError{Message: "no storage configured for compiled documents"}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	workDir, err := os.MkdirTemp("", "latex-compile-*")
	if err != nil {
		return "", &CompilationError{Message: "failed to create temporary working directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	texPath := filepath.Join(workDir, "resume.tex")
	if err := os.WriteFile(texPath, []byte(source), 0o644); err != nil {
		return "", &CompilationError{Message: "failed to write LaTeX source", Cause: err}
	}

	start := time.Now()
	pdfPath, logOutput, err := CompileLaTeX(ctx, texPath, workDir, c.passes)
	if err != nil {
		c.log.Warn().Err(err).Str("log_tail", lastLines(logOutput, 10)).Msg("compilation failed")
		return "", err
	}

	pages, err := CountPDFPages(ctx, pdfPath)
	if err != nil {
		c.log.Debug().Err(err).Msg("page count unavailable")
	} else if pages > 1 {
		c.log.Warn().Int("pages", pages).Str("key", key).Msg("resume exceeds one page")
	}

	if err := c.upload(ctx, pdfPath, key); err != nil {
		return "", &CompilationError{Message: "failed to store compiled PDF", LogOutput: logOutput, Cause: err}
	}

	c.log.Info().
		Str("key", key).
		Int("pages", pages).
		Dur("duration", time.Since(start)).
		Msg("resume compiled")
	return key, nil
}

func (c *Compiler) upload(ctx context.Context, pdfPath, key string) error {
	f, err := os.Open(pdfPath)
	if err != nil {
		return errors.Wrap(err, "open compiled pdf")
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return errors.Wrap(err, "stat compiled pdf")
	}
	return c.store.Put(ctx, key, f, info.Size(), "application/pdf")
}
