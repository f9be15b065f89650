package harness

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Harness drives the program under test for a sequence of cases. It
// composes a Runner and a Scratch over one shared Config and tracks the
// working directory assigned to the current case.
//
// Execution is sequential: the only suspension point is the synchronous
// wait for the child process. A Harness must not be shared across
// concurrently running cases.
type Harness struct {
	cfg      Config
	runner   *Runner
	scratch  *Scratch
	workDir  string
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the harness logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) { h.logger = logger }
}

// WithRecorder sets a Recorder that receives one RunRecord per executed
// suite case.
func WithRecorder(rec Recorder) Option {
	return func(h *Harness) { h.recorder = rec }
}

// WithNow overrides the clock used to timestamp run records. Tests use a
// fixed clock for deterministic records.
func WithNow(now func() time.Time) Option {
	return func(h *Harness) { h.now = now }
}

// New creates a Harness for the given configuration.
func New(cfg Config, opts ...Option) *Harness {
	h := &Harness{
		cfg:     cfg,
		workDir: cfg.WorkDir,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.runner = NewRunner(h.cfg, h.logger)
	h.scratch = NewScratch(h.cfg)
	return h
}

// Runner returns the underlying process runner.
func (h *Harness) Runner() *Runner { return h.runner }

// Scratch returns the underlying scratch directory manager.
func (h *Harness) Scratch() *Scratch { return h.scratch }

// ChangeTestDirectory creates a fresh scratch directory for the named
// case and makes it the working directory for subsequent Run calls.
func (h *Harness) ChangeTestDirectory(name string) (string, error) {
	dir, err := h.scratch.Fresh(name)
	if err != nil {
		return "", err
	}
	h.workDir = dir
	return dir, nil
}

// WorkDir returns the working directory for the current case.
func (h *Harness) WorkDir() string { return h.workDir }

// Run invokes the PUT in the current working directory.
func (h *Harness) Run(ctx context.Context, args []string, stdin []byte) (*Result, error) {
	return h.runner.Run(ctx, h.workDir, args, stdin)
}

// RunLine invokes the PUT with a shell-tokenized argument line.
func (h *Harness) RunLine(ctx context.Context, line string, stdin []byte) (*Result, error) {
	return h.runner.RunLine(ctx, h.workDir, line, stdin)
}
