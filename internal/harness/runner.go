package harness

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"

	"github.com/google/shlex"
)

// Result is the captured outcome of one PUT invocation. Both streams are
// raw bytes, never decoded: compressed payloads are arbitrary binary and
// any implicit text decoding would corrupt round-trip comparisons.
// A Result is immutable once returned.
type Result struct {
	Argv     []string // full argv, PUT path first
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes the program under test as a child process.
//
// Runner never judges the PUT: a non-zero exit code or unexpected output
// is returned as data in the Result. Errors from Run are harness
// configuration errors or spawn failures, nothing else.
type Runner struct {
	cfg    Config
	logger *slog.Logger
}

// NewRunner creates a Runner bound to the given configuration.
// A nil logger discards all output.
func NewRunner(cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run invokes the PUT with the given arguments, feeding stdin verbatim
// (nil means no input). dir is the child's working directory; empty means
// the configured default. The call blocks until the child terminates.
//
// The harness imposes no timeout of its own; a deadline on ctx bounds the
// child's lifetime and cancels it on expiry.
func (r *Runner) Run(ctx context.Context, dir string, args []string, stdin []byte) (*Result, error) {
	if err := r.checkExecutable(); err != nil {
		return nil, err
	}

	if dir == "" {
		dir = r.cfg.WorkDir
	}

	cmd := exec.CommandContext(ctx, r.cfg.PUTPath, args...)
	cmd.Dir = dir
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &ConfigError{Op: "run", Path: r.cfg.PUTPath, Msg: "failed to start: " + err.Error()}
		}
		exitCode = exitErr.ExitCode()
	}

	result := &Result{
		Argv:     append([]string{r.cfg.PUTPath}, args...),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: exitCode,
	}

	r.logger.Info("put invocation completed",
		"argv", result.Argv,
		"dir", dir,
		"exit_code", result.ExitCode,
		"stdout_bytes", len(result.Stdout),
		"stderr_bytes", len(result.Stderr),
	)

	return result, nil
}

// RunLine is Run for a single argument string, tokenized with shell
// word-splitting rules. Unbalanced quotes are a configuration error.
func (r *Runner) RunLine(ctx context.Context, dir, line string, stdin []byte) (*Result, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, &ConfigError{Op: "run", Msg: "cannot tokenize argument line " + quoteArg(line) + ": " + err.Error()}
	}
	return r.Run(ctx, dir, args, stdin)
}

// checkExecutable verifies the PUT preconditions before spawning. Each
// violation is a distinct ConfigError, never a Result.
func (r *Runner) checkExecutable() error {
	if r.cfg.PUTPath == "" {
		return &ConfigError{Op: "run", Msg: "no executable specified"}
	}

	info, err := os.Stat(r.cfg.PUTPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &ConfigError{Op: "run", Path: r.cfg.PUTPath, Msg: "executable not found"}
	}
	if err != nil {
		return &ConfigError{Op: "run", Path: r.cfg.PUTPath, Msg: "cannot stat executable: " + err.Error()}
	}
	if !info.Mode().IsRegular() {
		return &ConfigError{Op: "run", Path: r.cfg.PUTPath, Msg: "executable not found"}
	}
	if info.Mode().Perm()&0o111 == 0 {
		return &ConfigError{Op: "run", Path: r.cfg.PUTPath, Msg: "not executable"}
	}
	return nil
}
