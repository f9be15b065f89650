package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/airspacetools/clicheck/internal/scenario"
)

// RunRecord is the persisted summary of one executed suite case.
type RunRecord struct {
	Suite         string
	Case          string
	Argv          []string
	ExitCode      int
	Pass          bool
	StderrExcerpt string
	StartedAt     time.Time
}

// Recorder receives one RunRecord per executed case. The run-log store
// implements it; a nil recorder disables recording.
type Recorder interface {
	Record(ctx context.Context, rec RunRecord) error
}

// CaseResult is the outcome of a single suite case.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// SuiteResult aggregates the outcomes of one suite.
type SuiteResult struct {
	Suite  string       `json:"suite"`
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
}

// RunSuite executes every case of a suite in order. Each case gets a
// fresh scratch directory named suite/case, its setup files are
// materialized there, the PUT is invoked with the scratch directory as
// working directory, and the captured result is checked against the
// case's expectations.
//
// A failed check marks the case failed and the suite continues. A
// configuration error (missing binary, scratch collision, malformed
// payload) aborts the whole suite: it cannot be partially salvaged.
func (h *Harness) RunSuite(ctx context.Context, suite *scenario.Suite) (*SuiteResult, error) {
	result := &SuiteResult{
		Suite: suite.Name,
		Cases: make([]CaseResult, 0, len(suite.Cases)),
	}

	for i := range suite.Cases {
		c := &suite.Cases[i]
		caseResult, err := h.runCase(ctx, suite.Name, c)
		if err != nil {
			return nil, fmt.Errorf("suite %s, case %s: %w", suite.Name, c.Name, err)
		}

		result.Cases = append(result.Cases, *caseResult)
		if caseResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	return result, nil
}

func (h *Harness) runCase(ctx context.Context, suiteName string, c *scenario.Case) (*CaseResult, error) {
	dir, err := h.ChangeTestDirectory(filepath.Join(suiteName, c.Name))
	if err != nil {
		return nil, err
	}

	if err := materializeSetup(dir, c.Setup); err != nil {
		return nil, err
	}

	stdin, err := c.Stdin.Bytes()
	if err != nil {
		return nil, err
	}

	started := h.now()

	var result *Result
	if c.ArgLine != "" {
		result, err = h.RunLine(ctx, c.ArgLine, stdin)
	} else {
		result, err = h.Run(ctx, c.Args, stdin)
	}
	if err != nil {
		return nil, err
	}

	expect, err := buildExpect(c.Expect)
	if err != nil {
		return nil, err
	}

	caseResult := &CaseResult{Name: c.Name, Pass: true}
	if err := Check(result, expect); err != nil {
		caseResult.Pass = false
		caseResult.Errors = append(caseResult.Errors, err.Error())
	}

	h.logger.Info("case finished",
		"suite", suiteName,
		"case", c.Name,
		"pass", caseResult.Pass,
		"exit_code", result.ExitCode,
	)

	if h.recorder != nil {
		rec := RunRecord{
			Suite:         suiteName,
			Case:          c.Name,
			Argv:          result.Argv,
			ExitCode:      result.ExitCode,
			Pass:          caseResult.Pass,
			StderrExcerpt: excerpt(result.Stderr, 256),
			StartedAt:     started,
		}
		if err := h.recorder.Record(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to record case: %w", err)
		}
	}

	return caseResult, nil
}

// materializeSetup creates the case's files and directories inside its
// scratch directory.
func materializeSetup(dir string, setup *scenario.Setup) error {
	if setup == nil {
		return nil
	}
	for _, sub := range setup.Dirs {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create setup directory %s: %w", sub, err)
		}
	}
	for name, payload := range setup.Files {
		data, err := payload.Bytes()
		if err != nil {
			return fmt.Errorf("setup file %s: %w", name, err)
		}
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create parent of setup file %s: %w", name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write setup file %s: %w", name, err)
		}
	}
	return nil
}

// buildExpect translates a scenario expectation block into the harness
// Expect form, resolving the text/bytes tag from how the value was
// authored.
func buildExpect(e scenario.Expect) (Expect, error) {
	expect := Expect{ExitCode: e.Exit}

	var err error
	expect.Stdout, expect.StdoutMode, err = buildStreamExpect(e.Stdout)
	if err != nil {
		return Expect{}, fmt.Errorf("stdout: %w", err)
	}
	expect.Stderr, expect.StderrMode, err = buildStreamExpect(e.Stderr)
	if err != nil {
		return Expect{}, fmt.Errorf("stderr: %w", err)
	}
	return expect, nil
}

func buildStreamExpect(s *scenario.StreamExpect) (Expectation, MatchMode, error) {
	if s == nil {
		return Text(""), MatchExact, nil
	}
	data, err := s.Payload.Bytes()
	if err != nil {
		return Expectation{}, "", err
	}
	if s.Payload.IsText() {
		return Text(string(data)), MatchMode(s.MatchMode()), nil
	}
	return Bytes(data), MatchMode(s.MatchMode()), nil
}

func excerpt(b []byte, max int) string {
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
