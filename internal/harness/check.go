package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MatchMode selects the comparison strategy for one captured stream.
type MatchMode string

const (
	// MatchExact requires the captured stream to equal the expectation
	// byte for byte.
	MatchExact MatchMode = "exact"
	// MatchContains requires the expectation to occur as a contiguous
	// subsequence of the captured stream.
	MatchContains MatchMode = "contains"
	// MatchIgnore skips the stream entirely.
	MatchIgnore MatchMode = "ignore"
)

// Expectation is an expected stream value, authored as either text or
// raw bytes. The tag only affects how the value is rendered in failure
// output; comparison always happens on bytes.
type Expectation struct {
	data   []byte
	isText bool
}

// Text builds an Expectation from a string.
func Text(s string) Expectation { return Expectation{data: []byte(s), isText: true} }

// Bytes builds an Expectation from raw bytes.
func Bytes(b []byte) Expectation { return Expectation{data: b} }

func (e Expectation) bytes() []byte { return e.data }

// String renders the expectation unambiguously, including for binary
// data (Go quoted form).
func (e Expectation) String() string { return strconv.Quote(string(e.data)) }

// Expect is the bundle of expected values and match modes for one
// Check call. The zero value expects empty stdout, empty stderr and
// exit code 0, all compared exactly.
type Expect struct {
	Stdout     Expectation
	Stderr     Expectation
	ExitCode   int       // exit comparison is always exact
	StdoutMode MatchMode // empty means MatchExact
	StderrMode MatchMode
}

// CheckError describes the first mismatch between a Result and an
// Expect. It carries the reconstructed command line so a failing case
// can be reproduced by hand.
type CheckError struct {
	Stream   string // "stderr", "stdout" or "exit code"
	Mode     MatchMode
	Command  string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *CheckError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s mismatch\n", e.Stream)
	fmt.Fprintf(&buf, "Command:\n%s\n", e.Command)
	if e.Mode != "" {
		fmt.Fprintf(&buf, "Expected: %s (%s)\n", e.Expected, e.Mode)
	} else {
		fmt.Fprintf(&buf, "Expected: %s\n", e.Expected)
	}
	fmt.Fprintf(&buf, "Actual:   %s", e.Actual)
	return buf.String()
}

// Check compares a captured Result against an Expect. The evaluation
// order is fixed: stderr first, then stdout, then exit code. Error
// stream text usually pinpoints the root cause, so when several aspects
// mismatch the caller sees the stderr diagnostic first. Returns nil on a
// full match and a *CheckError on the first mismatch.
func Check(result *Result, spec Expect) error {
	command := CommandLine(result.Argv)

	if err := checkStream("stderr", result.Stderr, spec.Stderr, spec.StderrMode, command); err != nil {
		return err
	}
	if err := checkStream("stdout", result.Stdout, spec.Stdout, spec.StdoutMode, command); err != nil {
		return err
	}

	if result.ExitCode != spec.ExitCode {
		return &CheckError{
			Stream:   "exit code",
			Command:  command,
			Expected: strconv.Itoa(spec.ExitCode),
			Actual:   strconv.Itoa(result.ExitCode),
		}
	}
	return nil
}

func checkStream(name string, captured []byte, expected Expectation, mode MatchMode, command string) error {
	if mode == "" {
		mode = MatchExact
	}

	var ok bool
	switch mode {
	case MatchExact:
		ok = bytes.Equal(captured, expected.bytes())
	case MatchContains:
		ok = bytes.Contains(captured, expected.bytes())
	case MatchIgnore:
		return nil
	default:
		return fmt.Errorf("invalid %s match mode: %q", name, mode)
	}

	if !ok {
		return &CheckError{
			Stream:   name,
			Mode:     mode,
			Command:  command,
			Expected: expected.String(),
			Actual:   strconv.Quote(string(captured)),
		}
	}
	return nil
}

// CommandLine renders an argv as a shell-quotable command line. Absolute
// paths under the harness process's initial working directory are
// rendered relative to it, matching what a user at that directory would
// type.
func CommandLine(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = quoteArg(relativeToCwd(arg))
	}
	return strings.Join(quoted, " ")
}

func relativeToCwd(arg string) string {
	if !filepath.IsAbs(arg) {
		return arg
	}
	cwd, err := os.Getwd()
	if err != nil {
		return arg
	}
	rel, err := filepath.Rel(cwd, arg)
	if err != nil || strings.HasPrefix(rel, "..") {
		return arg
	}
	return rel
}

// safeArg matches arguments that need no shell quoting.
var safeArgBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_@%+=:,./-"

func quoteArg(arg string) string {
	if arg == "" {
		return "''"
	}
	safe := true
	for _, c := range arg {
		if !strings.ContainsRune(safeArgBytes, c) {
			safe = false
			break
		}
	}
	if safe {
		return arg
	}
	// POSIX single quoting: close, escape the quote, reopen.
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
