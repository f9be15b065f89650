// Package harness drives a command-line compression tool as a black box.
//
// The program under test (PUT) is an opaque external collaborator: the
// harness talks to it only through argv, stdin, stdout, stderr, the exit
// code and filesystem side effects. The PUT's container format is never
// parsed; captured output is compared byte for byte.
//
// # Components
//
//   - Config: run-wide settings (PUT path, scratch root), built once and
//     injected; read-only afterwards.
//   - Runner: spawns the PUT and captures its raw output. Non-zero exit
//     codes are data, not errors.
//   - Scratch: creates a clean, uniquely named working directory per
//     case. Directories survive the run for debugging and are reset on
//     the next run with the same name.
//   - Check: compares a Result against an Expect under per-stream match
//     modes (exact, contains, ignore). Streams are checked stderr first,
//     then stdout, then exit code.
//   - Harness: composes the above for suite execution; RunSuite executes
//     declarative YAML suites (package scenario).
//
// # Error taxonomy
//
// Two disjoint classes. ConfigError covers harness precondition
// failures: a missing or non-executable binary, a scratch path colliding
// with a file, a malformed payload. These abort the run before or
// instead of spawning a process. PUT behavior outcomes never surface as
// errors from Runner; they land in a Result and only Check judges them,
// reporting mismatches as *CheckError with the reconstructed command
// line and both values rendered unambiguously.
//
// # Usage
//
//	cfg := harness.FromEnv()
//	h := harness.New(cfg)
//	if _, err := h.ChangeTestDirectory("my_case"); err != nil {
//		t.Fatal(err)
//	}
//	result, err := h.Run(ctx, []string{"-c", "-"}, payload)
//	if err != nil {
//		t.Fatal(err)
//	}
//	err = harness.Check(result, harness.Expect{
//		Stdout:     harness.Bytes(payload),
//		StdoutMode: harness.MatchContains,
//	})
//
// # Concurrency
//
// The harness is sequential. Nothing locks scratch directories; if an
// enclosing runner parallelizes cases, unique per-case names become a
// correctness requirement, not a convenience.
package harness
