package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGoldenStdout compares a captured stdout against a golden file in
// testdata/golden/{name}.golden, relative to the calling test's package.
// Useful for byte-exact container-output regression tests where the
// expected payload is too large to inline in an Expect.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func AssertGoldenStdout(t *testing.T, name string, result *Result) {
	t.Helper()
	newGoldie(t).Assert(t, name, result.Stdout)
}

// AssertGoldenStderr is AssertGoldenStdout for the error stream.
func AssertGoldenStderr(t *testing.T, name string, result *Result) {
	t.Helper()
	newGoldie(t).Assert(t, name, result.Stderr)
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
