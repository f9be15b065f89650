package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airspacetools/clicheck/internal/store"
)

const fakePUT = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift ;;
    *) ;;
  esac
  shift
done
if [ -n "$out" ] && [ -e "$out" ]; then
  echo "output file already exists" >&2
  exit 1
fi
cat
`

// writeRunFixture lays out a fake PUT, a suites directory and a test
// root, returning their paths.
func writeRunFixture(t *testing.T, suiteYAML string) (put, suitesDir, testRoot string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake PUT scripts require a POSIX shell")
	}
	base := t.TempDir()
	put = filepath.Join(base, "put.sh")
	require.NoError(t, os.WriteFile(put, []byte(fakePUT), 0o755))

	suitesDir = filepath.Join(base, "suites")
	require.NoError(t, os.MkdirAll(suitesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(suitesDir, "smoke.yaml"), []byte(suiteYAML), 0o644))

	testRoot = filepath.Join(base, "root")
	require.NoError(t, os.MkdirAll(testRoot, 0o755))
	return put, suitesDir, testRoot
}

const passingSuite = `
name: smoke
cases:
  - name: stdin_roundtrip
    stdin: { text: "hello" }
    expect:
      stdout: { text: "hello" }
  - name: refuses_overwrite
    setup:
      files:
        existing.txt: { text: "keep me" }
    args: ["-o", "existing.txt"]
    stdin: { text: "data" }
    expect:
      exit: 1
      stderr: { mode: contains, text: "already exists" }
      stdout: { mode: ignore }
`

func TestRunCommand_AllCasesPass(t *testing.T) {
	put, suitesDir, testRoot := writeRunFixture(t, passingSuite)

	stdout, _, err := executeCommand(t,
		"--cli", put, "--test-root", testRoot, "run", suitesDir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "suite smoke")
	assert.Contains(t, stdout, "stdin_roundtrip")
	assert.Contains(t, stdout, "2 passed, 0 failed, 2 total")

	// Scratch directories live under TEST_ROOT/scratch and survive.
	assert.DirExists(t, filepath.Join(testRoot, "scratch", "smoke", "stdin_roundtrip"))
}

func TestRunCommand_FailureYieldsExitFailure(t *testing.T) {
	put, suitesDir, testRoot := writeRunFixture(t, `
name: smoke
cases:
  - name: mismatch
    stdin: { text: "actual" }
    expect:
      stdout: { text: "expected" }
`)

	stdout, _, err := executeCommand(t,
		"--cli", put, "--test-root", testRoot, "run", suitesDir)

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "FAIL")
	assert.Contains(t, stdout, "stdout mismatch")
}

func TestRunCommand_MissingBinaryIsCommandError(t *testing.T) {
	_, suitesDir, testRoot := writeRunFixture(t, passingSuite)

	_, _, err := executeCommand(t,
		"--cli", filepath.Join(testRoot, "missing"), "--test-root", testRoot, "run", suitesDir)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "executable not found")
}

func TestRunCommand_MissingSuitesDir(t *testing.T) {
	_, _, err := executeCommand(t, "run", filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_InvalidSuiteIsCommandError(t *testing.T) {
	put, suitesDir, testRoot := writeRunFixture(t, "name: broken\ncases: []\n")

	_, _, err := executeCommand(t,
		"--cli", put, "--test-root", testRoot, "run", suitesDir)

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_JSONOutput(t *testing.T) {
	put, suitesDir, testRoot := writeRunFixture(t, passingSuite)

	stdout, _, err := executeCommand(t,
		"--cli", put, "--test-root", testRoot, "--format", "json", "run", suitesDir)

	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   RunSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Passed)
	assert.Equal(t, 0, resp.Data.Failed)
	require.Len(t, resp.Data.Suites, 1)
	assert.Equal(t, "smoke", resp.Data.Suites[0].Suite)
}

func TestRunCommand_FilterSelectsSuites(t *testing.T) {
	put, suitesDir, testRoot := writeRunFixture(t, passingSuite)
	require.NoError(t, os.WriteFile(filepath.Join(suitesDir, "other.yaml"), []byte(`
name: other
cases:
  - name: always_fails
    stdin: { text: "a" }
    expect:
      stdout: { text: "b" }
`), 0o644))

	_, _, err := executeCommand(t,
		"--cli", put, "--test-root", testRoot, "run", suitesDir, "--filter", "smoke")

	require.NoError(t, err, "the failing suite must be filtered out")
}

func TestRunCommand_NoSuitesFound(t *testing.T) {
	stdout, _, err := executeCommand(t, "run", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, stdout, "No suites found.")
}

func TestRunCommand_RecordsRunLog(t *testing.T) {
	put, suitesDir, testRoot := writeRunFixture(t, passingSuite)
	dbPath := filepath.Join(testRoot, "runs.db")

	_, _, err := executeCommand(t,
		"--cli", put, "--test-root", testRoot, "run", suitesDir, "--record", dbPath)

	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	records, err := st.Runs(context.Background(), "smoke")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "stdin_roundtrip", records[0].Case)
	assert.True(t, records[0].Pass)
	assert.Equal(t, 1, records[1].ExitCode)
}
