package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airspacetools/clicheck/internal/scenario"
)

// echoPUT mirrors stdin to stdout and fails with a recognizable message
// when asked to overwrite an existing output file. Enough surface to
// exercise suite execution without a real compressor.
const echoPUT = `
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

type memRecorder struct {
	records []RunRecord
}

func (m *memRecorder) Record(_ context.Context, rec RunRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func strptr(s string) *string { return &s }

func TestRunSuite_PassAndFailAggregation(t *testing.T) {
	put := writeScript(t, echoPUT)
	h := New(Config{PUTPath: put, ScratchRoot: t.TempDir()})

	suite := &scenario.Suite{
		Name: "smoke",
		Cases: []scenario.Case{
			{
				Name:  "stdin_roundtrip",
				Stdin: &scenario.Payload{Hex: strptr("0001 0002")},
				Expect: scenario.Expect{
					Stdout: &scenario.StreamExpect{Payload: scenario.Payload{Hex: strptr("0001 0002")}},
				},
			},
			{
				Name:  "wrong_expectation",
				Stdin: &scenario.Payload{Text: strptr("actual")},
				Expect: scenario.Expect{
					Stdout: &scenario.StreamExpect{Payload: scenario.Payload{Text: strptr("expected")}},
				},
			},
		},
	}

	result, err := h.RunSuite(context.Background(), suite)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Cases, 2)
	assert.True(t, result.Cases[0].Pass)
	assert.False(t, result.Cases[1].Pass)
	require.NotEmpty(t, result.Cases[1].Errors)
	assert.Contains(t, result.Cases[1].Errors[0], "stdout mismatch")
}

func TestRunSuite_MaterializesSetupAndUsesScratchDir(t *testing.T) {
	put := writeScript(t, echoPUT)
	root := t.TempDir()
	h := New(Config{PUTPath: put, ScratchRoot: root})

	suite := &scenario.Suite{
		Name: "setup",
		Cases: []scenario.Case{
			{
				Name: "refuses_overwrite",
				Setup: &scenario.Setup{
					Files: map[string]scenario.Payload{
						"existing_file.txt": {Text: strptr("Do not overwrite this file!")},
					},
					Dirs: []string{"nested/dir"},
				},
				Args:  []string{"-o", "existing_file.txt"},
				Stdin: &scenario.Payload{Text: strptr("payload")},
				Expect: scenario.Expect{
					Exit:   1,
					Stderr: &scenario.StreamExpect{Mode: scenario.ModeContains, Payload: scenario.Payload{Text: strptr("already exists")}},
					Stdout: &scenario.StreamExpect{Mode: scenario.ModeIgnore},
				},
			},
		},
	}

	result, err := h.RunSuite(context.Background(), suite)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)

	caseDir := filepath.Join(root, "setup", "refuses_overwrite")
	assert.FileExists(t, filepath.Join(caseDir, "existing_file.txt"))
	assert.DirExists(t, filepath.Join(caseDir, "nested", "dir"))
}

func TestRunSuite_ArgLineCases(t *testing.T) {
	put := writeScript(t, `printf '%s\n' "$@"`)
	h := New(Config{PUTPath: put, ScratchRoot: t.TempDir()})

	suite := &scenario.Suite{
		Name: "argline",
		Cases: []scenario.Case{
			{
				Name:    "tokenized",
				ArgLine: `-c 'my file.bin'`,
				Expect: scenario.Expect{
					Stdout: &scenario.StreamExpect{Payload: scenario.Payload{Text: strptr("-c\nmy file.bin\n")}},
				},
			},
		},
	}

	result, err := h.RunSuite(context.Background(), suite)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)
}

func TestRunSuite_ConfigErrorAbortsRun(t *testing.T) {
	h := New(Config{PUTPath: filepath.Join(t.TempDir(), "missing"), ScratchRoot: t.TempDir()})

	suite := &scenario.Suite{
		Name:  "broken",
		Cases: []scenario.Case{{Name: "never_runs"}},
	}

	_, err := h.RunSuite(context.Background(), suite)

	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestRunSuite_RecordsEachCase(t *testing.T) {
	put := writeScript(t, "cat")
	rec := &memRecorder{}
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h := New(Config{PUTPath: put, ScratchRoot: t.TempDir()},
		WithRecorder(rec),
		WithNow(func() time.Time { return fixed }),
	)

	suite := &scenario.Suite{
		Name: "recorded",
		Cases: []scenario.Case{
			{Name: "empty_run"},
			{
				Name:   "failing_run",
				Stdin:  &scenario.Payload{Text: strptr("data")},
				Expect: scenario.Expect{Stdout: &scenario.StreamExpect{Payload: scenario.Payload{Text: strptr("other")}}},
			},
		},
	}

	_, err := h.RunSuite(context.Background(), suite)
	require.NoError(t, err)

	require.Len(t, rec.records, 2)
	assert.Equal(t, "recorded", rec.records[0].Suite)
	assert.Equal(t, "empty_run", rec.records[0].Case)
	assert.True(t, rec.records[0].Pass)
	assert.Equal(t, fixed, rec.records[0].StartedAt)
	assert.Equal(t, "failing_run", rec.records[1].Case)
	assert.False(t, rec.records[1].Pass)
	assert.Equal(t, []string{put}, rec.records[1].Argv)
}

func TestMaterializeSetup_NilSetupIsNoop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, materializeSetup(dir, nil))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
