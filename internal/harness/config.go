package harness

import (
	"os"
	"path/filepath"
)

// ScratchDirName is the directory created under the test root to hold
// per-case scratch directories.
const ScratchDirName = "scratch"

// Exit codes the program under test is allowed to return.
const (
	PUTSuccess = 0
	PUTFailure = 1
)

// Environment variables read by FromEnv.
const (
	EnvPUTPath  = "CLICHECK_PUT"
	EnvTestRoot = "CLICHECK_TEST_ROOT"
)

// Config holds the run-wide harness settings. It is constructed once at
// startup and passed by value into NewRunner, NewScratch and New; after
// that nothing mutates it.
type Config struct {
	// PUTPath is the path to the program under test.
	PUTPath string

	// ScratchRoot is the directory under which per-case scratch
	// directories are created.
	ScratchRoot string

	// WorkDir is the working directory for invocations that have no
	// scratch directory assigned. Empty means the harness process's
	// current directory.
	WorkDir string
}

// FromEnv builds a Config from CLICHECK_PUT and CLICHECK_TEST_ROOT.
// This is the entry point for go-test-driven suites, where there is no
// command line front end to resolve flags.
func FromEnv() Config {
	root := os.Getenv(EnvTestRoot)
	if root == "" {
		root = "."
	}
	return Config{
		PUTPath:     os.Getenv(EnvPUTPath),
		ScratchRoot: filepath.Join(root, ScratchDirName),
	}
}
