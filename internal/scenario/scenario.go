// Package scenario defines the declarative suite format for black-box
// CLI test cases.
//
// A suite is a YAML file holding a list of cases. Each case describes
// one invocation of the program under test: files and directories to
// materialize in a fresh scratch directory, the argument vector, bytes
// to feed on stdin, and the expected stdout, stderr and exit code.
//
//	name: compression
//	description: "Compression error paths"
//	cases:
//	  - name: not_overwrite_existing_file
//	    setup:
//	      files:
//	        file_1.bin: { hex: "0001 0002" }
//	        existing.txt: { text: "Do not overwrite this file!" }
//	    args: ["-c", "file_1.bin", "-o", "existing.txt"]
//	    expect:
//	      exit: 1
//	      stderr: { mode: contains, text: "already exists" }
//	      stdout: { mode: ignore }
//
// Payload values are authored as either text or whitespace-separated
// hex; exactly one of the two forms must be given. An omitted stream
// expectation means "exactly empty", matching the harness defaults.
package scenario

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite is one YAML suite file.
type Suite struct {
	// Name uniquely identifies the suite. It becomes the first path
	// element of each case's scratch directory.
	Name string `yaml:"name"`

	// Description explains what the suite exercises.
	Description string `yaml:"description,omitempty"`

	// Cases are executed in order, each in a fresh scratch directory.
	Cases []Case `yaml:"cases"`
}

// Case is a single PUT invocation with its expectations.
type Case struct {
	// Name identifies the case. It must be unique within the suite;
	// it keys the case's scratch directory.
	Name string `yaml:"name"`

	// Setup lists files and directories created in the scratch
	// directory before the invocation.
	Setup *Setup `yaml:"setup,omitempty"`

	// Args is the argument vector. Mutually exclusive with ArgLine.
	Args []string `yaml:"args,omitempty"`

	// ArgLine is a single argument string, split with shell
	// word-splitting rules at execution time.
	ArgLine string `yaml:"arg_line,omitempty"`

	// Stdin is fed verbatim to the PUT's standard input.
	Stdin *Payload `yaml:"stdin,omitempty"`

	// Expect holds the expected outcome. An absent block means empty
	// streams and exit code 0.
	Expect Expect `yaml:"expect,omitempty"`
}

// Setup describes filesystem state materialized before a case runs.
// Paths are relative to the case's scratch directory.
type Setup struct {
	Files map[string]Payload `yaml:"files,omitempty"`
	Dirs  []string           `yaml:"dirs,omitempty"`
}

// Payload is a byte value authored as text or hex.
type Payload struct {
	Text *string `yaml:"text,omitempty"`
	Hex  *string `yaml:"hex,omitempty"`
}

// IsText reports whether the payload was authored as text.
func (p *Payload) IsText() bool { return p != nil && p.Text != nil }

// Bytes decodes the payload. Hex values may contain spaces between byte
// groups ("0001 0002").
func (p *Payload) Bytes() ([]byte, error) {
	switch {
	case p == nil:
		return nil, nil
	case p.Text != nil:
		return []byte(*p.Text), nil
	case p.Hex != nil:
		clean := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\t' || r == '\n' {
				return -1
			}
			return r
		}, *p.Hex)
		data, err := hex.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("invalid hex payload: %w", err)
		}
		return data, nil
	default:
		return nil, nil
	}
}

func (p *Payload) validate() error {
	if p != nil && p.Text != nil && p.Hex != nil {
		return fmt.Errorf("payload must not set both text and hex")
	}
	if _, err := p.Bytes(); err != nil {
		return err
	}
	return nil
}

// Expect describes the expected outcome of one invocation.
type Expect struct {
	// Exit is the expected exit code. Defaults to 0.
	Exit int `yaml:"exit,omitempty"`

	// Stdout and Stderr expectations. Nil means exactly empty.
	Stdout *StreamExpect `yaml:"stdout,omitempty"`
	Stderr *StreamExpect `yaml:"stderr,omitempty"`
}

// Stream match modes.
const (
	ModeExact    = "exact"
	ModeContains = "contains"
	ModeIgnore   = "ignore"
)

// StreamExpect is the expectation for a single output stream.
type StreamExpect struct {
	// Mode is one of exact, contains or ignore. Defaults to exact.
	Mode string `yaml:"mode,omitempty"`

	Payload `yaml:",inline"`
}

// MatchMode returns the effective mode, resolving the default.
func (s *StreamExpect) MatchMode() string {
	if s == nil || s.Mode == "" {
		return ModeExact
	}
	return s.Mode
}

func (s *StreamExpect) validate(stream string) error {
	if s == nil {
		return nil
	}
	switch s.Mode {
	case "", ModeExact, ModeContains, ModeIgnore:
	default:
		return fmt.Errorf("%s: invalid match mode %q", stream, s.Mode)
	}
	if s.Mode == ModeIgnore && (s.Text != nil || s.Hex != nil) {
		return fmt.Errorf("%s: ignore mode must not carry a value", stream)
	}
	if err := s.Payload.validate(); err != nil {
		return fmt.Errorf("%s: %w", stream, err)
	}
	return nil
}

// Load reads and parses a suite file. Unknown fields are rejected so a
// typo like "expects:" fails loudly instead of silently weakening a
// case.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := suite.Validate(); err != nil {
		return nil, fmt.Errorf("invalid suite %s: %w", path, err)
	}
	return &suite, nil
}

// Validate checks required fields and the per-suite invariants, most
// importantly that case names are unique: they key scratch directories,
// and a collision would let one case clobber another's workspace.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i, c := range s.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		seen[c.Name] = true

		if len(c.Args) > 0 && c.ArgLine != "" {
			return fmt.Errorf("case %q: args and arg_line are mutually exclusive", c.Name)
		}
		if err := c.Stdin.validate(); err != nil {
			return fmt.Errorf("case %q: stdin: %w", c.Name, err)
		}
		if c.Setup != nil {
			for path, payload := range c.Setup.Files {
				if err := payload.validate(); err != nil {
					return fmt.Errorf("case %q: setup file %q: %w", c.Name, path, err)
				}
			}
		}
		if err := c.Expect.Stdout.validate("stdout"); err != nil {
			return fmt.Errorf("case %q: expect: %w", c.Name, err)
		}
		if err := c.Expect.Stderr.validate("stderr"); err != nil {
			return fmt.Errorf("case %q: expect: %w", c.Name, err)
		}
	}
	return nil
}
