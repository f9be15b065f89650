package harness

import (
	"errors"
	"fmt"
)

// ConfigError reports a harness precondition failure: a missing or
// non-executable binary, a scratch path collision, a malformed argument
// line. It is raised before any process is spawned and is disjoint from
// anything the program under test does. PUT behavior (non-zero exit,
// unexpected output) is never a ConfigError; it is data in a Result,
// judged by Check.
type ConfigError struct {
	Op   string // failing operation: "run", "scratch", ...
	Path string // filesystem path involved, if any
	Msg  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
