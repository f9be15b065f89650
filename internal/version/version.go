// Package version extracts the compression library's semantic version
// from its C header, used as ground truth for version-string assertions
// against the program under test.
package version

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Fields scanned from the definitions source, in extraction order.
var fields = []string{"MAJOR", "MINOR", "RELEASE"}

var fieldPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(fields))
	for _, f := range fields {
		patterns[f] = regexp.MustCompile(`#define\s+CMP_VERSION_` + f + `\s+(\d+)`)
	}
	return patterns
}()

// Triple is a semantic version, immutable once extracted.
type Triple struct {
	Major   int
	Minor   int
	Release int
}

// String formats the triple as "major.minor.release".
func (t Triple) String() string {
	return fmt.Sprintf("%d.%d.%d", t.Major, t.Minor, t.Release)
}

// Extract scans the definitions source for the three labeled version
// fields. A missing field is an error naming that field.
func Extract(src []byte) (Triple, error) {
	var parts [3]int
	for i, field := range fields {
		match := fieldPatterns[field].FindSubmatch(src)
		if match == nil {
			return Triple{}, fmt.Errorf("unable to find %s version string", field)
		}
		n, err := strconv.Atoi(string(match[1]))
		if err != nil {
			return Triple{}, fmt.Errorf("invalid %s version number %q: %w", field, match[1], err)
		}
		parts[i] = n
	}
	return Triple{Major: parts[0], Minor: parts[1], Release: parts[2]}, nil
}

// ExtractFile is Extract over a file's contents.
func ExtractFile(path string) (Triple, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Triple{}, fmt.Errorf("failed to read version definitions: %w", err)
	}
	return Extract(data)
}
