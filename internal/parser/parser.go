// Package parser extracts the ATX header structure of a markdown document:
// header tokenization, section boundaries, and parent hierarchy.
package parser

import (
	"os"
	"strings"
)

// Header is a raw header found in a document.
type Header struct {
	Text   string
	Level  int // 1-6 for H1-H6
	LineNo int // 1-based line number of the header line
}

// Section is a header with its content boundaries and hierarchy resolved.
// LineStart/LineEnd are inclusive, 1-based, and cover content only (the
// header line itself is excluded). A section whose next header follows
// immediately is empty: LineEnd == LineStart-1.
type Section struct {
	Text      string
	Level     int
	LineStart int
	LineEnd   int

	// ParentIdx is the index within the same section list of the nearest
	// preceding section with a strictly lower level, or -1 for a root.
	ParentIdx int
}

// SplitLines splits file content into lines the way the rest of the system
// counts them: "\n" separated, a trailing newline does not produce a final
// empty line.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// ParseFile reads a markdown file and returns its sections with boundaries
// and hierarchy resolved.
func ParseFile(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := SplitLines(string(data))
	headers := Tokenize(lines)
	sections := Boundaries(headers, len(lines))
	BuildHierarchy(sections)
	return sections, nil
}
