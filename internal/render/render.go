// Package render converts markdown section content to HTML using goldmark.
package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// HTML renders markdown lines (as returned by section content lookups) to
// HTML.
func HTML(lines []string) (string, error) {
	md := goldmark.New()
	var buf bytes.Buffer
	if err := md.Convert([]byte(strings.Join(lines, "\n")), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
