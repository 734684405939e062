package parser

import "strings"

// Tokenize scans document lines and returns all valid ATX headers in order.
// Lines inside fenced code blocks are skipped, and the fence delimiter line
// itself is never a header. A header needs 1-6 leading '#' characters and a
// non-empty remainder after trimming; 7 or more '#' is not a header.
func Tokenize(lines []string) []Header {
	var headers []Header
	inFence := false

	for idx, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if !strings.HasPrefix(trimmed, "#") {
			continue
		}

		level := 0
		for _, c := range trimmed {
			if c != '#' {
				break
			}
			level++
		}
		if level < 1 || level > 6 {
			continue
		}

		text := strings.TrimSpace(trimmed[level:])
		if text == "" {
			continue
		}

		headers = append(headers, Header{
			Text:   text,
			Level:  level,
			LineNo: idx + 1,
		})
	}

	return headers
}
