package parser

// Boundaries computes the content line range of each header's section.
// Content starts on the line after the header. A section ends on the line
// before the next header of the same or a higher level; the last such
// section runs to EOF.
func Boundaries(headers []Header, totalLines int) []Section {
	if len(headers) == 0 {
		return nil
	}

	sections := make([]Section, 0, len(headers))

	for i, h := range headers {
		lineEnd := totalLines
		for _, next := range headers[i+1:] {
			if next.Level <= h.Level {
				lineEnd = next.LineNo - 1
				break
			}
		}

		sections = append(sections, Section{
			Text:      h.Text,
			Level:     h.Level,
			LineStart: h.LineNo + 1,
			LineEnd:   lineEnd,
			ParentIdx: -1,
		})
	}

	return sections
}
