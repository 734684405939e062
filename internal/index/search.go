package index

import (
	"os"
	"strings"

	"github.com/dgallion1/mdledger/internal/docs"
	"github.com/dgallion1/mdledger/internal/parser"
	"github.com/dgallion1/mdledger/internal/store"
)

// ContentMatch is one content-search hit with its section provenance.
// Section is nil when the match falls outside every indexed section.
type ContentMatch struct {
	File    string
	LineNo  int
	Line    string
	Context []string // match line with N lines before/after, clamped to file bounds
	Section *store.Section
	Path    []string // full header path, root first; nil without a section
}

// FindContent searches raw file content for a case-insensitive substring,
// optionally scoped to one file, attaching the enclosing section and its
// header path to each match. Scanned files are refreshed first so line
// numbers and section ranges agree with the index. Canonical names resolve
// under the document root, so a same-named file in the working directory
// cannot shadow the root's copy.
func (ix *Indexer) FindContent(query, fileArg string, contextLines int) ([]ContentMatch, error) {
	if contextLines < 0 {
		contextLines = 0
	}

	var names []string
	if fileArg != "" {
		_, name, err := docs.Resolve(ix.root, fileArg)
		if err != nil {
			return nil, err
		}
		names = []string{name}
	} else {
		indexed, err := ix.store.IndexedFiles()
		if err != nil {
			return nil, err
		}
		names = indexed
	}

	needle := strings.ToLower(query)
	var matches []ContentMatch

	for _, name := range names {
		path := docs.Path(ix.root, name)
		if _, err := ix.ensureFreshAt(path, name); err != nil {
			ix.log.Warn("skipping unreadable file", "file", name, "error", err)
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			ix.log.Warn("skipping unreadable file", "file", name, "error", err)
			continue
		}
		lines := parser.SplitLines(string(data))

		for i, line := range lines {
			if !strings.Contains(strings.ToLower(line), needle) {
				continue
			}
			lineNo := i + 1

			start := max(0, i-contextLines)
			end := min(len(lines), i+contextLines+1)
			ctx := make([]string, end-start)
			copy(ctx, lines[start:end])

			m := ContentMatch{File: name, LineNo: lineNo, Line: line, Context: ctx}

			sec, err := ix.store.SectionForLine(name, lineNo)
			if err != nil {
				return nil, err
			}
			if sec != nil {
				path, err := ix.store.SectionPath(sec)
				if err != nil {
					return nil, err
				}
				m.Section = sec
				m.Path = path
			}

			matches = append(matches, m)
		}
	}

	return matches, nil
}
