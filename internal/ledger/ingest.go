package ledger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgallion1/mdledger/internal/docs"
	"github.com/dgallion1/mdledger/internal/parser"
	"github.com/dgallion1/mdledger/internal/store"
)

// Options selects what an ingest pass writes. Full ingests every table;
// otherwise only sections whose H2 name contains H2Target
// (case-insensitive) are written. Accumulation for table configs always
// covers every section.
type Options struct {
	Full     bool
	H2Target string
}

// Report summarizes one ingest pass.
type Report struct {
	File         string
	RowsIngested int
	PerH2        map[string]int
	TableConfigs []store.TableConfig
	Collisions   []store.Collision
}

// Ingest scans a markdown file for pipe-delimited rows grouped under H2
// headers and upserts them, together with per-section table configuration,
// in one store transaction. Blank lines, lines before the first H2, lines
// without a pipe, and fenced lines are never rows.
func (s *Service) Ingest(fileArg string, opts Options) (Report, error) {
	path, name, err := docs.Resolve(s.root, fileArg)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %s", ErrMissingFile, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	lines := parser.SplitLines(string(data))

	report := Report{File: name, PerH2: map[string]int{}}
	ingestedAt := time.Now()
	target := strings.ToLower(opts.H2Target)

	var (
		rows       []store.Row
		configs    []store.TableConfig
		currentH2  string
		tableStart int // first content line of the current H2
		rawRows    []string
		inFence    bool
	)

	closeSection := func(lineEnd int) {
		if currentH2 == "" || len(rawRows) == 0 {
			return
		}
		colCount := 0
		for _, r := range rawRows {
			if n := len(strings.Split(r, "|")); n > colCount {
				colCount = n
			}
		}
		configs = append(configs, store.TableConfig{
			File:      name,
			H2:        currentH2,
			ColCount:  colCount,
			LineStart: tableStart,
			LineEnd:   lineEnd,
		})
	}

	for idx, line := range lines {
		lineNo := idx + 1
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		if strings.HasPrefix(trimmed, "## ") {
			closeSection(lineNo - 1)
			currentH2 = strings.TrimSpace(trimmed[3:])
			tableStart = lineNo + 1
			rawRows = nil
			if _, ok := report.PerH2[currentH2]; !ok {
				report.PerH2[currentH2] = 0
			}
			continue
		}

		if trimmed == "" || currentH2 == "" {
			continue
		}
		if !strings.Contains(trimmed, "|") {
			continue
		}

		rawRows = append(rawRows, trimmed)

		shouldIngest := opts.Full ||
			(target != "" && strings.Contains(strings.ToLower(currentH2), target))
		if !shouldIngest {
			continue
		}

		parts := splitRow(trimmed)
		rows = append(rows, store.Row{
			RowID:      parts[0],
			H2:         strings.ToLower(currentH2),
			Text:       part(parts, 1),
			Src:        part(parts, 2),
			Type:       part(parts, 3),
			File:       name,
			LineNo:     lineNo,
			Status:     store.StatusClean,
			IngestedAt: ingestedAt,
		})
		report.RowsIngested++
		report.PerH2[currentH2]++
	}

	closeSection(len(lines))

	collisions, err := s.store.ApplyIngest(rows, configs)
	if err != nil {
		return Report{}, err
	}
	for _, c := range collisions {
		s.log.Warn("row id collision: overwrote row from another file",
			"row_id", c.RowID, "old_file", c.OldFile, "new_file", c.NewFile)
	}

	report.TableConfigs = configs
	report.Collisions = collisions
	return report, nil
}

// splitRow splits a pipe row into trimmed parts.
func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func part(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}
