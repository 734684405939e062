package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/mdledger/internal/docs"
	"github.com/dgallion1/mdledger/internal/parser"
)

// UpdateResult reports where a row update landed.
type UpdateResult struct {
	File   string
	LineNo int
}

// Update rewrites the text column of a single ledger row in its source
// file, then synchronizes the ledger record. The target line must still
// split into exactly 4 pipe-delimited fields; only the text field changes,
// every other line stays byte-identical. The file rewrite is
// atomic-or-nothing (temp file + rename).
func (s *Service) Update(rowID, newText string) (UpdateResult, error) {
	row, err := s.store.GetRow(rowID)
	if err != nil {
		return UpdateResult{}, err
	}
	if row == nil {
		return UpdateResult{}, fmt.Errorf("row %q: %w", rowID, ErrRowNotFound)
	}

	path := docs.Path(s.root, row.File)
	if _, err := os.Stat(path); err != nil {
		return UpdateResult{}, fmt.Errorf("%q (expected at %s): %w", row.File, path, ErrMissingFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return UpdateResult{}, err
	}
	content := string(data)
	trailingNewline := strings.HasSuffix(content, "\n")
	lines := parser.SplitLines(content)

	if row.LineNo < 1 || row.LineNo > len(lines) {
		return UpdateResult{}, fmt.Errorf("line %d in %s (valid: 1-%d): %w",
			row.LineNo, row.File, len(lines), ErrLineOutOfBounds)
	}

	line := strings.TrimSpace(lines[row.LineNo-1])
	parts := splitRow(line)
	if len(parts) != 4 {
		return UpdateResult{}, fmt.Errorf("%s:%d %q splits into %d fields, want 4: %w",
			row.File, row.LineNo, line, len(parts), ErrMalformedRow)
	}

	// Canonical on-disk shape: 4 fields joined by " | ", the text field
	// padded with a single leading/trailing space.
	parts[1] = " " + newText + " "
	lines[row.LineNo-1] = strings.Join(parts, " | ")

	out := strings.Join(lines, "\n")
	if trailingNewline {
		out += "\n"
	}
	if err := writeFileAtomic(path, []byte(out)); err != nil {
		return UpdateResult{}, fmt.Errorf("rewrite %s: %w", row.File, err)
	}

	if err := s.store.UpdateRowText(rowID, newText, time.Now()); err != nil {
		return UpdateResult{}, err
	}

	s.log.Info("updated row", "row_id", rowID, "file", row.File, "line", row.LineNo)
	return UpdateResult{File: row.File, LineNo: row.LineNo}, nil
}

// writeFileAtomic writes via a temp file in the target directory and
// renames it into place, preserving the original file mode.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, info.Mode()); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
