package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dgallion1/mdledger/internal/parser"
)

// maxParentDepth bounds the parent-chain walk. The hierarchy cannot nest
// deeper than six header levels; anything past this means a corrupted store.
const maxParentDepth = 16

// ReplaceSections atomically replaces the indexed sections of one file:
// existing rows for the file are deleted and the new section list inserted
// in document order, with parent references resolved to row ids, all in one
// transaction.
func (s *Store) ReplaceSections(file string, sections []parser.Section, mtime, indexedAt time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM header_index WHERE file = ?`, file); err != nil {
		return fmt.Errorf("clear sections for %s: %w", file, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO header_index (file, header_text, level, line_start, line_end, parent_id, indexed_ts, file_mtime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int64, len(sections))
	ts := encodeTime(indexedAt)

	for i, sec := range sections {
		var parentID any
		if sec.ParentIdx >= 0 {
			parentID = ids[sec.ParentIdx]
		}
		res, err := stmt.Exec(file, sec.Text, sec.Level, sec.LineStart, sec.LineEnd,
			parentID, ts, mtime.UnixNano())
		if err != nil {
			return fmt.Errorf("insert section %q: %w", sec.Text, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("section id: %w", err)
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SectionsForFile returns a file's sections ordered by start line.
func (s *Store) SectionsForFile(file string) ([]Section, error) {
	rows, err := s.db.Query(`
		SELECT id, file, header_text, level, line_start, line_end, parent_id, indexed_ts, file_mtime
		FROM header_index
		WHERE file = ?
		ORDER BY line_start
	`, file)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()
	return scanSections(rows)
}

// FileMtime returns the source mtime recorded for a file. found is false if
// the file has no index record at all; a zero time with found=true is a
// legacy record indexed before mtimes were tracked.
func (s *Store) FileMtime(file string) (mtime time.Time, found bool, err error) {
	var stored sql.NullInt64
	row := s.db.QueryRow(`SELECT file_mtime FROM header_index WHERE file = ? LIMIT 1`, file)
	if err := row.Scan(&stored); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("query mtime: %w", err)
	}
	if !stored.Valid {
		return time.Time{}, true, nil
	}
	return time.Unix(0, stored.Int64), true, nil
}

// SearchSections finds sections whose header text contains the query,
// case-insensitively, optionally limited to one file, ordered by file then
// start line.
func (s *Store) SearchSections(query, file string) ([]Section, error) {
	sqlText := `
		SELECT id, file, header_text, level, line_start, line_end, parent_id, indexed_ts, file_mtime
		FROM header_index
		WHERE header_text LIKE ?
	`
	args := []any{"%" + query + "%"}
	if file != "" {
		sqlText += " AND file = ?"
		args = append(args, file)
	}
	sqlText += " ORDER BY file, line_start"

	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("search sections: %w", err)
	}
	defer rows.Close()
	return scanSections(rows)
}

// SectionForLine returns the innermost section of a file containing the
// given line, preferring the deepest header level, or nil if the line falls
// outside every indexed section.
func (s *Store) SectionForLine(file string, lineNo int) (*Section, error) {
	row := s.db.QueryRow(`
		SELECT id, file, header_text, level, line_start, line_end, parent_id, indexed_ts, file_mtime
		FROM header_index
		WHERE file = ? AND line_start <= ? AND line_end >= ?
		ORDER BY level DESC
		LIMIT 1
	`, file, lineNo, lineNo)

	sec, err := scanSection(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("section for line: %w", err)
	}
	return sec, nil
}

// SectionPath reconstructs the root-to-section header path by walking parent
// references upward. The walk is iterative and bounded so a corrupted store
// cannot hang it.
func (s *Store) SectionPath(sec *Section) ([]string, error) {
	path := []string{sec.Text}
	parentID := sec.ParentID

	for depth := 0; parentID != nil; depth++ {
		if depth >= maxParentDepth {
			return nil, fmt.Errorf("parent chain for section %d exceeds depth %d (corrupt index?)",
				sec.ID, maxParentDepth)
		}
		var text string
		var next sql.NullInt64
		row := s.db.QueryRow(`SELECT header_text, parent_id FROM header_index WHERE id = ?`, *parentID)
		if err := row.Scan(&text, &next); err != nil {
			if err == sql.ErrNoRows {
				break
			}
			return nil, fmt.Errorf("walk parent: %w", err)
		}
		path = append([]string{text}, path...)
		if next.Valid {
			id := next.Int64
			parentID = &id
		} else {
			parentID = nil
		}
	}

	return path, nil
}

// IndexedFiles returns the distinct files present in the header index.
func (s *Store) IndexedFiles() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT file FROM header_index ORDER BY file`)
	if err != nil {
		return nil, fmt.Errorf("query indexed files: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSection(r rowScanner) (*Section, error) {
	var sec Section
	var parentID sql.NullInt64
	var indexedTS string
	var mtime sql.NullInt64

	if err := r.Scan(&sec.ID, &sec.File, &sec.Text, &sec.Level,
		&sec.LineStart, &sec.LineEnd, &parentID, &indexedTS, &mtime); err != nil {
		return nil, err
	}
	if parentID.Valid {
		id := parentID.Int64
		sec.ParentID = &id
	}
	sec.IndexedAt = decodeTime(indexedTS)
	if mtime.Valid {
		sec.FileMtime = time.Unix(0, mtime.Int64)
	}
	return &sec, nil
}

func scanSections(rows *sql.Rows) ([]Section, error) {
	var sections []Section
	for rows.Next() {
		sec, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, *sec)
	}
	return sections, rows.Err()
}
