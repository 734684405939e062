package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Collision records an ingest upsert that replaced a row originating from a
// different file. Row ids are only unique ledger-wide, so this is the
// observable trace of a cross-file identifier clash.
type Collision struct {
	RowID   string
	OldFile string
	NewFile string
}

// ApplyIngest writes one ingest pass — rows and table configs — as a single
// transaction. Rows upsert by row_id, configs by (file, h2). Returned
// collisions are rows that overwrote a record from another file.
func (s *Store) ApplyIngest(rows []Row, configs []TableConfig) ([]Collision, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var collisions []Collision

	rowStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO ledger (row_id, h2, text, src, type, file, line_no, status, ingest_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare row upsert: %w", err)
	}
	defer rowStmt.Close()

	for _, r := range rows {
		var oldFile string
		err := tx.QueryRow(`SELECT file FROM ledger WHERE row_id = ?`, r.RowID).Scan(&oldFile)
		switch {
		case err == sql.ErrNoRows:
			// new row
		case err != nil:
			return nil, fmt.Errorf("check row %s: %w", r.RowID, err)
		case oldFile != r.File:
			collisions = append(collisions, Collision{RowID: r.RowID, OldFile: oldFile, NewFile: r.File})
		}

		if _, err := rowStmt.Exec(r.RowID, r.H2, r.Text, r.Src, r.Type,
			r.File, r.LineNo, r.Status, encodeTime(r.IngestedAt)); err != nil {
			return nil, fmt.Errorf("upsert row %s: %w", r.RowID, err)
		}
	}

	cfgStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO table_config (file_name, h2, col_count, line_start, line_end)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("prepare config upsert: %w", err)
	}
	defer cfgStmt.Close()

	for _, c := range configs {
		if _, err := cfgStmt.Exec(c.File, c.H2, c.ColCount, c.LineStart, c.LineEnd); err != nil {
			return nil, fmt.Errorf("upsert table config %s/%s: %w", c.File, c.H2, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return collisions, nil
}

// GetRow fetches a ledger row by id, or nil if absent.
func (s *Store) GetRow(rowID string) (*Row, error) {
	row := s.db.QueryRow(`
		SELECT row_id, h2, text, src, type, file, line_no, status, ingest_ts
		FROM ledger
		WHERE row_id = ?
	`, rowID)

	r, err := scanRow(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get row: %w", err)
	}
	return r, nil
}

// QueryRows returns ledger rows, optionally filtered by (lower-cased) h2
// section name and/or row type.
func (s *Store) QueryRows(h2, typ string) ([]Row, error) {
	sqlText := `
		SELECT row_id, h2, text, src, type, file, line_no, status, ingest_ts
		FROM ledger
		WHERE 1=1
	`
	var args []any
	if h2 != "" {
		sqlText += " AND h2 = ?"
		args = append(args, h2)
	}
	if typ != "" {
		sqlText += " AND type = ?"
		args = append(args, typ)
	}
	sqlText += " ORDER BY file, line_no"

	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// UpdateRowText records a successful row update: new text, status updated,
// fresh timestamp.
func (s *Store) UpdateRowText(rowID, text string, at time.Time) error {
	res, err := s.db.Exec(`
		UPDATE ledger SET text = ?, status = ?, ingest_ts = ? WHERE row_id = ?
	`, text, StatusUpdated, encodeTime(at), rowID)
	if err != nil {
		return fmt.Errorf("update row %s: %w", rowID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("update row %s: %d rows affected", rowID, n)
	}
	return nil
}

// TableConfigsForFile returns the table configs recorded for a file.
func (s *Store) TableConfigsForFile(file string) ([]TableConfig, error) {
	rows, err := s.db.Query(`
		SELECT file_name, h2, col_count, line_start, line_end
		FROM table_config
		WHERE file_name = ?
		ORDER BY line_start
	`, file)
	if err != nil {
		return nil, fmt.Errorf("query table configs: %w", err)
	}
	defer rows.Close()

	var out []TableConfig
	for rows.Next() {
		var c TableConfig
		if err := rows.Scan(&c.File, &c.H2, &c.ColCount, &c.LineStart, &c.LineEnd); err != nil {
			return nil, fmt.Errorf("scan table config: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanRow(r rowScanner) (*Row, error) {
	var row Row
	var ts string
	if err := r.Scan(&row.RowID, &row.H2, &row.Text, &row.Src, &row.Type,
		&row.File, &row.LineNo, &row.Status, &ts); err != nil {
		return nil, err
	}
	row.IngestedAt = decodeTime(ts)
	return &row, nil
}
