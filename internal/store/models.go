package store

import "time"

// Row status values. Ingest writes clean; a row update transitions to updated.
const (
	StatusClean   = "clean"
	StatusUpdated = "updated"
)

// Section is a persisted header section.
type Section struct {
	ID        int64
	File      string
	Text      string
	Level     int
	LineStart int
	LineEnd   int
	ParentID  *int64 // nil for a root section
	IndexedAt time.Time
	FileMtime time.Time // zero for legacy records with no recorded mtime
}

// Row is a persisted ledger row, keyed globally by RowID.
type Row struct {
	RowID      string
	H2         string // lower-cased enclosing H2 name
	Text       string
	Src        string
	Type       string
	File       string
	LineNo     int
	Status     string
	IngestedAt time.Time
}

// TableConfig describes one H2-scoped table: its content line range and the
// maximum column count observed among its rows at ingest time.
type TableConfig struct {
	File      string
	H2        string
	ColCount  int
	LineStart int
	LineEnd   int
}
