// Package ledger ingests pipe-delimited table rows grouped under H2
// headers, answers row queries, and applies single-row in-place updates to
// the source markdown.
package ledger

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/dgallion1/mdledger/internal/store"
)

// Error kinds surfaced by Update. Wrapped with context; check with errors.Is.
var (
	ErrRowNotFound     = errors.New("row not found in ledger")
	ErrMissingFile     = errors.New("markdown file not found")
	ErrLineOutOfBounds = errors.New("line number out of bounds")
	ErrMalformedRow    = errors.New("malformed row")
)

// Service runs ledger operations against one store and one document root.
type Service struct {
	store *store.Store
	root  string
	log   *slog.Logger
}

func New(st *store.Store, root string, log *slog.Logger) *Service {
	return &Service{store: st, root: root, log: log}
}

// Query returns ledger rows filtered by H2 section name and/or row type.
// The H2 filter is lower-cased to match the stored form.
func (s *Service) Query(h2, typ string) ([]store.Row, error) {
	return s.store.QueryRows(strings.ToLower(h2), typ)
}
