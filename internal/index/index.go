// Package index maintains the structural header index: batch indexing,
// mtime-based staleness checks with reindex-on-read, and the section and
// content search operations built on top of it.
package index

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgallion1/mdledger/internal/docs"
	"github.com/dgallion1/mdledger/internal/parser"
	"github.com/dgallion1/mdledger/internal/store"
)

// Indexer runs structural indexing and queries against one store and one
// document root.
type Indexer struct {
	store *store.Store
	root  string
	log   *slog.Logger
}

func New(st *store.Store, root string, log *slog.Logger) *Indexer {
	return &Indexer{store: st, root: root, log: log}
}

// Result summarizes a batch index run.
type Result struct {
	FilesScanned   int
	FilesIndexed   int
	HeadersIndexed int
}

// Index indexes the markdown file or directory at path. Per-file failures
// are logged and skipped; the batch continues. A path yielding no markdown
// files or a file yielding no headers is informational, not an error.
func (ix *Indexer) Index(path string, recursive bool) (Result, error) {
	target := path
	if _, err := os.Stat(target); err != nil {
		resolved, _, rerr := docs.Resolve(ix.root, path)
		if rerr != nil {
			return Result{}, fmt.Errorf("path not found: %s", path)
		}
		target = resolved
	}

	files, err := docs.ListMarkdown(target, recursive)
	if err != nil {
		return Result{}, err
	}

	var res Result
	res.FilesScanned = len(files)

	for _, file := range files {
		n, err := ix.indexFile(file)
		if err != nil {
			ix.log.Error("indexing failed, skipping file", "file", file, "error", err)
			continue
		}
		if n == 0 {
			ix.log.Info("no headers found", "file", file)
			continue
		}
		res.FilesIndexed++
		res.HeadersIndexed += n
	}

	return res, nil
}

// indexFile reindexes a single file: parse afresh, then atomically replace
// its section set in the store together with the current mtime.
func (ix *Indexer) indexFile(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	sections, err := parser.ParseFile(path)
	if err != nil {
		return 0, err
	}
	if len(sections) == 0 {
		return 0, nil
	}

	name := docs.Name(ix.root, path)
	if err := ix.store.ReplaceSections(name, sections, info.ModTime(), time.Now()); err != nil {
		return 0, err
	}

	ix.log.Info("indexed", "file", name, "headers", len(sections))
	return len(sections), nil
}

// EnsureFresh is the documented precondition of every structural read: if
// the file is unindexed, or its on-disk mtime is strictly newer than the
// recorded one (a missing recorded mtime counts as stale), the file is
// reindexed. It reports whether a reindex happened and the file's canonical
// store name.
func (ix *Indexer) EnsureFresh(fileArg string) (reindexed bool, name string, err error) {
	path, name, err := docs.Resolve(ix.root, fileArg)
	if err != nil {
		return false, "", err
	}
	reindexed, err = ix.ensureFreshAt(path, name)
	if err != nil {
		return false, "", err
	}
	return reindexed, name, nil
}

// ensureFreshAt runs the freshness check for a file already resolved to its
// on-disk path and canonical store name.
func (ix *Indexer) ensureFreshAt(path, name string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	stored, found, err := ix.store.FileMtime(name)
	if err != nil {
		return false, err
	}

	fresh := found && !stored.IsZero() && !info.ModTime().After(stored)
	if fresh {
		return false, nil
	}

	if found {
		ix.log.Info("file modified, reindexing", "file", name)
	} else {
		ix.log.Info("file not indexed, indexing", "file", name)
	}
	if _, err := ix.indexFile(path); err != nil {
		return false, err
	}
	return true, nil
}

// Headers returns a file's sections in document order. It first runs the
// EnsureFresh precondition, so reading headers of a modified file reindexes
// it as a side effect.
func (ix *Indexer) Headers(fileArg string) ([]store.Section, error) {
	_, name, err := ix.EnsureFresh(fileArg)
	if err != nil {
		return nil, err
	}
	return ix.store.SectionsForFile(name)
}

// FindSection searches indexed header texts for a case-insensitive
// substring, optionally scoped to one file. It queries the index as it
// stands; callers wanting freshness guarantees index first.
func (ix *Indexer) FindSection(query, fileArg string) ([]store.Section, error) {
	name := ""
	if fileArg != "" {
		if _, n, err := docs.Resolve(ix.root, fileArg); err == nil {
			name = n
		} else {
			name = fileArg
		}
	}
	return ix.store.SearchSections(query, name)
}

// SectionContent returns the raw lines of an inclusive 1-based range of a
// document, as reported by Headers or FindSection.
func (ix *Indexer) SectionContent(fileArg string, start, end int) ([]string, error) {
	path, _, err := docs.Resolve(ix.root, fileArg)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := parser.SplitLines(string(data))

	if start < 1 || end < start || start > len(lines) {
		return nil, fmt.Errorf("line range %d-%d out of bounds (1-%d)", start, end, len(lines))
	}
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start-1 : end], nil
}
