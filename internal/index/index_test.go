package index

import (
	"database/sql"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/mdledger/internal/store"
	_ "modernc.org/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIndexer(t *testing.T) (*Indexer, *store.Store, string) {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, root, testLogger()), st, root
}

func writeDoc(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

const sampleDoc = "# A\n## B\ntext\n## C\nend\n"

func TestIndex_SingleFile(t *testing.T) {
	ix, st, root := newTestIndexer(t)
	writeDoc(t, root, "doc.md", sampleDoc)

	res, err := ix.Index(filepath.Join(root, "doc.md"), false)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if res.FilesIndexed != 1 || res.HeadersIndexed != 3 {
		t.Fatalf("expected 1 file / 3 headers, got %+v", res)
	}

	sections, err := st.SectionsForFile("doc.md")
	if err != nil {
		t.Fatalf("sections: %v", err)
	}
	want := []struct {
		text       string
		level      int
		start, end int
	}{
		{"A", 1, 2, 5},
		{"B", 2, 3, 3},
		{"C", 2, 5, 5},
	}
	if len(sections) != len(want) {
		t.Fatalf("expected %d sections, got %d", len(want), len(sections))
	}
	for i, w := range want {
		s := sections[i]
		if s.Text != w.text || s.Level != w.level || s.LineStart != w.start || s.LineEnd != w.end {
			t.Errorf("section %d: expected %q H%d %d-%d, got %q H%d %d-%d",
				i, w.text, w.level, w.start, w.end, s.Text, s.Level, s.LineStart, s.LineEnd)
		}
	}

	// B and C are both children of A.
	if sections[1].ParentID == nil || *sections[1].ParentID != sections[0].ID {
		t.Errorf("expected B under A")
	}
	if sections[2].ParentID == nil || *sections[2].ParentID != sections[0].ID {
		t.Errorf("expected C under A")
	}
}

func TestIndex_Directory(t *testing.T) {
	ix, _, root := newTestIndexer(t)
	writeDoc(t, root, "a.md", "# One\n")
	writeDoc(t, root, "b.md", "# Two\n")
	writeDoc(t, root, "notes.txt", "# not markdown\n")
	writeDoc(t, root, "sub/c.md", "# Three\n")

	res, err := ix.Index(root, false)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if res.FilesIndexed != 2 {
		t.Errorf("expected 2 files without recursion, got %d", res.FilesIndexed)
	}

	res, err = ix.Index(root, true)
	if err != nil {
		t.Fatalf("recursive index: %v", err)
	}
	if res.FilesIndexed != 3 {
		t.Errorf("expected 3 files with recursion, got %d", res.FilesIndexed)
	}
	if res.HeadersIndexed != 3 {
		t.Errorf("expected 3 headers, got %d", res.HeadersIndexed)
	}
}

func TestIndex_SubdirectoryNamesAreRootRelative(t *testing.T) {
	ix, st, root := newTestIndexer(t)
	writeDoc(t, root, "sub/c.md", "# Three\n")

	if _, err := ix.Index(root, true); err != nil {
		t.Fatalf("index: %v", err)
	}

	files, err := st.IndexedFiles()
	if err != nil {
		t.Fatalf("indexed files: %v", err)
	}
	if len(files) != 1 || files[0] != "sub/c.md" {
		t.Errorf("expected [sub/c.md], got %v", files)
	}
}

func TestIndex_NoHeadersIsInformational(t *testing.T) {
	ix, _, root := newTestIndexer(t)
	writeDoc(t, root, "empty.md", "just text\nno headers\n")

	res, err := ix.Index(root, false)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if res.FilesScanned != 1 || res.FilesIndexed != 0 {
		t.Errorf("expected scanned=1 indexed=0, got %+v", res)
	}
}

func TestIndex_MissingPath(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	if _, err := ix.Index("does-not-exist", false); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestIndex_Idempotent(t *testing.T) {
	ix, st, root := newTestIndexer(t)
	writeDoc(t, root, "doc.md", sampleDoc)

	if _, err := ix.Index(root, false); err != nil {
		t.Fatalf("first index: %v", err)
	}
	first, err := st.SectionsForFile("doc.md")
	if err != nil {
		t.Fatalf("sections: %v", err)
	}

	if _, err := ix.Index(root, false); err != nil {
		t.Fatalf("second index: %v", err)
	}
	second, err := st.SectionsForFile("doc.md")
	if err != nil {
		t.Fatalf("sections: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("section count changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		a, b := first[i], second[i]
		if a.Text != b.Text || a.Level != b.Level ||
			a.LineStart != b.LineStart || a.LineEnd != b.LineEnd {
			t.Errorf("section %d changed: %+v vs %+v", i, a, b)
		}
		ap := a.ParentID == nil
		bp := b.ParentID == nil
		if ap != bp {
			t.Errorf("section %d parent presence changed", i)
		}
	}
}

func TestHeaders_ReindexesStaleFile(t *testing.T) {
	ix, _, root := newTestIndexer(t)
	path := writeDoc(t, root, "doc.md", sampleDoc)

	sections, err := ix.Headers("doc.md")
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}

	// Rewrite with an extra header and bump mtime past the recorded one.
	if err := os.WriteFile(path, []byte(sampleDoc+"## D\nmore\n"), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	sections, err = ix.Headers("doc.md")
	if err != nil {
		t.Fatalf("headers after modify: %v", err)
	}
	if len(sections) != 4 {
		t.Errorf("expected reindex to pick up 4 sections, got %d", len(sections))
	}
}

func TestEnsureFresh_States(t *testing.T) {
	ix, _, root := newTestIndexer(t)
	path := writeDoc(t, root, "doc.md", sampleDoc)

	// Unindexed: first touch indexes.
	reindexed, name, err := ix.EnsureFresh("doc.md")
	if err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}
	if !reindexed || name != "doc.md" {
		t.Errorf("expected initial index of doc.md, got reindexed=%v name=%q", reindexed, name)
	}

	// Fresh: untouched file does not reindex.
	reindexed, _, err = ix.EnsureFresh("doc.md")
	if err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}
	if reindexed {
		t.Error("expected no reindex of a fresh file")
	}

	// Stale: strictly newer mtime triggers reindex.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	reindexed, _, err = ix.EnsureFresh("doc.md")
	if err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}
	if !reindexed {
		t.Error("expected reindex of a modified file")
	}
}

func TestEnsureFresh_LegacyRecordWithoutMtime(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ix := New(st, root, testLogger())

	writeDoc(t, root, "doc.md", sampleDoc)
	if _, err := ix.Index(root, false); err != nil {
		t.Fatalf("index: %v", err)
	}

	// Erase the recorded mtime, as an index written before mtimes were
	// tracked would have it.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec(`UPDATE header_index SET file_mtime = NULL`); err != nil {
		db.Close()
		t.Fatalf("clear mtime: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	reindexed, _, err := ix.EnsureFresh("doc.md")
	if err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}
	if !reindexed {
		t.Error("expected a record without a recorded mtime to count as stale")
	}

	// The reindex records a real mtime, so the next touch is fresh.
	reindexed, _, err = ix.EnsureFresh("doc.md")
	if err != nil {
		t.Fatalf("ensure fresh: %v", err)
	}
	if reindexed {
		t.Error("expected the file to be fresh after the reindex")
	}
}

func TestEnsureFresh_MissingFile(t *testing.T) {
	ix, _, _ := newTestIndexer(t)
	if _, _, err := ix.EnsureFresh("ghost.md"); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestFindSection(t *testing.T) {
	ix, _, root := newTestIndexer(t)
	writeDoc(t, root, "a.md", "# Installation\ntext\n# Usage\ntext\n")
	writeDoc(t, root, "b.md", "# Installing plugins\ntext\n")
	if _, err := ix.Index(root, false); err != nil {
		t.Fatalf("index: %v", err)
	}

	matches, err := ix.FindSection("install", "")
	if err != nil {
		t.Fatalf("find section: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(matches), matches)
	}
	// Ordered by file, then start line.
	if matches[0].File != "a.md" || matches[1].File != "b.md" {
		t.Errorf("expected a.md before b.md, got %+v", matches)
	}

	matches, err = ix.FindSection("install", "b.md")
	if err != nil {
		t.Fatalf("find section: %v", err)
	}
	if len(matches) != 1 || matches[0].File != "b.md" {
		t.Errorf("expected only the b.md match, got %+v", matches)
	}
}

func TestSectionContent(t *testing.T) {
	ix, _, root := newTestIndexer(t)
	writeDoc(t, root, "doc.md", "# A\nline two\nline three\n")

	lines, err := ix.SectionContent("doc.md", 2, 3)
	if err != nil {
		t.Fatalf("section content: %v", err)
	}
	if len(lines) != 2 || lines[0] != "line two" || lines[1] != "line three" {
		t.Errorf("unexpected lines: %v", lines)
	}

	if _, err := ix.SectionContent("doc.md", 5, 9); err == nil {
		t.Error("expected error for out-of-bounds range")
	}
}
