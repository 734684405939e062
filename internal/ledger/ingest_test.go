package ledger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/mdledger/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store, string) {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, root, log), st, root
}

func writeDoc(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write doc: %v", err)
	}
	return path
}

const tableDoc = "## constraints\nC1 | a | src1 | definition\nC2 | b | src2 | hypothesis\n"

func TestIngest_FullMode(t *testing.T) {
	svc, st, root := newTestService(t)
	writeDoc(t, root, "c.md", tableDoc)

	report, err := svc.Ingest("c.md", Options{Full: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.RowsIngested != 2 {
		t.Errorf("expected 2 rows ingested, got %d", report.RowsIngested)
	}
	if report.PerH2["constraints"] != 2 {
		t.Errorf("expected 2 rows under constraints, got %d", report.PerH2["constraints"])
	}

	row, err := st.GetRow("C1")
	if err != nil {
		t.Fatalf("get row: %v", err)
	}
	if row == nil {
		t.Fatal("expected row C1")
	}
	if row.H2 != "constraints" || row.Text != "a" || row.Src != "src1" || row.Type != "definition" {
		t.Errorf("unexpected row: %+v", row)
	}
	if row.File != "c.md" || row.LineNo != 2 {
		t.Errorf("expected provenance c.md:2, got %s:%d", row.File, row.LineNo)
	}
	if row.Status != store.StatusClean {
		t.Errorf("expected status clean, got %q", row.Status)
	}

	if len(report.TableConfigs) != 1 {
		t.Fatalf("expected 1 table config, got %+v", report.TableConfigs)
	}
	cfg := report.TableConfigs[0]
	if cfg.H2 != "constraints" || cfg.ColCount != 4 || cfg.LineStart != 2 || cfg.LineEnd != 3 {
		t.Errorf("expected constraints cols=4 lines 2-3, got %+v", cfg)
	}
}

func TestIngest_TargetedMode(t *testing.T) {
	svc, st, root := newTestService(t)
	doc := "## constraints\nC1 | a | s | definition\n## decisions\nD1 | b | s | choice\n"
	writeDoc(t, root, "doc.md", doc)

	report, err := svc.Ingest("doc.md", Options{H2Target: "DECIS"})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.RowsIngested != 1 {
		t.Errorf("expected only the decisions row, got %d", report.RowsIngested)
	}

	row, err := st.GetRow("C1")
	if err != nil {
		t.Fatalf("get row: %v", err)
	}
	if row != nil {
		t.Errorf("expected C1 not ingested in targeted mode, got %+v", row)
	}
	row, err = st.GetRow("D1")
	if err != nil {
		t.Fatalf("get row: %v", err)
	}
	if row == nil {
		t.Error("expected D1 ingested")
	}

	// Table configs are recorded for every section with rows, matched or not.
	configs, err := st.TableConfigsForFile("doc.md")
	if err != nil {
		t.Fatalf("table configs: %v", err)
	}
	if len(configs) != 2 {
		t.Errorf("expected configs for both sections, got %+v", configs)
	}
}

func TestIngest_MidFileSectionBoundaries(t *testing.T) {
	svc, st, root := newTestService(t)
	doc := "# title\n## first\nA1 | x | s | t\n\n## second\nB1 | y | s | t\ntail\n"
	writeDoc(t, root, "doc.md", doc)

	if _, err := svc.Ingest("doc.md", Options{Full: true}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	configs, err := st.TableConfigsForFile("doc.md")
	if err != nil {
		t.Fatalf("table configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs, got %+v", configs)
	}
	// first: content lines 3-4 (closed by "## second" on line 5).
	if configs[0].H2 != "first" || configs[0].LineStart != 3 || configs[0].LineEnd != 4 {
		t.Errorf("unexpected first config: %+v", configs[0])
	}
	// second: content lines 6-7, closed by EOF.
	if configs[1].H2 != "second" || configs[1].LineStart != 6 || configs[1].LineEnd != 7 {
		t.Errorf("unexpected second config: %+v", configs[1])
	}
}

func TestIngest_SkipsNonRows(t *testing.T) {
	svc, st, root := newTestService(t)
	doc := "before | any | h2 | row\n" + // before the first H2: ignored
		"## section\n" +
		"\n" + // blank: ignored
		"no pipes here\n" + // pipeless: ignored
		"R1 | text | src | type\n"
	writeDoc(t, root, "doc.md", doc)

	report, err := svc.Ingest("doc.md", Options{Full: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.RowsIngested != 1 {
		t.Errorf("expected 1 row, got %d", report.RowsIngested)
	}
	if row, _ := st.GetRow("before"); row != nil {
		t.Errorf("expected pre-H2 line not ingested, got %+v", row)
	}
}

func TestIngest_SkipsFencedRows(t *testing.T) {
	svc, st, root := newTestService(t)
	doc := "## section\n" +
		"```\n" +
		"F1 | fenced | src | type\n" +
		"## not a real header\n" +
		"```\n" +
		"R1 | real | src | type\n"
	writeDoc(t, root, "doc.md", doc)

	report, err := svc.Ingest("doc.md", Options{Full: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.RowsIngested != 1 {
		t.Errorf("expected only the unfenced row, got %d", report.RowsIngested)
	}
	if row, _ := st.GetRow("F1"); row != nil {
		t.Errorf("expected fenced row not ingested, got %+v", row)
	}
	if row, _ := st.GetRow("R1"); row == nil {
		t.Error("expected R1 ingested")
	}
	// The fenced "## not a real header" must not have opened a section.
	if _, ok := report.PerH2["not a real header"]; ok {
		t.Error("fenced H2 line opened a section")
	}
}

func TestIngest_ShortAndWideRows(t *testing.T) {
	svc, st, root := newTestService(t)
	doc := "## s\nonly-id | text\nwide | a | b | c | extra | more\n"
	writeDoc(t, root, "doc.md", doc)

	report, err := svc.Ingest("doc.md", Options{Full: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.RowsIngested != 2 {
		t.Fatalf("expected 2 rows, got %d", report.RowsIngested)
	}

	short, _ := st.GetRow("only-id")
	if short == nil || short.Text != "text" || short.Src != "" || short.Type != "" {
		t.Errorf("unexpected short row: %+v", short)
	}

	// Columns beyond the fourth are ignored for the row, but count toward
	// the table's column count.
	wide, _ := st.GetRow("wide")
	if wide == nil || wide.Type != "c" {
		t.Errorf("unexpected wide row: %+v", wide)
	}
	configs, err := st.TableConfigsForFile("doc.md")
	if err != nil {
		t.Fatalf("table configs: %v", err)
	}
	if len(configs) != 1 || configs[0].ColCount != 6 {
		t.Errorf("expected col_count 6, got %+v", configs)
	}
}

func TestIngest_ReingestOverwritesByRowID(t *testing.T) {
	svc, st, root := newTestService(t)
	path := writeDoc(t, root, "c.md", tableDoc)

	if _, err := svc.Ingest("c.md", Options{Full: true}); err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Change C1's text on disk and re-ingest: upsert keeps the id, takes
	// the new text.
	updated := "## constraints\nC1 | changed | src1 | definition\nC2 | b | src2 | hypothesis\n"
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if _, err := svc.Ingest("c.md", Options{Full: true}); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	row, err := st.GetRow("C1")
	if err != nil {
		t.Fatalf("get row: %v", err)
	}
	if row.Text != "changed" {
		t.Errorf("expected upserted text, got %q", row.Text)
	}
	rows, err := st.QueryRows("constraints", "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows after re-ingest, got %d", len(rows))
	}
}

func TestIngest_MissingFile(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Ingest("ghost.md", Options{Full: true}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIngest_RootFallbackResolution(t *testing.T) {
	svc, st, root := newTestService(t)
	writeDoc(t, root, "c.md", tableDoc)

	// Argument given as a bare name resolves under the document root.
	report, err := svc.Ingest("c.md", Options{Full: true})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if report.File != "c.md" {
		t.Errorf("expected canonical name c.md, got %q", report.File)
	}
	if row, _ := st.GetRow("C1"); row == nil {
		t.Error("expected C1 ingested")
	}
}

func TestQuery_LowercasesH2Filter(t *testing.T) {
	svc, _, root := newTestService(t)
	writeDoc(t, root, "c.md", "## Constraints\nC1 | a | s | definition\n")

	if _, err := svc.Ingest("c.md", Options{Full: true}); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	rows, err := svc.Query("Constraints", "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected mixed-case filter to match stored lower-case h2, got %d rows", len(rows))
	}

	rows, err = svc.Query("constraints", "definition")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected type filter to match, got %d rows", len(rows))
	}
}
