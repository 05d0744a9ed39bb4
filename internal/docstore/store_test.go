package docstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/athens-hdl/athens-mcp/internal/docstore"
)

// ─── Test fixtures ───────────────────────────────────────────────────────────

// newTestStore opens a store in a temp directory and seeds the Verilog
// behavioral-modeling subtree used across the tests:
//
//	9       Behavioral modeling
//	9.2     Structured procedures
//	9.2.1   Always procedure       (leaf, one code example, one table)
//	9.2.2   Initial procedure      (leaf, one code example)
func newTestStore(t *testing.T) *docstore.Store {
	t.Helper()
	store, err := docstore.Open(filepath.Join(t.TempDir(), "lrm.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	seed(t, store)
	return store
}

type sectionSeed struct {
	number  string
	parent  string
	title   string
	content string
	pStart  int
	pEnd    int
	depth   int
}

var seedSections = []sectionSeed{
	{"9", "", "Behavioral modeling", "Behavioral models describe design function procedurally. " + strings.Repeat("Procedural statements drive behavioral modeling. ", 10), 140, 160, 0},
	{"9.2", "9", "Structured procedures", "All procedures in Verilog are specified within one of four structured procedure statements: always, initial, task, and function.", 142, 150, 1},
	{"9.2.1", "9.2", "Always procedure", "The always construct repeats continuously throughout the duration of the simulation. " + strings.Repeat("An event control shall synchronize the always procedure. ", 8), 143, 145, 2},
	{"9.2.2", "9.2", "Initial procedure", "The initial construct shall execute exactly once at the start of simulation.", 146, 146, 2},
}

func seed(t *testing.T, store *docstore.Store) {
	t.Helper()
	db := store.DB()

	ids := map[string]int64{}
	for _, s := range seedSections {
		var parent any
		if s.parent != "" {
			parent = s.parent
		}
		res, err := db.Exec(`
			INSERT INTO sections (language, section_number, parent_section, title, content, page_start, page_end, depth)
			VALUES ('verilog', ?, ?, ?, ?, ?, ?, ?)`,
			s.number, parent, s.title, s.content, s.pStart, s.pEnd, s.depth,
		)
		if err != nil {
			t.Fatalf("seed section %s: %v", s.number, err)
		}
		id, _ := res.LastInsertId()
		ids[s.number] = id
	}

	codeSeeds := []struct {
		section string
		code    string
		desc    any
		line    int
	}{
		{"9.2.1", "always @(posedge clk) q <= d;", "A clocked always block", 12},
		{"9.2.2", "initial begin\n  a = 0;\nend", nil, 3},
	}
	for _, c := range codeSeeds {
		if _, err := db.Exec(`
			INSERT INTO code_examples (section_id, language, code, description, line_start)
			VALUES (?, 'verilog', ?, ?, ?)`,
			ids[c.section], c.code, c.desc, c.line,
		); err != nil {
			t.Fatalf("seed code for %s: %v", c.section, err)
		}
	}

	if _, err := db.Exec(`
		INSERT INTO tables (section_id, language, caption, content_json, markdown)
		VALUES (?, 'verilog', 'Edge transitions', '[["from","to"],["0","1"]]', '| from | to |')`,
		ids["9.2.1"],
	); err != nil {
		t.Fatalf("seed table: %v", err)
	}

	embSeeds := []struct {
		section string
		vector  []float64
	}{
		{"9", []float64{0.1, 0.9}},
		{"9.2", []float64{0.8, 0.2}},
		{"9.2.1", []float64{0.9, 0.1}},
	}
	for _, e := range embSeeds {
		vec, _ := json.Marshal(e.vector)
		if _, err := db.Exec(`
			INSERT INTO section_embeddings (section_id, language, embedding_model, embedding_json)
			VALUES (?, 'verilog', 'test-model', ?)`,
			ids[e.section], string(vec),
		); err != nil {
			t.Fatalf("seed embedding for %s: %v", e.section, err)
		}
	}
}

// ─── Languages ───────────────────────────────────────────────────────────────

func TestValidLanguage(t *testing.T) {
	for _, lang := range docstore.Languages {
		if !docstore.ValidLanguage(lang) {
			t.Errorf("ValidLanguage(%q) = false", lang)
		}
	}
	if docstore.ValidLanguage("python") {
		t.Error("ValidLanguage(python) = true")
	}
}

// ─── Keyword search ──────────────────────────────────────────────────────────

func TestSearch_RanksMatches(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.Search(context.Background(), "always", "verilog", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) == 0 {
		t.Fatal("expected matches for 'always'")
	}
	found := false
	for _, r := range rows {
		if r.SectionNumber == "9.2.1" {
			found = true
			if r.Title != "Always procedure" {
				t.Errorf("title = %q", r.Title)
			}
			if r.PageStart != 143 {
				t.Errorf("page_start = %d, want 143", r.PageStart)
			}
		}
	}
	if !found {
		t.Error("section 9.2.1 should match 'always'")
	}
	// bm25 rank: lower is better, and results arrive already ordered.
	for i := 1; i < len(rows); i++ {
		if rows[i].Relevance < rows[i-1].Relevance {
			t.Errorf("results out of rank order at %d: %f < %f", i, rows[i].Relevance, rows[i-1].Relevance)
		}
	}
}

func TestSearch_NoMatches(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.Search(context.Background(), "quantum entanglement", "verilog", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no matches, got %d", len(rows))
	}
}

func TestSearch_QuotesSpecialCharacters(t *testing.T) {
	store := newTestStore(t)
	// FTS5 operators in the raw query must not cause a syntax error.
	if _, err := store.Search(context.Background(), `always AND "initial" NOT`, "verilog", 10); err != nil {
		t.Fatalf("special characters should be quoted away: %v", err)
	}
}

func TestSearch_LanguagePartition(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.Search(context.Background(), "always", "vhdl", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(rows) != 0 {
		t.Error("vhdl search must not see verilog sections")
	}
}

// ─── Section lookup ──────────────────────────────────────────────────────────

func TestGetSection_Found(t *testing.T) {
	store := newTestStore(t)
	doc, err := store.GetSection(context.Background(), "9.2.1", "verilog", false)
	if err != nil {
		t.Fatalf("get section: %v", err)
	}
	if doc.Title != "Always procedure" || doc.Depth != 2 {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.ParentSection == nil || *doc.ParentSection != "9.2" {
		t.Error("parent_section should be 9.2")
	}
	if doc.CodeExamples != nil {
		t.Error("code examples must not be fetched unless asked for")
	}
}

func TestGetSection_WithCode(t *testing.T) {
	store := newTestStore(t)
	doc, err := store.GetSection(context.Background(), "9.2.1", "verilog", true)
	if err != nil {
		t.Fatalf("get section: %v", err)
	}
	if len(doc.CodeExamples) != 1 {
		t.Fatalf("code examples = %d, want 1", len(doc.CodeExamples))
	}
	ex := doc.CodeExamples[0]
	if !strings.Contains(ex.Code, "posedge clk") {
		t.Errorf("code = %q", ex.Code)
	}
	if ex.Description == nil || *ex.Description != "A clocked always block" {
		t.Error("description missing")
	}
}

func TestGetSection_WithCodeButNoExamples(t *testing.T) {
	store := newTestStore(t)
	doc, err := store.GetSection(context.Background(), "9.2", "verilog", true)
	if err != nil {
		t.Fatalf("get section: %v", err)
	}
	if len(doc.CodeExamples) != 0 {
		t.Errorf("section 9.2 has no examples, got %d", len(doc.CodeExamples))
	}
}

func TestGetSection_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetSection(context.Background(), "99.9", "verilog", false)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	// Wrong language is also a miss.
	_, err = store.GetSection(context.Background(), "9.2.1", "vhdl", false)
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetSectionRef(t *testing.T) {
	store := newTestStore(t)
	ref, err := store.GetSectionRef(context.Background(), "9.2", "verilog")
	if err != nil {
		t.Fatalf("get section ref: %v", err)
	}
	if ref.SectionNumber != "9.2" || ref.Title != "Structured procedures" {
		t.Errorf("ref = %+v", ref)
	}
	if _, err := store.GetSectionRef(context.Background(), "0", "verilog"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ─── Hierarchy ───────────────────────────────────────────────────────────────

func TestGetChildren(t *testing.T) {
	store := newTestStore(t)
	children, err := store.GetChildren(context.Background(), "9.2", "verilog")
	if err != nil {
		t.Fatalf("get children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2", len(children))
	}
	if children[0].SectionNumber != "9.2.1" || children[1].SectionNumber != "9.2.2" {
		t.Errorf("children out of document order: %+v", children)
	}
	for _, c := range children {
		if c.HasChildren {
			t.Errorf("%s is a leaf but has_children is set", c.SectionNumber)
		}
	}
}

func TestGetChildren_Leaf(t *testing.T) {
	store := newTestStore(t)
	children, err := store.GetChildren(context.Background(), "9.2.1", "verilog")
	if err != nil {
		t.Fatalf("get children: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("leaf children = %d, want 0", len(children))
	}
}

// ─── ListSections ────────────────────────────────────────────────────────────

func TestListSections_TopLevel(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.ListSections(context.Background(), "verilog", "", 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// depth 0 and 1 only: 9 and 9.2.
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2: %+v", len(rows), rows)
	}
	if rows[0].SectionNumber != "9" || rows[1].SectionNumber != "9.2" {
		t.Errorf("rows = %+v", rows)
	}
	if !rows[0].HasChildren || !rows[1].HasChildren {
		t.Error("both listed sections have children")
	}
}

func TestListSections_Subtree(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.ListSections(context.Background(), "verilog", "9.2", 1, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("subtree rows = %d, want 2: %+v", len(rows), rows)
	}
	for _, r := range rows {
		if !strings.HasPrefix(r.SectionNumber, "9.2.") {
			t.Errorf("row %s is outside the subtree", r.SectionNumber)
		}
	}
}

func TestListSections_TitleFilterIgnoresDepth(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.ListSections(context.Background(), "verilog", "", 1, "procedure")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// "Structured procedures" (depth 1), "Always procedure" and
	// "Initial procedure" (depth 2) all match; the filter spans depths.
	if len(rows) != 3 {
		t.Fatalf("filtered rows = %d, want 3: %+v", len(rows), rows)
	}
}

func TestListSections_TitleFilterCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.ListSections(context.Background(), "verilog", "", 2, "ALWAYS")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].SectionNumber != "9.2.1" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestListSections_EmptySubtree(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.ListSections(context.Background(), "verilog", "9.2.1", 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("leaf subtree rows = %d, want 0", len(rows))
	}
}

// ─── Code search ─────────────────────────────────────────────────────────────

func TestSearchCode_MatchesCodeText(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.SearchCode(context.Background(), "posedge", "verilog", 10)
	if err != nil {
		t.Fatalf("search code: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.SectionNumber != "9.2.1" || r.SectionTitle != "Always procedure" {
		t.Errorf("row = %+v", r)
	}
	// Page numbers ride along in the same query.
	if r.PageStart != 143 || r.PageEnd != 145 {
		t.Errorf("pages = %d-%d, want 143-145", r.PageStart, r.PageEnd)
	}
}

func TestSearchCode_MatchesDescription(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.SearchCode(context.Background(), "clocked", "verilog", 10)
	if err != nil {
		t.Fatalf("search code: %v", err)
	}
	if len(rows) != 1 || rows[0].SectionNumber != "9.2.1" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSearchCode_CaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.SearchCode(context.Background(), "INITIAL", "verilog", 10)
	if err != nil {
		t.Fatalf("search code: %v", err)
	}
	if len(rows) != 1 || rows[0].SectionNumber != "9.2.2" {
		t.Errorf("rows = %+v", rows)
	}
	if rows[0].Description != nil {
		t.Error("9.2.2's example has no description")
	}
}

func TestSearchCode_Limit(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.SearchCode(context.Background(), "begin", "verilog", 1)
	if err != nil {
		t.Fatalf("search code: %v", err)
	}
	if len(rows) > 1 {
		t.Errorf("limit 1 returned %d rows", len(rows))
	}
}

// ─── ContentPreviews ─────────────────────────────────────────────────────────

func TestContentPreviews_Batch(t *testing.T) {
	store := newTestStore(t)
	previews, err := store.ContentPreviews(context.Background(), "verilog", []string{"9.2.1", "9.2.2"})
	if err != nil {
		t.Fatalf("previews: %v", err)
	}
	if len(previews) != 2 {
		t.Fatalf("previews = %d, want 2", len(previews))
	}
	// Long content: 201 bytes so the caller can detect truncation.
	long := previews["9.2.1"]
	if len(long) != 201 {
		t.Errorf("long preview = %d bytes, want 201", len(long))
	}
	if !strings.HasPrefix(seedSections[2].content, long) {
		t.Error("preview must be a prefix of the section content")
	}
	// Short content arrives whole.
	if previews["9.2.2"] != seedSections[3].content {
		t.Errorf("short preview = %q", previews["9.2.2"])
	}
}

func TestContentPreviews_Empty(t *testing.T) {
	store := newTestStore(t)
	previews, err := store.ContentPreviews(context.Background(), "verilog", nil)
	if err != nil {
		t.Fatalf("previews: %v", err)
	}
	if len(previews) != 0 {
		t.Errorf("previews = %v, want empty map", previews)
	}
}

// ─── Tables ──────────────────────────────────────────────────────────────────

func TestGetTables(t *testing.T) {
	store := newTestStore(t)
	tables, err := store.GetTables(context.Background(), "9.2.1", "verilog")
	if err != nil {
		t.Fatalf("get tables: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("tables = %d, want 1", len(tables))
	}
	tbl := tables[0]
	if tbl.Caption == nil || *tbl.Caption != "Edge transitions" {
		t.Error("caption missing")
	}
	if tbl.Markdown != "| from | to |" {
		t.Errorf("markdown = %q", tbl.Markdown)
	}
	if tbl.ContentJSON == nil {
		t.Error("content_json missing")
	}
}

func TestGetTables_None(t *testing.T) {
	store := newTestStore(t)
	tables, err := store.GetTables(context.Background(), "9.2.2", "verilog")
	if err != nil {
		t.Fatalf("get tables: %v", err)
	}
	if len(tables) != 0 {
		t.Errorf("tables = %d, want 0", len(tables))
	}
}

// ─── Embeddings ──────────────────────────────────────────────────────────────

func TestSectionEmbeddings(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.SectionEmbeddings(context.Background(), "verilog", "test-model")
	if err != nil {
		t.Fatalf("embeddings: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if len(r.Vector) != 2 {
			t.Errorf("%s vector = %v", r.SectionNumber, r.Vector)
		}
		if r.Title == "" || r.Content == "" {
			t.Errorf("%s missing section context", r.SectionNumber)
		}
	}
}

func TestSectionEmbeddings_ModelPartition(t *testing.T) {
	store := newTestStore(t)
	rows, err := store.SectionEmbeddings(context.Background(), "verilog", "other-model")
	if err != nil {
		t.Fatalf("embeddings: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0 for an unknown model", len(rows))
	}
}
