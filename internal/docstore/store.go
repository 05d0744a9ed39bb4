// Package docstore is the read-side store for parsed LRM content.
//
// It opens the SQLite database produced by the ingestion pipeline
// (sections, code examples, tables, and per-section embedding vectors,
// partitioned by language) and exposes the query operations the MCP
// tools need. FTS5 backs the keyword search. The store assumes no
// concurrent writers at runtime; the handle is shared read-only across
// requests.
package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by exact-key lookups that match no section.
var ErrNotFound = errors.New("docstore: section not found")

// Languages is the fixed set of supported reference manuals.
var Languages = []string{"verilog", "systemverilog", "vhdl"}

// ValidLanguage reports whether lang names a supported manual.
func ValidLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ─── Row types ───────────────────────────────────────────────────────────────

// Document is a fully populated section row. CodeExamples is populated
// only when the lookup asked for code; the examples come from the same
// query as the section itself.
type Document struct {
	ID            int64
	Language      string
	SectionNumber string
	ParentSection *string
	Title         string
	Content       string
	PageStart     int
	PageEnd       int
	Depth         int
	CodeExamples  []CodeExample
}

// CodeExample is one code listing belonging to a section.
type CodeExample struct {
	Code        string
	Description *string
	LineStart   int
}

// SectionRef identifies a section by number and title only.
type SectionRef struct {
	SectionNumber string
	Title         string
}

// SearchRow is one keyword search result. Relevance is the FTS5 bm25
// rank: lower is better, ties broken by the FTS engine.
type SearchRow struct {
	SectionNumber string
	Title         string
	Snippet       string
	PageStart     int
	Relevance     float64
}

// SectionRow is one table-of-contents row.
type SectionRow struct {
	SectionNumber string
	Title         string
	Depth         int
	HasChildren   bool
}

// CodeRow is one code search result. Page numbers are carried by the
// same query that fetches the code: there is never a follow-up lookup
// per row.
type CodeRow struct {
	SectionNumber string
	SectionTitle  string
	PageStart     int
	PageEnd       int
	Code          string
	Description   *string
}

// TableRow is one table attached to a section.
type TableRow struct {
	Caption     *string
	Markdown    string
	ContentJSON *string
}

// EmbeddingRow is a per-section embedding vector with enough section
// context to build a search hit without a second lookup.
type EmbeddingRow struct {
	SectionNumber string
	Title         string
	PageStart     int
	Content       string
	Vector        []float64
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store wraps the LRM SQLite database.
type Store struct {
	db *sql.DB
}

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Open opens the database at path and ensures the schema exists.
// Schema creation is idempotent: on a database the parser already
// populated it is a no-op.
func Open(path string) (*Store, error) {
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("docstore: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("docstore: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, fmt.Errorf("docstore: schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sections (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			language       TEXT    NOT NULL,
			section_number TEXT    NOT NULL,
			parent_section TEXT,
			title          TEXT    NOT NULL,
			content        TEXT    NOT NULL,
			page_start     INTEGER NOT NULL,
			page_end       INTEGER NOT NULL,
			depth          INTEGER NOT NULL,
			UNIQUE (language, section_number)
		);

		CREATE INDEX IF NOT EXISTS idx_sections_parent ON sections(language, parent_section);
		CREATE INDEX IF NOT EXISTS idx_sections_depth  ON sections(language, depth);

		CREATE VIRTUAL TABLE IF NOT EXISTS sections_fts USING fts5(
			title,
			content,
			content='sections',
			content_rowid='id'
		);

		CREATE TABLE IF NOT EXISTS code_examples (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			section_id  INTEGER NOT NULL,
			language    TEXT    NOT NULL,
			code        TEXT    NOT NULL,
			description TEXT,
			line_start  INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (section_id) REFERENCES sections(id)
		);

		CREATE INDEX IF NOT EXISTS idx_code_section ON code_examples(section_id);
		CREATE INDEX IF NOT EXISTS idx_code_lang    ON code_examples(language);

		CREATE TABLE IF NOT EXISTS tables (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			section_id   INTEGER NOT NULL,
			language     TEXT    NOT NULL,
			caption      TEXT,
			content_json TEXT,
			markdown     TEXT    NOT NULL,
			FOREIGN KEY (section_id) REFERENCES sections(id)
		);

		CREATE INDEX IF NOT EXISTS idx_tables_section ON tables(section_id);

		CREATE TABLE IF NOT EXISTS section_embeddings (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			section_id      INTEGER NOT NULL,
			language        TEXT    NOT NULL,
			embedding_model TEXT    NOT NULL,
			embedding_json  TEXT    NOT NULL,
			created_at      INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (section_id) REFERENCES sections(id),
			UNIQUE (section_id, embedding_model)
		);

		CREATE INDEX IF NOT EXISTS idx_emb_lang ON section_embeddings(language, embedding_model);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS triggers (idempotent)
	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='sections_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER sections_fts_insert AFTER INSERT ON sections BEGIN
				INSERT INTO sections_fts(rowid, title, content)
				VALUES (new.id, new.title, new.content);
			END;

			CREATE TRIGGER sections_fts_delete AFTER DELETE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, title, content)
				VALUES ('delete', old.id, old.title, old.content);
			END;

			CREATE TRIGGER sections_fts_update AFTER UPDATE ON sections BEGIN
				INSERT INTO sections_fts(sections_fts, rowid, title, content)
				VALUES ('delete', old.id, old.title, old.content);
				INSERT INTO sections_fts(rowid, title, content)
				VALUES (new.id, new.title, new.content);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil && err != sql.ErrNoRows {
		return err
	}

	return nil
}

// ─── Keyword search (FTS5) ───────────────────────────────────────────────────

// Search performs full-text search over section titles and content for
// one language, ordered by bm25 rank (lower is better).
func (s *Store) Search(ctx context.Context, query, language string, limit int) ([]SearchRow, error) {
	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sec.section_number, sec.title,
		       snippet(sections_fts, 1, '', '', ' … ', 16),
		       sec.page_start, fts.rank
		FROM sections_fts fts
		JOIN sections sec ON sec.id = fts.rowid
		WHERE sections_fts MATCH ? AND sec.language = ?
		ORDER BY fts.rank
		LIMIT ?`,
		ftsQuery, language, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.SectionNumber, &r.Title, &r.Snippet, &r.PageStart, &r.Relevance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ─── Section lookup ──────────────────────────────────────────────────────────

// GetSection fetches one section by its natural key. When includeCode
// is set, the code examples arrive via the same query (LEFT JOIN), not
// a second round-trip. Returns ErrNotFound on a miss.
func (s *Store) GetSection(ctx context.Context, sectionNumber, language string, includeCode bool) (*Document, error) {
	if !includeCode {
		row := s.db.QueryRowContext(ctx, `
			SELECT id, language, section_number, parent_section, title, content, page_start, page_end, depth
			FROM sections
			WHERE section_number = ? AND language = ?`,
			sectionNumber, language,
		)
		var d Document
		err := row.Scan(&d.ID, &d.Language, &d.SectionNumber, &d.ParentSection,
			&d.Title, &d.Content, &d.PageStart, &d.PageEnd, &d.Depth)
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("docstore: get section: %w", err)
		}
		return &d, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.language, s.section_number, s.parent_section, s.title, s.content,
		       s.page_start, s.page_end, s.depth,
		       c.code, c.description, c.line_start
		FROM sections s
		LEFT JOIN code_examples c ON c.section_id = s.id
		WHERE s.section_number = ? AND s.language = ?
		ORDER BY c.line_start`,
		sectionNumber, language,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: get section: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var doc *Document
	for rows.Next() {
		var d Document
		var code, description sql.NullString
		var lineStart sql.NullInt64
		if err := rows.Scan(&d.ID, &d.Language, &d.SectionNumber, &d.ParentSection,
			&d.Title, &d.Content, &d.PageStart, &d.PageEnd, &d.Depth,
			&code, &description, &lineStart); err != nil {
			return nil, err
		}
		if doc == nil {
			doc = &d
		}
		if code.Valid {
			ex := CodeExample{Code: code.String, LineStart: int(lineStart.Int64)}
			if description.Valid {
				ex.Description = &description.String
			}
			doc.CodeExamples = append(doc.CodeExamples, ex)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// GetSectionRef fetches number and title only, for parent lookups.
// Returns ErrNotFound on a miss.
func (s *Store) GetSectionRef(ctx context.Context, sectionNumber, language string) (*SectionRef, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT section_number, title FROM sections
		WHERE section_number = ? AND language = ?`,
		sectionNumber, language,
	)
	var ref SectionRef
	err := row.Scan(&ref.SectionNumber, &ref.Title)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: get section ref: %w", err)
	}
	return &ref, nil
}

// ─── Hierarchy ───────────────────────────────────────────────────────────────

// GetChildren lists the direct children of a section in document order.
func (s *Store) GetChildren(ctx context.Context, sectionNumber, language string) ([]SectionRow, error) {
	return s.querySections(ctx, `
		SELECT s.section_number, s.title, s.depth,
		       EXISTS(SELECT 1 FROM sections c
		              WHERE c.language = s.language AND c.parent_section = s.section_number)
		FROM sections s
		WHERE s.language = ? AND s.parent_section = ?
		ORDER BY s.page_start, s.section_number`,
		language, sectionNumber,
	)
}

// ListSections lists table-of-contents rows.
//
// With titleFilter set, the match is a case-insensitive substring of
// the title across all depths — the parent/top-level branch does not
// apply. With parent set, the listing covers the subtree under parent
// down to maxDepth levels below it. Otherwise it covers the shallowest
// depth present for the language down to maxDepth levels from there.
func (s *Store) ListSections(ctx context.Context, language, parent string, maxDepth int, titleFilter string) ([]SectionRow, error) {
	if maxDepth <= 0 {
		maxDepth = 1
	}

	if titleFilter != "" {
		return s.querySections(ctx, `
			SELECT s.section_number, s.title, s.depth,
			       EXISTS(SELECT 1 FROM sections c
			              WHERE c.language = s.language AND c.parent_section = s.section_number)
			FROM sections s
			WHERE s.language = ? AND instr(lower(s.title), lower(?)) > 0
			ORDER BY s.page_start, s.section_number`,
			language, titleFilter,
		)
	}

	if parent != "" {
		return s.querySections(ctx, `
			SELECT s.section_number, s.title, s.depth,
			       EXISTS(SELECT 1 FROM sections c
			              WHERE c.language = s.language AND c.parent_section = s.section_number)
			FROM sections s
			WHERE s.language = ?
			  AND s.section_number LIKE ? || '.%'
			  AND s.depth <= (SELECT depth FROM sections WHERE language = s.language AND section_number = ?) + ?
			ORDER BY s.page_start, s.section_number`,
			language, parent, parent, maxDepth,
		)
	}

	return s.querySections(ctx, `
		SELECT s.section_number, s.title, s.depth,
		       EXISTS(SELECT 1 FROM sections c
		              WHERE c.language = s.language AND c.parent_section = s.section_number)
		FROM sections s
		WHERE s.language = ?
		  AND s.depth < (SELECT MIN(depth) FROM sections WHERE language = s.language) + ?
		ORDER BY s.page_start, s.section_number`,
		language, maxDepth,
	)
}

func (s *Store) querySections(ctx context.Context, query string, args ...any) ([]SectionRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("docstore: list sections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SectionRow
	for rows.Next() {
		var r SectionRow
		if err := rows.Scan(&r.SectionNumber, &r.Title, &r.Depth, &r.HasChildren); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ─── Code search ─────────────────────────────────────────────────────────────

// SearchCode matches code text and descriptions by case-insensitive
// substring. Section titles and page numbers ride along in the single
// JOIN; there is deliberately no per-row follow-up query.
func (s *Store) SearchCode(ctx context.Context, query, language string, limit int) ([]CodeRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.section_number, s.title, s.page_start, s.page_end, c.code, c.description
		FROM code_examples c
		JOIN sections s ON s.id = c.section_id
		WHERE c.language = ?
		  AND (instr(lower(c.code), lower(?)) > 0
		       OR (c.description IS NOT NULL AND instr(lower(c.description), lower(?)) > 0))
		ORDER BY s.page_start, c.line_start
		LIMIT ?`,
		language, query, query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: search code: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []CodeRow
	for rows.Next() {
		var r CodeRow
		if err := rows.Scan(&r.SectionNumber, &r.SectionTitle, &r.PageStart, &r.PageEnd, &r.Code, &r.Description); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ContentPreviews fetches content prefixes for a set of sections in a
// single query. The prefix is one byte longer than the preview length
// so the caller can tell truncated content from short content.
func (s *Store) ContentPreviews(ctx context.Context, language string, sectionNumbers []string) (map[string]string, error) {
	if len(sectionNumbers) == 0 {
		return map[string]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(sectionNumbers))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(sectionNumbers)+1)
	args = append(args, language)
	for _, n := range sectionNumbers {
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT section_number, substr(content, 1, 201)
		 FROM sections
		 WHERE language = ? AND section_number IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: content previews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	previews := make(map[string]string, len(sectionNumbers))
	for rows.Next() {
		var number, prefix string
		if err := rows.Scan(&number, &prefix); err != nil {
			return nil, err
		}
		previews[number] = prefix
	}
	return previews, rows.Err()
}

// ─── Tables ──────────────────────────────────────────────────────────────────

// GetTables lists the tables attached to a section.
func (s *Store) GetTables(ctx context.Context, sectionNumber, language string) ([]TableRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.caption, t.markdown, t.content_json
		FROM tables t
		JOIN sections s ON s.id = t.section_id
		WHERE s.section_number = ? AND s.language = ?
		ORDER BY t.id`,
		sectionNumber, language,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: get tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []TableRow
	for rows.Next() {
		var r TableRow
		if err := rows.Scan(&r.Caption, &r.Markdown, &r.ContentJSON); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ─── Embeddings ──────────────────────────────────────────────────────────────

// SectionEmbeddings loads every stored vector for a language and
// embedding model, joined with the section fields a search hit needs.
func (s *Store) SectionEmbeddings(ctx context.Context, language, model string) ([]EmbeddingRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.section_number, s.title, s.page_start, s.content, e.embedding_json
		FROM section_embeddings e
		JOIN sections s ON s.id = e.section_id
		WHERE e.language = ? AND e.embedding_model = ?`,
		language, model,
	)
	if err != nil {
		return nil, fmt.Errorf("docstore: section embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []EmbeddingRow
	for rows.Next() {
		var r EmbeddingRow
		var embeddingJSON string
		if err := rows.Scan(&r.SectionNumber, &r.Title, &r.PageStart, &r.Content, &embeddingJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &r.Vector); err != nil {
			return nil, fmt.Errorf("docstore: embedding for %s: %w", r.SectionNumber, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	for i, w := range words {
		w = strings.Trim(w, `"`)
		words[i] = `"` + w + `"`
	}
	return strings.Join(words, " ")
}
