// Package view holds the response model for the LRM query tools: the
// shared data contracts every tool projects into, the detail-level
// projector that decides which fields a response carries, the wire
// formatters, and the error payload builder.
//
// The projector is a pure function layer: it never re-derives content,
// only selects fields from fully populated raw results. Optional fields
// are pointers so that "absent" serializes as a missing key, never as
// null.
package view

// PreviewLength is the fixed size of every content preview, in bytes.
const PreviewLength = 200

// PreviewMarker is appended to a preview when the full content is longer
// than PreviewLength.
const PreviewMarker = "..."

// ScoreKind says which provider produced a search hit's score.
type ScoreKind int

const (
	// ScoreSimilarity is a semantic similarity in [0,1], higher is better.
	ScoreSimilarity ScoreKind = iota
	// ScoreRelevance is an FTS5 bm25 rank, lower is better.
	ScoreRelevance
)

// RawHit is a fully populated search result before projection.
type RawHit struct {
	SectionNumber string
	Title         string
	Page          int
	Score         float64
	ScoreKind     ScoreKind
	Content       string
}

// SearchHit is the projected view of one search result.
type SearchHit struct {
	SectionNumber  string   `json:"section_number"`
	Title          string   `json:"title"`
	Page           int      `json:"page"`
	Similarity     *float64 `json:"similarity,omitempty"`
	Relevance      *float64 `json:"relevance,omitempty"`
	ContentPreview *string  `json:"content_preview,omitempty"`
	Content        *string  `json:"content,omitempty"`
}

// SectionRef identifies a section by number and title only.
type SectionRef struct {
	SectionNumber string `json:"section_number"`
	Title         string `json:"title"`
}

// SiblingRef is one entry in a sibling listing.
type SiblingRef struct {
	SectionNumber string `json:"section_number"`
	Title         string `json:"title"`
	IsCurrent     bool   `json:"is_current"`
}

// SubsectionRef is one entry in a subsection listing.
type SubsectionRef struct {
	SectionNumber string `json:"section_number"`
	Title         string `json:"title"`
	HasChildren   bool   `json:"has_children"`
}

// CodeExample is a code listing attached to a section.
type CodeExample struct {
	Code        string  `json:"code"`
	Description *string `json:"description,omitempty"`
}

// RawSection is a fully populated section before projection. Summary
// and KeyPoints hold enrichment output when it was requested and
// succeeded; they stay empty otherwise and the projector omits them.
type RawSection struct {
	SectionNumber string
	Title         string
	Language      string
	Content       string
	PageStart     int
	PageEnd       int
	Depth         int
	CodeExamples  []CodeExample
	Summary       string
	KeyPoints     []string
}

// RawNavigation holds the results of the three navigation lookups.
// It is only populated when the caller asked for navigation; the
// handler must not issue the lookups otherwise.
type RawNavigation struct {
	Parent   *SectionRef
	Siblings []SiblingRef
	Children []SubsectionRef
}

// SectionView is the projected view of a single section.
//
// SiblingSections and Subsections are pointers to slices so the
// projector can distinguish "navigation not requested" (key absent)
// from "navigation requested, nothing found" (empty array).
type SectionView struct {
	SectionNumber   string           `json:"section_number"`
	Title           string           `json:"title"`
	Language        string           `json:"language"`
	Content         string           `json:"content"`
	PageStart       int              `json:"page_start"`
	PageEnd         int              `json:"page_end"`
	Depth           int              `json:"depth"`
	ParentSection   *SectionRef      `json:"parent_section,omitempty"`
	SiblingSections *[]SiblingRef    `json:"sibling_sections,omitempty"`
	Subsections     *[]SubsectionRef `json:"subsections,omitempty"`
	CodeExamples    []CodeExample    `json:"code_examples,omitempty"`
	Summary         *string          `json:"summary,omitempty"`
	KeyPoints       []string         `json:"key_points,omitempty"`
}

// RawEntry is a table-of-contents row before projection.
type RawEntry struct {
	SectionNumber string
	Title         string
	Depth         int
	HasChildren   bool
}

// SectionEntry is the projected view of one table-of-contents row.
type SectionEntry struct {
	SectionNumber  string `json:"section_number"`
	Title          string `json:"title"`
	Depth          *int   `json:"depth,omitempty"`
	HasSubsections *bool  `json:"has_subsections,omitempty"`
}

// RawCodeHit is a fully populated code search result before projection.
type RawCodeHit struct {
	SectionNumber string
	SectionTitle  string
	PageStart     int
	PageEnd       int
	Code          string
	Description   *string
	Context       string // owning section content prefix; empty when not fetched
	Explanation   string // enrichment output; empty when not requested or failed
}

// CodeHit is the projected view of one code search result.
type CodeHit struct {
	SectionNumber string  `json:"section_number"`
	SectionTitle  string  `json:"section_title"`
	PageStart     int     `json:"page_start"`
	PageEnd       int     `json:"page_end"`
	Code          string  `json:"code"`
	Description   *string `json:"description,omitempty"`
	Context       *string `json:"context,omitempty"`
	Explanation   *string `json:"explanation,omitempty"`
}

// TableHit is one table attached to a section. Markdown is the canonical
// rendering; StructuredRows is the machine-readable duplicate when the
// store carries one.
type TableHit struct {
	Caption        *string    `json:"caption,omitempty"`
	Markdown       string     `json:"markdown"`
	StructuredRows [][]string `json:"structured_rows,omitempty"`
}

// Metadata is the optional envelope header. Its presence is controlled
// by the include_metadata flag and never changes the result payload.
type Metadata struct {
	Tool        string `json:"tool"`
	Language    string `json:"language"`
	Count       int    `json:"count"`
	GeneratedAt string `json:"generated_at"`
}

// Envelope wraps a projected result for serialization. Exactly one of
// Results, Section, or Tables is set; Results holds []SearchHit,
// []SectionEntry, or []CodeHit depending on the operation.
type Envelope struct {
	Metadata *Metadata    `json:"metadata,omitempty"`
	Results  any          `json:"results,omitempty"`
	Section  *SectionView `json:"section,omitempty"`
	Tables   []TableHit   `json:"tables,omitempty"`
}
