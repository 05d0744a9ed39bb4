package view

import "fmt"

// DetailLevel controls how much of a result's content a projection
// carries. It never affects identity fields.
type DetailLevel string

const (
	DetailMinimal DetailLevel = "minimal"
	DetailPreview DetailLevel = "preview"
	DetailFull    DetailLevel = "full"
)

// ParseDetailLevel validates a detail_level argument. An empty string
// resolves to the given default; anything else must be a known level.
func ParseDetailLevel(s string, def DetailLevel) (DetailLevel, error) {
	switch DetailLevel(s) {
	case "":
		return def, nil
	case DetailMinimal, DetailPreview, DetailFull:
		return DetailLevel(s), nil
	default:
		return "", fmt.Errorf("unknown detail_level %q (want minimal, preview, or full)", s)
	}
}

// Format selects the wire rendering of a response. Orthogonal to every
// projection option.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat validates a format argument, defaulting to markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "":
		return FormatMarkdown, nil
	case FormatMarkdown, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown format %q (want markdown or json)", s)
	}
}

// Result-count caps shared by the search tools.
const (
	MaxSearchResults = 20
	MaxCodeResults   = 20
)

// SearchOptions are the recognized options of lrm_search.
type SearchOptions struct {
	DetailLevel     DetailLevel
	MaxResults      int
	IncludeMetadata bool
	VerboseErrors   bool
	Format          Format
}

// DefaultSearchOptions returns the canonical lrm_search defaults.
// The default detail level is preview: earlier iterations of this
// server disagreed between minimal and unset, and preview is the one
// canonical choice going forward.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		DetailLevel:     DetailPreview,
		MaxResults:      5,
		IncludeMetadata: true,
		VerboseErrors:   true,
		Format:          FormatMarkdown,
	}
}

// SectionOptions are the recognized options of lrm_get_section.
type SectionOptions struct {
	IncludeCode       bool
	IncludeNavigation bool
	Summarize         bool
	KeyPoints         bool
	IncludeMetadata   bool
	VerboseErrors     bool
	Format            Format
}

// DefaultSectionOptions returns the canonical lrm_get_section defaults.
func DefaultSectionOptions() SectionOptions {
	return SectionOptions{
		IncludeCode:       false,
		IncludeNavigation: false,
		Summarize:         false,
		KeyPoints:         false,
		IncludeMetadata:   true,
		VerboseErrors:     true,
		Format:            FormatMarkdown,
	}
}

// ListOptions are the recognized options of lrm_list_sections.
// DetailLevel is binary for this operation: minimal or full.
type ListOptions struct {
	Parent          string
	MaxDepth        int
	SearchFilter    string
	DetailLevel     DetailLevel
	IncludeMetadata bool
	VerboseErrors   bool
	Format          Format
}

// DefaultListOptions returns the canonical lrm_list_sections defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{
		MaxDepth:        2,
		DetailLevel:     DetailFull,
		IncludeMetadata: true,
		VerboseErrors:   true,
		Format:          FormatMarkdown,
	}
}

// CodeOptions are the recognized options of lrm_search_code.
type CodeOptions struct {
	MaxResults      int
	IncludeContext  bool
	Explain         bool
	IncludeMetadata bool
	VerboseErrors   bool
	Format          Format
}

// DefaultCodeOptions returns the canonical lrm_search_code defaults.
func DefaultCodeOptions() CodeOptions {
	return CodeOptions{
		MaxResults:      10,
		IncludeContext:  false,
		Explain:         false,
		IncludeMetadata: true,
		VerboseErrors:   true,
		Format:          FormatMarkdown,
	}
}

// TableOptions are the recognized options of lrm_get_table.
type TableOptions struct {
	IncludeMetadata bool
	VerboseErrors   bool
	Format          Format
}

// DefaultTableOptions returns the canonical lrm_get_table defaults.
func DefaultTableOptions() TableOptions {
	return TableOptions{
		IncludeMetadata: true,
		VerboseErrors:   true,
		Format:          FormatMarkdown,
	}
}

// ClampLimit bounds a caller-supplied result limit to [1, cap], using
// def when the caller did not supply one.
func ClampLimit(n, def, cap int) int {
	if n <= 0 {
		return def
	}
	if n > cap {
		return cap
	}
	return n
}
