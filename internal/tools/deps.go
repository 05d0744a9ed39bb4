package tools

import (
	"context"

	"github.com/athens-hdl/athens-mcp/internal/docstore"
	"github.com/athens-hdl/athens-mcp/internal/embedding"
)

// Repository is the read-side store surface the tools consume.
// Satisfied by *docstore.Store.
type Repository interface {
	GetSection(ctx context.Context, sectionNumber, language string, includeCode bool) (*docstore.Document, error)
	GetSectionRef(ctx context.Context, sectionNumber, language string) (*docstore.SectionRef, error)
	GetChildren(ctx context.Context, sectionNumber, language string) ([]docstore.SectionRow, error)
	ListSections(ctx context.Context, language, parent string, maxDepth int, titleFilter string) ([]docstore.SectionRow, error)
	SearchCode(ctx context.Context, query, language string, limit int) ([]docstore.CodeRow, error)
	ContentPreviews(ctx context.Context, language string, sectionNumbers []string) (map[string]string, error)
	GetTables(ctx context.Context, sectionNumber, language string) ([]docstore.TableRow, error)
}

// SemanticSearcher ranks sections by similarity to a free-text query.
// Satisfied by *embedding.Searcher.
type SemanticSearcher interface {
	Search(ctx context.Context, query, language string, limit int) ([]embedding.Hit, error)
}

// KeywordSearcher ranks sections by full-text relevance. Satisfied by
// *docstore.Store.
type KeywordSearcher interface {
	Search(ctx context.Context, query, language string, limit int) ([]docstore.SearchRow, error)
}

// Enricher generates optional response enrichments. Satisfied by
// *enrich.Ollama. Tools treat every call as best-effort and all
// implementations as optional (a nil Enricher disables enrichment).
type Enricher interface {
	Summarize(ctx context.Context, text string) (string, error)
	KeyPoints(ctx context.Context, text string) ([]string, error)
	Explain(ctx context.Context, code, language string) (string, error)
}
