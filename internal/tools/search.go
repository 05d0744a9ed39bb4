package tools

import (
	"context"
	"fmt"

	"github.com/athens-hdl/athens-mcp/internal/view"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// SearchTool handles the lrm_search MCP tool: semantic search over
// section content, with FTS5 keyword matching as the alternate mode.
type SearchTool struct {
	semantic SemanticSearcher
	keyword  KeywordSearcher
	log      zerolog.Logger
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(semantic SemanticSearcher, keyword KeywordSearcher, log zerolog.Logger) *SearchTool {
	return &SearchTool{semantic: semantic, keyword: keyword, log: log}
}

// Definition returns the MCP tool definition for lrm_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("lrm_search",
		mcp.WithDescription(
			"Search the language reference manual by topic. The default semantic mode "+
				"returns the sections most similar to the query; keyword mode matches "+
				"exact terms via full-text search.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to look for — natural language or keywords"),
		),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Which manual to search: verilog, systemverilog, or vhdl"),
		),
		mcp.WithString("mode",
			mcp.Description("semantic (similarity over embeddings, default) or keyword (exact full-text match)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Content per result: minimal (identity only), preview (200-char excerpt, default), full"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Max results (default: 5, max: 20)"),
		),
		mcp.WithBoolean("include_metadata",
			mcp.Description("Include the metadata envelope header (default: true)"),
		),
		mcp.WithBoolean("verbose_errors",
			mcp.Description("Include remediation suggestions on empty results (default: true)"),
		),
		mcp.WithString("format",
			mcp.Description("Response rendering: markdown (default) or json"),
		),
	)
}

// Handle processes the lrm_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return invalidRequest(errRequired("query")), nil
	}
	language := req.GetString("language", "")
	if err := validateLanguage(language); err != nil {
		return invalidRequest(err), nil
	}

	opts := view.DefaultSearchOptions()
	level, err := view.ParseDetailLevel(req.GetString("detail_level", ""), opts.DetailLevel)
	if err != nil {
		return invalidRequest(err), nil
	}
	opts.DetailLevel = level
	opts.MaxResults = view.ClampLimit(intArg(req, "max_results", 0), opts.MaxResults, view.MaxSearchResults)
	opts.IncludeMetadata = boolArg(req, "include_metadata", opts.IncludeMetadata)
	opts.VerboseErrors = boolArg(req, "verbose_errors", opts.VerboseErrors)
	format, err := view.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return invalidRequest(err), nil
	}
	opts.Format = format

	mode := req.GetString("mode", "semantic")
	var raw []view.RawHit
	switch mode {
	case "semantic":
		hits, err := t.semantic.Search(ctx, query, language, opts.MaxResults)
		if err != nil {
			t.log.Warn().Err(err).Str("language", language).Msg("semantic search failed")
			return upstreamError(err), nil
		}
		for _, h := range hits {
			raw = append(raw, view.RawHit{
				SectionNumber: h.SectionNumber,
				Title:         h.Title,
				Page:          h.Page,
				Score:         h.Similarity,
				ScoreKind:     view.ScoreSimilarity,
				Content:       h.Content,
			})
		}
	case "keyword":
		rows, err := t.keyword.Search(ctx, query, language, opts.MaxResults)
		if err != nil {
			return upstreamError(err), nil
		}
		// Keyword hits carry the matched snippet rather than the full
		// section content.
		for _, r := range rows {
			raw = append(raw, view.RawHit{
				SectionNumber: r.SectionNumber,
				Title:         r.Title,
				Page:          r.PageStart,
				Score:         r.Relevance,
				ScoreKind:     view.ScoreRelevance,
				Content:       r.Snippet,
			})
		}
	default:
		return invalidRequest(fmt.Errorf("unknown mode %q (want semantic or keyword)", mode)), nil
	}

	if len(raw) == 0 {
		return renderEmpty(view.NoResultsError(query, language, opts.VerboseErrors), opts.Format)
	}

	results := make([]view.SearchHit, 0, len(raw))
	for _, h := range raw {
		results = append(results, view.ProjectHit(h, opts.DetailLevel))
	}

	return renderEnvelope(view.Envelope{Results: results},
		"lrm_search", language, len(results), opts.IncludeMetadata, opts.Format)
}
