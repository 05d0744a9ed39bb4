package tools

import (
	"context"
	"sync"

	"github.com/athens-hdl/athens-mcp/internal/docstore"
	"github.com/athens-hdl/athens-mcp/internal/view"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// maxConcurrentExplains bounds the enrichment fan-out; local models
// degrade badly past a few concurrent generations.
const maxConcurrentExplains = 3

// CodeSearchTool handles the lrm_search_code MCP tool: keyword search
// over code examples and their descriptions.
type CodeSearchTool struct {
	repo     Repository
	enricher Enricher
	log      zerolog.Logger
}

// NewCodeSearchTool creates a CodeSearchTool. enricher may be nil; the
// explain option then degrades to a no-op.
func NewCodeSearchTool(repo Repository, enricher Enricher, log zerolog.Logger) *CodeSearchTool {
	return &CodeSearchTool{repo: repo, enricher: enricher, log: log}
}

// Definition returns the MCP tool definition for lrm_search_code.
func (t *CodeSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("lrm_search_code",
		mcp.WithDescription(
			"Search the code examples of the language reference manual. Matches "+
				"code text and descriptions; results carry the owning section and pages.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keyword to match in code or descriptions"),
		),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Which manual: verilog, systemverilog, or vhdl"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Max results (default: 10, max: 20)"),
		),
		mcp.WithBoolean("include_context",
			mcp.Description("Attach a 200-char excerpt of each owning section's content (default: false)"),
		),
		mcp.WithBoolean("explain",
			mcp.Description("Attach an AI-generated explanation per example (default: false, best-effort)"),
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

// Handle processes the lrm_search_code tool call.
func (t *CodeSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return invalidRequest(errRequired("query")), nil
	}
	language := req.GetString("language", "")
	if err := validateLanguage(language); err != nil {
		return invalidRequest(err), nil
	}

	opts := view.DefaultCodeOptions()
	opts.MaxResults = view.ClampLimit(intArg(req, "max_results", 0), opts.MaxResults, view.MaxCodeResults)
	opts.IncludeContext = boolArg(req, "include_context", opts.IncludeContext)
	opts.Explain = boolArg(req, "explain", opts.Explain)
	opts.IncludeMetadata = boolArg(req, "include_metadata", opts.IncludeMetadata)
	opts.VerboseErrors = boolArg(req, "verbose_errors", opts.VerboseErrors)
	format, err := view.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return invalidRequest(err), nil
	}
	opts.Format = format

	// One query carries the code, owning sections, and page numbers.
	rows, err := t.repo.SearchCode(ctx, query, language, opts.MaxResults)
	if err != nil {
		return upstreamError(err), nil
	}

	if len(rows) == 0 {
		return renderEmpty(view.NoCodeExamplesError(query, language, opts.VerboseErrors), opts.Format)
	}

	raw := make([]view.RawCodeHit, 0, len(rows))
	for _, r := range rows {
		raw = append(raw, view.RawCodeHit{
			SectionNumber: r.SectionNumber,
			SectionTitle:  r.SectionTitle,
			PageStart:     r.PageStart,
			PageEnd:       r.PageEnd,
			Code:          r.Code,
			Description:   r.Description,
		})
	}

	// Context is one batched lookup for all distinct owning sections,
	// issued only when asked for.
	if opts.IncludeContext {
		previews, err := t.repo.ContentPreviews(ctx, language, distinctSections(rows))
		if err != nil {
			return upstreamError(err), nil
		}
		for i := range raw {
			raw[i].Context = previews[raw[i].SectionNumber]
		}
	}

	if opts.Explain && t.enricher != nil {
		t.explainAll(ctx, raw, language)
	}

	results := make([]view.CodeHit, 0, len(raw))
	for _, r := range raw {
		results = append(results, view.ProjectCodeHit(r))
	}

	return renderEnvelope(view.Envelope{Results: results},
		"lrm_search_code", language, len(results), opts.IncludeMetadata, opts.Format)
}

// explainAll fans out enrichment calls across the hits with bounded
// concurrency. Failures leave the hit's explanation empty.
func (t *CodeSearchTool) explainAll(ctx context.Context, hits []view.RawCodeHit, language string) {
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentExplains)

	for i := range hits {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			explanation, err := t.enricher.Explain(ctx, hits[i].Code, language)
			if err != nil {
				t.log.Warn().Err(err).Str("section", hits[i].SectionNumber).Msg("explain failed, omitting")
				return
			}
			hits[i].Explanation = explanation
		}(i)
	}

	wg.Wait()
}

// distinctSections returns the unique owning-section numbers of a
// result set, in first-seen order.
func distinctSections(rows []docstore.CodeRow) []string {
	seen := make(map[string]struct{}, len(rows))
	var numbers []string
	for _, r := range rows {
		if _, ok := seen[r.SectionNumber]; ok {
			continue
		}
		seen[r.SectionNumber] = struct{}{}
		numbers = append(numbers, r.SectionNumber)
	}
	return numbers
}
