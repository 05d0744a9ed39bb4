package tools

import (
	"context"
	"fmt"

	"github.com/athens-hdl/athens-mcp/internal/view"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// maxListDepth bounds the max_depth argument; the manuals never nest
// deeper than this.
const maxListDepth = 10

// ListSectionsTool handles the lrm_list_sections MCP tool: hierarchical
// table-of-contents browsing.
type ListSectionsTool struct {
	repo Repository
	log  zerolog.Logger
}

// NewListSectionsTool creates a ListSectionsTool.
func NewListSectionsTool(repo Repository, log zerolog.Logger) *ListSectionsTool {
	return &ListSectionsTool{repo: repo, log: log}
}

// Definition returns the MCP tool definition for lrm_list_sections.
func (t *ListSectionsTool) Definition() mcp.Tool {
	return mcp.NewTool("lrm_list_sections",
		mcp.WithDescription(
			"Browse the language reference manual's table of contents: top-level "+
				"sections, the subtree under a parent section, or sections matching "+
				"a title filter.",
		),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Which manual: verilog, systemverilog, or vhdl"),
		),
		mcp.WithString("parent",
			mcp.Description("List the subtree under this section number instead of the top level"),
		),
		mcp.WithNumber("max_depth",
			mcp.Description("How many hierarchy levels to include (default: 2)"),
		),
		mcp.WithString("search_filter",
			mcp.Description("Case-insensitive title substring; applies across all depths and overrides 'parent'"),
		),
		mcp.WithString("detail_level",
			mcp.Description("Per entry: minimal (number and title) or full (adds depth and has_subsections, default)"),
		),
		mcp.WithBoolean("include_metadata",
			mcp.Description("Include the metadata envelope header (default: true)"),
		),
		mcp.WithBoolean("verbose_errors",
			mcp.Description("Include remediation suggestions on an empty listing (default: true)"),
		),
		mcp.WithString("format",
			mcp.Description("Response rendering: markdown (default) or json"),
		),
	)
}

// Handle processes the lrm_list_sections tool call.
func (t *ListSectionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	language := req.GetString("language", "")
	if err := validateLanguage(language); err != nil {
		return invalidRequest(err), nil
	}

	opts := view.DefaultListOptions()
	opts.Parent = req.GetString("parent", "")
	if opts.Parent != "" {
		if err := validateSectionNumber(opts.Parent); err != nil {
			return invalidRequest(err), nil
		}
	}
	opts.MaxDepth = view.ClampLimit(intArg(req, "max_depth", 0), opts.MaxDepth, maxListDepth)
	opts.SearchFilter = req.GetString("search_filter", "")

	// This operation's detail level is binary: minimal or full.
	level, err := view.ParseDetailLevel(req.GetString("detail_level", ""), opts.DetailLevel)
	if err != nil {
		return invalidRequest(err), nil
	}
	if level == view.DetailPreview {
		return invalidRequest(fmt.Errorf("detail_level 'preview' is not supported by lrm_list_sections (want minimal or full)")), nil
	}
	opts.DetailLevel = level
	opts.IncludeMetadata = boolArg(req, "include_metadata", opts.IncludeMetadata)
	opts.VerboseErrors = boolArg(req, "verbose_errors", opts.VerboseErrors)
	format, err := view.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return invalidRequest(err), nil
	}
	opts.Format = format

	rows, err := t.repo.ListSections(ctx, language, opts.Parent, opts.MaxDepth, opts.SearchFilter)
	if err != nil {
		return upstreamError(err), nil
	}

	if len(rows) == 0 {
		return renderEmpty(view.NoSectionsError(opts.Parent, language, opts.VerboseErrors), opts.Format)
	}

	results := make([]view.SectionEntry, 0, len(rows))
	for _, r := range rows {
		results = append(results, view.ProjectEntry(view.RawEntry{
			SectionNumber: r.SectionNumber,
			Title:         r.Title,
			Depth:         r.Depth,
			HasChildren:   r.HasChildren,
		}, opts.DetailLevel))
	}

	return renderEnvelope(view.Envelope{Results: results},
		"lrm_list_sections", language, len(results), opts.IncludeMetadata, opts.Format)
}
