package tools

import (
	"context"
	"encoding/json"

	"github.com/athens-hdl/athens-mcp/internal/docstore"
	"github.com/athens-hdl/athens-mcp/internal/view"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// TableTool handles the lrm_get_table MCP tool: fetch the tables
// attached to a section.
type TableTool struct {
	repo Repository
	log  zerolog.Logger
}

// NewTableTool creates a TableTool.
func NewTableTool(repo Repository, log zerolog.Logger) *TableTool {
	return &TableTool{repo: repo, log: log}
}

// Definition returns the MCP tool definition for lrm_get_table.
func (t *TableTool) Definition() mcp.Tool {
	return mcp.NewTool("lrm_get_table",
		mcp.WithDescription(
			"Fetch the tables of a language reference manual section. Each table "+
				"carries a markdown rendering and, where available, structured rows.",
		),
		mcp.WithString("section_number",
			mcp.Required(),
			mcp.Description("Section number, digits separated by dots"),
		),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Which manual: verilog, systemverilog, or vhdl"),
		),
		mcp.WithBoolean("include_metadata",
			mcp.Description("Include the metadata envelope header (default: true)"),
		),
		mcp.WithBoolean("verbose_errors",
			mcp.Description("Include remediation suggestions when no tables exist (default: true)"),
		),
		mcp.WithString("format",
			mcp.Description("Response rendering: markdown (default) or json"),
		),
	)
}

// Handle processes the lrm_get_table tool call.
func (t *TableTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionNumber := req.GetString("section_number", "")
	if err := validateSectionNumber(sectionNumber); err != nil {
		return invalidRequest(err), nil
	}
	language := req.GetString("language", "")
	if err := validateLanguage(language); err != nil {
		return invalidRequest(err), nil
	}

	opts := view.DefaultTableOptions()
	opts.IncludeMetadata = boolArg(req, "include_metadata", opts.IncludeMetadata)
	opts.VerboseErrors = boolArg(req, "verbose_errors", opts.VerboseErrors)
	format, err := view.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return invalidRequest(err), nil
	}
	opts.Format = format

	rows, err := t.repo.GetTables(ctx, sectionNumber, language)
	if err != nil {
		return upstreamError(err), nil
	}

	if len(rows) == 0 {
		return renderEmpty(view.NoTablesError(sectionNumber, language, opts.VerboseErrors), opts.Format)
	}

	tables := make([]view.TableHit, 0, len(rows))
	for _, r := range rows {
		hit := view.TableHit{Caption: r.Caption, Markdown: r.Markdown}
		hit.StructuredRows = t.parseRows(r, sectionNumber)
		tables = append(tables, hit)
	}

	return renderEnvelope(view.Envelope{Tables: tables},
		"lrm_get_table", language, len(tables), opts.IncludeMetadata, opts.Format)
}

// parseRows decodes a table's structured duplicate. The parser stores
// rows of cells as JSON; a table with no structured form, or one that
// fails to decode, is served markdown-only.
func (t *TableTool) parseRows(row docstore.TableRow, sectionNumber string) [][]string {
	if row.ContentJSON == nil || *row.ContentJSON == "" {
		return nil
	}
	var cells [][]string
	if err := json.Unmarshal([]byte(*row.ContentJSON), &cells); err != nil {
		t.log.Warn().Err(err).Str("section", sectionNumber).Msg("malformed structured table rows, serving markdown only")
		return nil
	}
	return cells
}
