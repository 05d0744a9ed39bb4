package tools

import (
	"context"
	"errors"
	"sync"

	"github.com/athens-hdl/athens-mcp/internal/docstore"
	"github.com/athens-hdl/athens-mcp/internal/view"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// SectionTool handles the lrm_get_section MCP tool: exact-key section
// lookup with optional code examples, navigation, and enrichment.
type SectionTool struct {
	repo     Repository
	enricher Enricher
	log      zerolog.Logger
}

// NewSectionTool creates a SectionTool. enricher may be nil; the
// summarize and key_points options then degrade to no-ops.
func NewSectionTool(repo Repository, enricher Enricher, log zerolog.Logger) *SectionTool {
	return &SectionTool{repo: repo, enricher: enricher, log: log}
}

// Definition returns the MCP tool definition for lrm_get_section.
func (t *SectionTool) Definition() mcp.Tool {
	return mcp.NewTool("lrm_get_section",
		mcp.WithDescription(
			"Fetch one section of the language reference manual by its number "+
				"(e.g. \"9.2.1\"), with optional code examples and hierarchy navigation.",
		),
		mcp.WithString("section_number",
			mcp.Required(),
			mcp.Description("Section number, digits separated by dots"),
		),
		mcp.WithString("language",
			mcp.Required(),
			mcp.Description("Which manual: verilog, systemverilog, or vhdl"),
		),
		mcp.WithBoolean("include_code",
			mcp.Description("Attach the section's code examples (default: false)"),
		),
		mcp.WithBoolean("include_navigation",
			mcp.Description("Attach parent, siblings, and subsections (default: false)"),
		),
		mcp.WithBoolean("summarize",
			mcp.Description("Attach an AI-generated summary of the content (default: false, best-effort)"),
		),
		mcp.WithBoolean("key_points",
			mcp.Description("Attach AI-extracted key rules as bullet points (default: false, best-effort)"),
		),
		mcp.WithBoolean("include_metadata",
			mcp.Description("Include the metadata envelope header (default: true)"),
		),
		mcp.WithBoolean("verbose_errors",
			mcp.Description("Include remediation suggestions on a miss (default: true)"),
		),
		mcp.WithString("format",
			mcp.Description("Response rendering: markdown (default) or json"),
		),
	)
}

// Handle processes the lrm_get_section tool call.
func (t *SectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionNumber := req.GetString("section_number", "")
	if err := validateSectionNumber(sectionNumber); err != nil {
		return invalidRequest(err), nil
	}
	language := req.GetString("language", "")
	if err := validateLanguage(language); err != nil {
		return invalidRequest(err), nil
	}

	opts := view.DefaultSectionOptions()
	opts.IncludeCode = boolArg(req, "include_code", opts.IncludeCode)
	opts.IncludeNavigation = boolArg(req, "include_navigation", opts.IncludeNavigation)
	opts.Summarize = boolArg(req, "summarize", opts.Summarize)
	opts.KeyPoints = boolArg(req, "key_points", opts.KeyPoints)
	opts.IncludeMetadata = boolArg(req, "include_metadata", opts.IncludeMetadata)
	opts.VerboseErrors = boolArg(req, "verbose_errors", opts.VerboseErrors)
	format, err := view.ParseFormat(req.GetString("format", ""))
	if err != nil {
		return invalidRequest(err), nil
	}
	opts.Format = format

	doc, err := t.repo.GetSection(ctx, sectionNumber, language, opts.IncludeCode)
	if errors.Is(err, docstore.ErrNotFound) {
		return renderEmpty(view.SectionNotFoundError(sectionNumber, language, opts.VerboseErrors), opts.Format)
	}
	if err != nil {
		return upstreamError(err), nil
	}

	// Navigation lookups run only when asked for; with the flag off
	// they are never issued, not fetched and discarded.
	var nav *view.RawNavigation
	if opts.IncludeNavigation {
		nav, err = t.fetchNavigation(ctx, doc, language)
		if err != nil {
			return upstreamError(err), nil
		}
	}

	raw := view.RawSection{
		SectionNumber: doc.SectionNumber,
		Title:         doc.Title,
		Language:      doc.Language,
		Content:       doc.Content,
		PageStart:     doc.PageStart,
		PageEnd:       doc.PageEnd,
		Depth:         doc.Depth,
	}
	for _, ex := range doc.CodeExamples {
		raw.CodeExamples = append(raw.CodeExamples, view.CodeExample{Code: ex.Code, Description: ex.Description})
	}

	if opts.Summarize && t.enricher != nil {
		summary, err := t.enricher.Summarize(ctx, doc.Content)
		if err != nil {
			t.log.Warn().Err(err).Str("section", sectionNumber).Msg("summarize failed, omitting")
		} else {
			raw.Summary = summary
		}
	}
	if opts.KeyPoints && t.enricher != nil {
		points, err := t.enricher.KeyPoints(ctx, doc.Content)
		if err != nil {
			t.log.Warn().Err(err).Str("section", sectionNumber).Msg("key points failed, omitting")
		} else {
			raw.KeyPoints = points
		}
	}

	section := view.ProjectSection(raw, nav, opts)
	return renderEnvelope(view.Envelope{Section: &section},
		"lrm_get_section", language, 1, opts.IncludeMetadata, opts.Format)
}

// fetchNavigation issues the three navigation lookups concurrently:
// parent ref, siblings (parent's children), and the section's own
// children. Root sections have no parent and no sibling lookup.
func (t *SectionTool) fetchNavigation(ctx context.Context, doc *docstore.Document, language string) (*view.RawNavigation, error) {
	nav := &view.RawNavigation{}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	if doc.ParentSection != nil {
		parent := *doc.ParentSection

		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := t.repo.GetSectionRef(ctx, parent, language)
			if errors.Is(err, docstore.ErrNotFound) {
				return // orphaned parent reference, nothing to show
			}
			if err != nil {
				setErr(err)
				return
			}
			mu.Lock()
			nav.Parent = &view.SectionRef{SectionNumber: ref.SectionNumber, Title: ref.Title}
			mu.Unlock()
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			rows, err := t.repo.GetChildren(ctx, parent, language)
			if err != nil {
				setErr(err)
				return
			}
			siblings := make([]view.SiblingRef, 0, len(rows))
			for _, r := range rows {
				siblings = append(siblings, view.SiblingRef{
					SectionNumber: r.SectionNumber,
					Title:         r.Title,
					IsCurrent:     r.SectionNumber == doc.SectionNumber,
				})
			}
			mu.Lock()
			nav.Siblings = siblings
			mu.Unlock()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rows, err := t.repo.GetChildren(ctx, doc.SectionNumber, language)
		if err != nil {
			setErr(err)
			return
		}
		children := make([]view.SubsectionRef, 0, len(rows))
		for _, r := range rows {
			children = append(children, view.SubsectionRef{
				SectionNumber: r.SectionNumber,
				Title:         r.Title,
				HasChildren:   r.HasChildren,
			})
		}
		mu.Lock()
		nav.Children = children
		mu.Unlock()
	}()

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return nav, nil
}
