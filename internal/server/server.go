// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the LRM store, creates the
// provider clients, and injects them into the tools that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/athens-hdl/athens-mcp/internal/config"
	"github.com/athens-hdl/athens-mcp/internal/docstore"
	"github.com/athens-hdl/athens-mcp/internal/embedding"
	"github.com/athens-hdl/athens-mcp/internal/enrich"
	"github.com/athens-hdl/athens-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// Version is set at build time via ldflags.
var Version = "dev"

// readinessTimeout bounds the startup probe of the embedding server.
const readinessTimeout = 5 * time.Second

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the store's database connection
// and must be called on shutdown (typically via defer). It is always
// non-nil and safe to call.
func New(cfg config.Config, log zerolog.Logger) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	store, err := docstore.Open(cfg.DBPath)
	if err != nil {
		return nil, noop, fmt.Errorf("opening LRM store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("store close")
		}
	}

	// The embedding server is a long-lived process assumed to be running
	// already. A failed probe is not fatal — lrm_search reports
	// upstream_unavailable until the server comes up.
	encoder := embedding.NewClient(cfg.EmbeddingURL)
	probeCtx, cancel := context.WithTimeout(context.Background(), readinessTimeout)
	defer cancel()
	if err := encoder.Ready(probeCtx); err != nil {
		log.Warn().Err(err).Str("url", cfg.EmbeddingURL).Msg("embedding server not ready")
	}
	searcher := embedding.NewSearcher(encoder, store, cfg.EmbeddingModel)

	// Enrichment is an independent subsystem: if the client cannot be
	// created, the summarize/key_points/explain options degrade to
	// no-ops and everything else keeps working.
	var enricher tools.Enricher
	if ollama, err := enrich.NewOllama(cfg.OllamaHost, cfg.EnrichModel); err != nil {
		log.Warn().Err(err).Msg("enrichment disabled")
	} else {
		enricher = ollama
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"athens-lrm",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register query tools ---

	searchTool := tools.NewSearchTool(searcher, store, log)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	sectionTool := tools.NewSectionTool(store, enricher, log)
	s.AddTool(sectionTool.Definition(), sectionTool.Handle)

	listTool := tools.NewListSectionsTool(store, log)
	s.AddTool(listTool.Definition(), listTool.Handle)

	codeTool := tools.NewCodeSearchTool(store, enricher, log)
	s.AddTool(codeTool.Definition(), codeTool.Handle)

	tableTool := tools.NewTableTool(store, log)
	s.AddTool(tableTool.Definition(), tableTool.Handle)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used when wiring fails before the
// store is open.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the LRM tools effectively.
func serverInstructions() string {
	return `You have access to Athens, a language reference manual (LRM) query
server for hardware description languages: verilog, systemverilog, and vhdl.

## Tools

- lrm_search: search by topic. Start here when you don't know the
  section number. The default semantic mode ranks by similarity; pass
  mode=keyword for exact full-text matching of construct names.
- lrm_get_section: fetch one section by number (e.g. "9.2.1"). Use
  include_navigation to see where the section sits in the hierarchy,
  include_code for its code examples.
- lrm_list_sections: browse the table of contents. Use parent to drill
  into a subtree, search_filter to find sections by title.
- lrm_search_code: keyword search over code examples. Use
  include_context for an excerpt of the owning section.
- lrm_get_table: fetch the tables of a section.

## Managing response size

Several tools take a detail_level parameter:
- minimal: section numbers and titles only. Use for orientation.
- preview: 200-character content excerpts. The lrm_search default.
- full: complete content. Use only when you need to read the section.

Progressive disclosure works best: search with the default preview
level, then fetch the one section you need with lrm_get_section.

Set include_metadata=false and verbose_errors=false to shave tokens
from responses once you know the tools.

## Empty results vs failures

An empty outcome (no_results, section_not_found, no_sections,
no_code_examples, no_tables) comes back as a structured payload with
suggestions for what to try next. A tool error starting with
upstream_unavailable means the store or a provider could not be
reached — that is an operational problem, not a missing section.`
}
