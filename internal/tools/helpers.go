// Package tools implements the five MCP tool handlers of the LRM query
// server.
//
// Each tool follows the same pattern:
// - A struct with dependencies injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() validates the request, calls the store/providers, projects
//   the result through internal/view, and renders it
//
// Tools depend on the small interfaces in deps.go, not on concrete
// store types, so tests can count repository calls with doubles.
//
// Failure classes are kept apart: a legitimate empty outcome renders a
// structured view.ErrorPayload as a normal text result; a request that
// fails validation or an unreachable store/provider surfaces as a tool
// error ("invalid_request: ..." / "upstream_unavailable: ...").
package tools

import (
	"fmt"
	"regexp"
	"time"

	"github.com/athens-hdl/athens-mcp/internal/docstore"
	"github.com/athens-hdl/athens-mcp/internal/view"
	"github.com/mark3labs/mcp-go/mcp"
)

// now is a package-level var to allow test injection of metadata
// timestamps.
var now = time.Now

var sectionNumberRe = regexp.MustCompile(`^\d+(\.\d+)*$`)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// errRequired reports a missing required argument.
func errRequired(key string) error {
	return fmt.Errorf("'%s' is required", key)
}

// validateLanguage rejects anything outside the fixed manual set.
func validateLanguage(language string) error {
	if language == "" {
		return fmt.Errorf("'language' is required")
	}
	if !docstore.ValidLanguage(language) {
		return fmt.Errorf("unsupported language %q (want verilog, systemverilog, or vhdl)", language)
	}
	return nil
}

// validateSectionNumber rejects malformed section numbers before any
// store call.
func validateSectionNumber(sectionNumber string) error {
	if sectionNumber == "" {
		return fmt.Errorf("'section_number' is required")
	}
	if !sectionNumberRe.MatchString(sectionNumber) {
		return fmt.Errorf("malformed section number %q (want digits separated by dots, e.g. \"9.2.1\")", sectionNumber)
	}
	return nil
}

// invalidRequest renders a validation failure as a tool error, distinct
// from both empty outcomes and upstream failures.
func invalidRequest(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("invalid_request: " + err.Error())
}

// upstreamError renders a store/provider failure as a tool error. An
// unreachable upstream must never masquerade as an empty result.
func upstreamError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError("upstream_unavailable: " + err.Error())
}

// metadata builds the optional envelope header.
func metadata(tool, language string, count int) *view.Metadata {
	return &view.Metadata{
		Tool:        tool,
		Language:    language,
		Count:       count,
		GeneratedAt: now().UTC().Format(time.RFC3339),
	}
}

// renderEnvelope serializes a projected envelope, attaching metadata
// when requested.
func renderEnvelope(env view.Envelope, tool, language string, count int, includeMetadata bool, format view.Format) (*mcp.CallToolResult, error) {
	if includeMetadata {
		env.Metadata = metadata(tool, language, count)
	}
	text, err := view.Render(env, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering response: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

// renderEmpty serializes an empty-outcome payload as a normal result.
func renderEmpty(payload view.ErrorPayload, format view.Format) (*mcp.CallToolResult, error) {
	text, err := view.RenderError(payload, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering response: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}
