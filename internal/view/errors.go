package view

import "fmt"

// ErrorKind classifies the legitimate empty outcomes of the query
// tools. Infrastructure failures (store unreachable, embedding server
// down) are not ErrorKinds — handlers surface those as tool-level
// failures so "nothing matched" is never conflated with "couldn't ask".
type ErrorKind string

const (
	ErrNoResults       ErrorKind = "no_results"
	ErrSectionNotFound ErrorKind = "section_not_found"
	ErrNoSections      ErrorKind = "no_sections"
	ErrNoCodeExamples  ErrorKind = "no_code_examples"
	ErrNoTables        ErrorKind = "no_tables"
)

// Suggestion is one actionable remediation hint: a human description
// plus a concrete tool invocation the caller can try next.
type Suggestion struct {
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Tool        string         `json:"tool,omitempty"`
	Args        map[string]any `json:"args,omitempty"`
}

// ErrorPayload is the structured failure response for an empty outcome.
// With verbose errors suppressed the payload is exactly {error, message}:
// Suggestions is nil, not an empty array.
type ErrorPayload struct {
	Error       ErrorKind    `json:"error"`
	Message     string       `json:"message"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

// NoResultsError builds the payload for a search that matched nothing.
func NoResultsError(query, language string, verbose bool) ErrorPayload {
	p := ErrorPayload{
		Error:   ErrNoResults,
		Message: fmt.Sprintf("No sections matched %q in the %s reference manual.", query, language),
	}
	if verbose {
		p.Suggestions = []Suggestion{
			{
				Action:      "broaden_query",
				Description: "Retry with fewer or more general terms.",
				Tool:        "lrm_search",
				Args:        map[string]any{"query": query, "language": language, "max_results": 10},
			},
			{
				Action:      "browse_toc",
				Description: "Browse the table of contents to locate the topic by section number.",
				Tool:        "lrm_list_sections",
				Args:        map[string]any{"language": language},
			},
			{
				Action:      "check_index",
				Description: fmt.Sprintf("Verify the similarity index was generated for %s (run the embedding generator if not).", language),
			},
		}
	}
	return p
}

// SectionNotFoundError builds the payload for an exact-key miss.
func SectionNotFoundError(sectionNumber, language string, verbose bool) ErrorPayload {
	p := ErrorPayload{
		Error:   ErrSectionNotFound,
		Message: fmt.Sprintf("Section %s not found in the %s reference manual.", sectionNumber, language),
	}
	if verbose {
		p.Suggestions = []Suggestion{
			{
				Action:      "list_siblings",
				Description: "List nearby sections to find the correct number.",
				Tool:        "lrm_list_sections",
				Args:        listArgs(sectionNumber, language),
			},
			{
				Action:      "search_instead",
				Description: "Search by topic instead of section number.",
				Tool:        "lrm_search",
				Args:        map[string]any{"query": sectionNumber, "language": language},
			},
		}
	}
	return p
}

// NoSectionsError builds the payload for an empty table-of-contents
// listing.
func NoSectionsError(parent, language string, verbose bool) ErrorPayload {
	msg := fmt.Sprintf("No sections found for the %s reference manual.", language)
	if parent != "" {
		msg = fmt.Sprintf("Section %s of the %s reference manual has no subsections.", parent, language)
	}
	p := ErrorPayload{Error: ErrNoSections, Message: msg}
	if verbose {
		suggestions := []Suggestion{
			{
				Action:      "list_top_level",
				Description: "List the top-level sections instead.",
				Tool:        "lrm_list_sections",
				Args:        map[string]any{"language": language},
			},
		}
		if parent != "" {
			suggestions = append(suggestions, Suggestion{
				Action:      "get_section",
				Description: fmt.Sprintf("Fetch section %s itself to read its content.", parent),
				Tool:        "lrm_get_section",
				Args:        map[string]any{"section_number": parent, "language": language},
			})
		}
		p.Suggestions = suggestions
	}
	return p
}

// NoCodeExamplesError builds the payload for a code search that matched
// nothing.
func NoCodeExamplesError(query, language string, verbose bool) ErrorPayload {
	p := ErrorPayload{
		Error:   ErrNoCodeExamples,
		Message: fmt.Sprintf("No code examples matched %q in the %s reference manual.", query, language),
	}
	if verbose {
		p.Suggestions = []Suggestion{
			{
				Action:      "broaden_query",
				Description: "Retry with a shorter keyword (a single construct name works best).",
				Tool:        "lrm_search_code",
				Args:        map[string]any{"query": query, "language": language, "max_results": 20},
			},
			{
				Action:      "search_prose",
				Description: "Search section text instead; examples are often described before they are listed.",
				Tool:        "lrm_search",
				Args:        map[string]any{"query": query, "language": language},
			},
		}
	}
	return p
}

// NoTablesError builds the payload for a section with no tables.
func NoTablesError(sectionNumber, language string, verbose bool) ErrorPayload {
	p := ErrorPayload{
		Error:   ErrNoTables,
		Message: fmt.Sprintf("Section %s of the %s reference manual has no tables.", sectionNumber, language),
	}
	if verbose {
		p.Suggestions = []Suggestion{
			{
				Action:      "get_section",
				Description: "Fetch the section content; the material may be prose rather than tabular.",
				Tool:        "lrm_get_section",
				Args:        map[string]any{"section_number": sectionNumber, "language": language},
			},
			{
				Action:      "check_subsections",
				Description: "Tables are attached to the section that contains them; check the subsections.",
				Tool:        "lrm_list_sections",
				Args:        map[string]any{"language": language, "parent": sectionNumber},
			},
		}
	}
	return p
}

// listArgs points lrm_list_sections at the parent of a missing section
// when one can be derived, so the suggestion lands next to where the
// caller was looking.
func listArgs(sectionNumber, language string) map[string]any {
	args := map[string]any{"language": language}
	if parent := ParentNumber(sectionNumber); parent != "" {
		args["parent"] = parent
	}
	return args
}

// ParentNumber returns the section number with its last segment
// removed, or "" for a root section.
func ParentNumber(sectionNumber string) string {
	for i := len(sectionNumber) - 1; i >= 0; i-- {
		if sectionNumber[i] == '.' {
			return sectionNumber[:i]
		}
	}
	return ""
}
