package view

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Render serializes an already-projected envelope in the requested
// format. Formatting is presentation only: it never adds or removes
// fields relative to the projection.
func Render(env Envelope, format Format) (string, error) {
	if format == FormatJSON {
		return renderJSON(env)
	}
	return renderMarkdown(env), nil
}

// RenderError serializes an error payload in the requested format.
func RenderError(p ErrorPayload, format Format) (string, error) {
	if format == FormatJSON {
		return renderJSON(p)
	}
	return renderErrorMarkdown(p), nil
}

func renderJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("view: marshal response: %w", err)
	}
	return string(data), nil
}

func renderMarkdown(env Envelope) string {
	var b strings.Builder

	switch {
	case env.Section != nil:
		writeSection(&b, env.Section)
	case env.Tables != nil:
		writeTables(&b, env.Tables)
	default:
		switch results := env.Results.(type) {
		case []SearchHit:
			writeSearchHits(&b, results)
		case []SectionEntry:
			writeEntries(&b, results)
		case []CodeHit:
			writeCodeHits(&b, results)
		}
	}

	if env.Metadata != nil {
		m := env.Metadata
		fmt.Fprintf(&b, "\n---\n%s | %s | %d result(s) | %s\n",
			m.Tool, m.Language, m.Count, m.GeneratedAt)
	}
	return b.String()
}

func writeSearchHits(b *strings.Builder, hits []SearchHit) {
	fmt.Fprintf(b, "Found %d section(s):\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(b, "[%d] %s %s (p. %d)", i+1, h.SectionNumber, h.Title, h.Page)
		if h.Similarity != nil {
			fmt.Fprintf(b, " — similarity %.3f", *h.Similarity)
		}
		if h.Relevance != nil {
			fmt.Fprintf(b, " — relevance %.3f", *h.Relevance)
		}
		b.WriteString("\n")
		if h.ContentPreview != nil {
			fmt.Fprintf(b, "    %s\n", *h.ContentPreview)
		}
		if h.Content != nil {
			fmt.Fprintf(b, "\n%s\n", *h.Content)
		}
		b.WriteString("\n")
	}
}

func writeSection(b *strings.Builder, s *SectionView) {
	fmt.Fprintf(b, "# %s %s\n\n", s.SectionNumber, s.Title)
	fmt.Fprintf(b, "Language: %s | Pages %d–%d | Depth %d\n\n", s.Language, s.PageStart, s.PageEnd, s.Depth)

	if s.ParentSection != nil {
		fmt.Fprintf(b, "Parent: %s %s\n\n", s.ParentSection.SectionNumber, s.ParentSection.Title)
	}

	if s.Summary != nil {
		fmt.Fprintf(b, "## Summary\n\n%s\n\n", *s.Summary)
	}

	if len(s.KeyPoints) > 0 {
		b.WriteString("## Key points\n\n")
		for _, p := range s.KeyPoints {
			fmt.Fprintf(b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(b, "%s\n", s.Content)

	if len(s.CodeExamples) > 0 {
		b.WriteString("\n## Code examples\n")
		for _, ex := range s.CodeExamples {
			if ex.Description != nil {
				fmt.Fprintf(b, "\n%s\n", *ex.Description)
			}
			fmt.Fprintf(b, "\n```\n%s\n```\n", ex.Code)
		}
	}

	if s.SiblingSections != nil && len(*s.SiblingSections) > 0 {
		b.WriteString("\n## Siblings\n\n")
		for _, sib := range *s.SiblingSections {
			marker := "-"
			if sib.IsCurrent {
				marker = "*"
			}
			fmt.Fprintf(b, "%s %s %s\n", marker, sib.SectionNumber, sib.Title)
		}
	}

	if s.Subsections != nil {
		b.WriteString("\n## Subsections\n\n")
		if len(*s.Subsections) == 0 {
			b.WriteString("(none)\n")
		}
		for _, sub := range *s.Subsections {
			fmt.Fprintf(b, "- %s %s", sub.SectionNumber, sub.Title)
			if sub.HasChildren {
				b.WriteString(" …")
			}
			b.WriteString("\n")
		}
	}
}

func writeEntries(b *strings.Builder, entries []SectionEntry) {
	fmt.Fprintf(b, "Found %d section(s):\n\n", len(entries))
	for _, e := range entries {
		indent := ""
		if e.Depth != nil {
			indent = strings.Repeat("  ", *e.Depth)
		}
		fmt.Fprintf(b, "%s- %s %s", indent, e.SectionNumber, e.Title)
		if e.HasSubsections != nil && *e.HasSubsections {
			b.WriteString(" …")
		}
		b.WriteString("\n")
	}
}

func writeCodeHits(b *strings.Builder, hits []CodeHit) {
	fmt.Fprintf(b, "Found %d code example(s):\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(b, "[%d] %s %s (pp. %d–%d)\n", i+1, h.SectionNumber, h.SectionTitle, h.PageStart, h.PageEnd)
		if h.Description != nil {
			fmt.Fprintf(b, "    %s\n", *h.Description)
		}
		fmt.Fprintf(b, "\n```\n%s\n```\n", h.Code)
		if h.Context != nil {
			fmt.Fprintf(b, "\nContext: %s\n", *h.Context)
		}
		if h.Explanation != nil {
			fmt.Fprintf(b, "\nExplanation: %s\n", *h.Explanation)
		}
		b.WriteString("\n")
	}
}

func writeTables(b *strings.Builder, tables []TableHit) {
	fmt.Fprintf(b, "Found %d table(s):\n\n", len(tables))
	for i, t := range tables {
		if t.Caption != nil {
			fmt.Fprintf(b, "## Table %d: %s\n\n", i+1, *t.Caption)
		} else {
			fmt.Fprintf(b, "## Table %d\n\n", i+1)
		}
		fmt.Fprintf(b, "%s\n\n", t.Markdown)
	}
}

func renderErrorMarkdown(p ErrorPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n\n%s\n", p.Error, p.Message)
	if len(p.Suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, s := range p.Suggestions {
			fmt.Fprintf(&b, "- %s", s.Description)
			if s.Tool != "" {
				args, _ := json.Marshal(s.Args)
				fmt.Fprintf(&b, " → %s %s", s.Tool, args)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
