package view

import "unicode/utf8"

// Preview returns the fixed-length prefix of s used for preview fields.
// Content at or under PreviewLength is returned unchanged with no
// marker; longer content is cut at PreviewLength bytes and the marker
// appended. The cut backs off to the nearest rune boundary so the
// preview stays valid UTF-8 and a strict prefix of the full content
// even when a multibyte rune straddles the limit.
func Preview(s string) string {
	if len(s) <= PreviewLength {
		return s
	}
	cut := PreviewLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + PreviewMarker
}

// ProjectHit projects one raw search result to the requested detail
// level. Identity fields (section number, title, page, score) are
// present at every level; minimal carries no content at all, preview
// carries the content prefix, and full carries the complete content
// with the preview field omitted entirely.
func ProjectHit(raw RawHit, level DetailLevel) SearchHit {
	hit := SearchHit{
		SectionNumber: raw.SectionNumber,
		Title:         raw.Title,
		Page:          raw.Page,
	}
	score := raw.Score
	switch raw.ScoreKind {
	case ScoreSimilarity:
		hit.Similarity = &score
	case ScoreRelevance:
		hit.Relevance = &score
	}

	switch level {
	case DetailPreview:
		p := Preview(raw.Content)
		hit.ContentPreview = &p
	case DetailFull:
		content := raw.Content
		hit.Content = &content
	}
	return hit
}

// ProjectSection projects a raw section plus its optional navigation
// results into a SectionView. nav must be nil when navigation was not
// requested — the projector emits navigation keys if and only if nav is
// non-nil, so a handler that skipped the lookups produces a view with
// no navigation keys at all.
//
// Sibling listings are only emitted when at least two siblings exist
// (the section itself counts as one); a lone child has no meaningful
// sibling context.
func ProjectSection(raw RawSection, nav *RawNavigation, opts SectionOptions) SectionView {
	sv := SectionView{
		SectionNumber: raw.SectionNumber,
		Title:         raw.Title,
		Language:      raw.Language,
		Content:       raw.Content,
		PageStart:     raw.PageStart,
		PageEnd:       raw.PageEnd,
		Depth:         raw.Depth,
	}

	if opts.IncludeCode {
		sv.CodeExamples = raw.CodeExamples
	}

	if raw.Summary != "" {
		summary := raw.Summary
		sv.Summary = &summary
	}
	sv.KeyPoints = raw.KeyPoints

	if nav != nil {
		sv.ParentSection = nav.Parent

		if len(nav.Siblings) >= 2 {
			siblings := nav.Siblings
			sv.SiblingSections = &siblings
		}

		children := nav.Children
		if children == nil {
			children = []SubsectionRef{}
		}
		sv.Subsections = &children
	}

	return sv
}

// ProjectEntry projects one table-of-contents row. This operation's
// detail level is binary: minimal emits only the identity pair, and
// anything else emits depth and has_subsections as well.
func ProjectEntry(raw RawEntry, level DetailLevel) SectionEntry {
	entry := SectionEntry{
		SectionNumber: raw.SectionNumber,
		Title:         raw.Title,
	}
	if level != DetailMinimal {
		depth := raw.Depth
		has := raw.HasChildren
		entry.Depth = &depth
		entry.HasSubsections = &has
	}
	return entry
}

// ProjectCodeHit projects one raw code search result. Context and
// Explanation are emitted only when the raw result actually carries
// them: a handler that skipped the context fetch or whose enrichment
// call failed leaves them empty and the keys are absent.
func ProjectCodeHit(raw RawCodeHit) CodeHit {
	hit := CodeHit{
		SectionNumber: raw.SectionNumber,
		SectionTitle:  raw.SectionTitle,
		PageStart:     raw.PageStart,
		PageEnd:       raw.PageEnd,
		Code:          raw.Code,
		Description:   raw.Description,
	}
	if raw.Context != "" {
		ctx := Preview(raw.Context)
		hit.Context = &ctx
	}
	if raw.Explanation != "" {
		expl := raw.Explanation
		hit.Explanation = &expl
	}
	return hit
}
