package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/athens-hdl/athens-mcp/internal/docstore"
)

// Hit is one semantic search result. Similarity is cosine similarity
// in [0,1] (negative cosines are clamped to 0), sorted descending with
// section number as the deterministic tie-break.
type Hit struct {
	SectionNumber string
	Title         string
	Page          int
	Similarity    float64
	Content       string
}

// Encoder embeds a query string. Satisfied by *Client.
type Encoder interface {
	Encode(ctx context.Context, query string) ([]float64, error)
}

// VectorSource supplies the stored per-section vectors. Satisfied by
// *docstore.Store.
type VectorSource interface {
	SectionEmbeddings(ctx context.Context, language, model string) ([]docstore.EmbeddingRow, error)
}

// Searcher ranks sections by similarity between a freshly embedded
// query and the vectors the ingestion pipeline stored.
type Searcher struct {
	encoder Encoder
	source  VectorSource
	model   string
}

// NewSearcher creates a Searcher. model must match the embedding_model
// the vectors were generated with.
func NewSearcher(encoder Encoder, source VectorSource, model string) *Searcher {
	return &Searcher{encoder: encoder, source: source, model: model}
}

// Search embeds the query and returns the top-limit sections by cosine
// similarity for one language.
func (s *Searcher) Search(ctx context.Context, query, language string, limit int) ([]Hit, error) {
	queryVec, err := s.encoder.Encode(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := s.source.SectionEmbeddings(ctx, language, s.model)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	hits := make([]Hit, 0, len(rows))
	for _, row := range rows {
		sim, err := cosine(queryVec, row.Vector)
		if err != nil {
			return nil, fmt.Errorf("embedding: section %s: %w", row.SectionNumber, err)
		}
		if sim < 0 {
			sim = 0
		}
		hits = append(hits, Hit{
			SectionNumber: row.SectionNumber,
			Title:         row.Title,
			Page:          row.PageStart,
			Similarity:    sim,
			Content:       row.Content,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].SectionNumber < hits[j].SectionNumber
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// cosine computes cosine similarity between two vectors. The stored
// vectors are not normalized, so both magnitudes are computed here.
func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
