package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/nickcecere/ldebate/internal/docstore"
)

// Result is one ranked document.
type Result struct {
	Filename string           `json:"filename"`
	Content  docstore.Content `json:"content"`
	Kind     docstore.Kind    `json:"kind"`
	Score    float64          `json:"score"`
}

// Search returns the topK documents most similar to query, best first. Ties
// keep store order. topK <= 0 uses the configured default. An empty
// knowledge base yields no results and no embedding call.
func (b *Base) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	snap := b.current()
	if len(snap.docs) == 0 {
		log.Debug("Search on empty knowledge base", "query", truncate(query, 50))
		return []Result{}, nil
	}

	if topK <= 0 {
		topK = b.opts.DefaultTopK
	}

	log.Debug("Generating query embedding", "query", truncate(query, 50))
	qvec, err := b.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(qvec) != snap.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(qvec), snap.dims)
	}

	return rank(snap, qvec, topK), nil
}

func rank(snap *snapshot, qvec []float32, topK int) []Result {
	results := make([]Result, len(snap.docs))
	for i, doc := range snap.docs {
		results[i] = Result{
			Filename: doc.Filename,
			Content:  doc.Content,
			Kind:     doc.Kind,
			Score:    cosine(qvec, snap.vectors[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results[:min(topK, len(results))]
}

// cosine returns the cosine similarity of two equal-length vectors, or 0
// when either has zero norm.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// Rounding can push parallel vectors just past 1
	return math.Max(-1, math.Min(1, sim))
}

// truncate shortens a string to maxLen characters.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
