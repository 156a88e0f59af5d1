package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nickcecere/ldebate/internal/docstore"
	"github.com/nickcecere/ldebate/internal/embeddings"
)

// ErrDimensionMismatch is returned when vectors of one snapshot, or a query
// and the snapshot, disagree on length.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// snapshot is an immutable (document, vector) index. vectors[i] belongs to
// docs[i].
type snapshot struct {
	docs    []docstore.Document
	vectors [][]float32
	dims    int
	builtAt time.Time
}

func (s *snapshot) find(filename string) (docstore.Document, bool) {
	for _, doc := range s.docs {
		if doc.Filename == filename {
			return doc, true
		}
	}
	return docstore.Document{}, false
}

// buildSnapshot embeds docs in order. An empty corpus never calls the
// embedder.
func buildSnapshot(ctx context.Context, embedder embeddings.Service, docs []docstore.Document, batchSize int) (*snapshot, error) {
	snap := &snapshot{builtAt: time.Now()}
	if len(docs) == 0 {
		return snap, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content.String()
	}

	log.Debug("Embedding documents", "count", len(texts), "batch_size", batchSize)

	vectors, err := embeddings.EmbedInBatches(ctx, embedder, texts, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("got %d vectors for %d documents", len(vectors), len(docs))
	}

	dims := len(vectors[0])
	for i, vec := range vectors {
		if len(vec) != dims || dims == 0 {
			return nil, fmt.Errorf("%w: %s has %d dimensions, want %d", ErrDimensionMismatch, docs[i].Filename, len(vec), dims)
		}
	}

	snap.docs = docs
	snap.vectors = vectors
	snap.dims = dims
	return snap, nil
}
