// Package knowledge keeps the embedded knowledge base: every document of the
// store paired with its vector, rebuilt wholesale whenever the store changes.
package knowledge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nickcecere/ldebate/internal/config"
	"github.com/nickcecere/ldebate/internal/docstore"
	"github.com/nickcecere/ldebate/internal/embeddings"
)

// Options configures a Base.
type Options struct {
	// BatchSize is the number of documents embedded per provider request.
	BatchSize int

	// DefaultTopK is used when a search asks for topK <= 0.
	DefaultTopK int
}

// Base is the knowledge base. It is safe for concurrent use: searches read
// an immutable snapshot while writes and reloads are serialised.
type Base struct {
	store    *docstore.Store
	embedder embeddings.Service
	opts     Options

	// mutate serialises write+rebuild; mu guards the snapshot pointer only
	mutate sync.Mutex
	mu     sync.RWMutex
	snap   *snapshot
}

// Stats describes the current snapshot.
type Stats struct {
	Documents  int       `json:"documents"`
	Dimensions int       `json:"dimensions"`
	BuiltAt    time.Time `json:"built_at"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
}

// New creates an empty knowledge base. Call Reload to populate it.
func New(store *docstore.Store, embedder embeddings.Service, opts Options) *Base {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = config.DefaultTopK
	}
	return &Base{
		store:    store,
		embedder: embedder,
		opts:     opts,
		snap:     &snapshot{},
	}
}

// Open creates a knowledge base from configuration and loads it.
func Open(ctx context.Context, cfg *config.Config, embedder embeddings.Service) (*Base, error) {
	store, err := docstore.New(cfg.Knowledge.Dir, docstore.Options{
		MaxFileSize:    int64(cfg.Knowledge.MaxFileSize),
		IgnorePatterns: cfg.Knowledge.Ignore,
	})
	if err != nil {
		return nil, err
	}

	kb := New(store, embedder, Options{
		BatchSize:   cfg.Embeddings.BatchSize,
		DefaultTopK: cfg.Debate.TopK,
	})
	if err := kb.Reload(ctx); err != nil {
		return nil, err
	}
	return kb, nil
}

// Store returns the underlying document store.
func (b *Base) Store() *docstore.Store {
	return b.store
}

// Reload reads every document from the store and re-embeds the whole corpus.
// On failure the previous snapshot stays in place.
func (b *Base) Reload(ctx context.Context) error {
	b.mutate.Lock()
	defer b.mutate.Unlock()

	return b.rebuild(ctx)
}

// Add writes raw bytes under filename and rebuilds the index. The returned
// document is the freshly loaded one.
func (b *Base) Add(ctx context.Context, filename string, raw []byte) (docstore.Document, error) {
	b.mutate.Lock()
	defer b.mutate.Unlock()

	if err := b.store.Write(filename, raw); err != nil {
		return docstore.Document{}, err
	}

	if err := b.rebuild(ctx); err != nil {
		return docstore.Document{}, fmt.Errorf("stored %s but reload failed: %w", filename, err)
	}

	doc, ok := b.current().find(filename)
	if !ok {
		return docstore.Document{}, fmt.Errorf("%w: %s", docstore.ErrNotLoadable, filename)
	}
	return doc, nil
}

func (b *Base) rebuild(ctx context.Context) error {
	start := time.Now()

	docs, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	next, err := buildSnapshot(ctx, b.embedder, docs, b.opts.BatchSize)
	if err != nil {
		log.Warn("Keeping previous knowledge base", "error", err)
		return err
	}

	b.mu.Lock()
	b.snap = next
	b.mu.Unlock()

	log.Info("Reloaded knowledge base", "documents", len(docs), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (b *Base) current() *snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap
}

// Documents returns the documents of the current snapshot in store order.
func (b *Base) Documents() []docstore.Document {
	docs := b.current().docs
	out := make([]docstore.Document, len(docs))
	copy(out, docs)
	return out
}

// Len returns the number of indexed documents.
func (b *Base) Len() int {
	return len(b.current().docs)
}

// Hash returns the content hash of an indexed document.
func (b *Base) Hash(filename string) (string, bool) {
	doc, ok := b.current().find(filename)
	if !ok {
		return "", false
	}
	return doc.Hash, true
}

// Stats describes the current snapshot.
func (b *Base) Stats() Stats {
	snap := b.current()
	return Stats{
		Documents:  len(snap.docs),
		Dimensions: snap.dims,
		BuiltAt:    snap.builtAt,
		Provider:   string(b.embedder.Provider()),
		Model:      b.embedder.ModelName(),
	}
}
