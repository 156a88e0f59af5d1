// Package testutil holds deterministic stand-ins for the embedding and
// generation providers, shared by package tests.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nickcecere/ldebate/internal/embeddings"
	"github.com/nickcecere/ldebate/internal/llm"
)

// KeywordEmbedder embeds text as term counts over a fixed vocabulary, so
// texts sharing words score high cosine similarity.
type KeywordEmbedder struct {
	Vocabulary []string

	// Err, when set, is returned by every call.
	Err error

	mu         sync.Mutex
	batchCalls int
	queryCalls int
}

var _ embeddings.Service = (*KeywordEmbedder)(nil)

// NewKeywordEmbedder creates an embedder over vocabulary.
func NewKeywordEmbedder(vocabulary ...string) *KeywordEmbedder {
	return &KeywordEmbedder{Vocabulary: vocabulary}
}

func (k *KeywordEmbedder) vector(text string) []float32 {
	lower := strings.ToLower(text)
	vec := make([]float32, len(k.Vocabulary))
	for i, word := range k.Vocabulary {
		vec[i] = float32(strings.Count(lower, word))
	}
	return vec
}

// Embed implements embeddings.Service.
func (k *KeywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := k.err(); err != nil {
		return nil, err
	}
	return k.vector(text), nil
}

// EmbedQuery implements embeddings.Service.
func (k *KeywordEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	k.mu.Lock()
	k.queryCalls++
	err := k.Err
	k.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return k.vector(text), nil
}

// EmbedBatch implements embeddings.Service.
func (k *KeywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	k.mu.Lock()
	k.batchCalls++
	err := k.Err
	k.mu.Unlock()

	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = k.vector(text)
	}
	return out, nil
}

// Dimensions implements embeddings.Service.
func (k *KeywordEmbedder) Dimensions() int { return len(k.Vocabulary) }

// Provider implements embeddings.Service.
func (k *KeywordEmbedder) Provider() embeddings.Provider { return "keyword" }

// ModelName implements embeddings.Service.
func (k *KeywordEmbedder) ModelName() string { return "keyword" }

// Calls returns how many batch and query requests were made.
func (k *KeywordEmbedder) Calls() (batch, query int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.batchCalls, k.queryCalls
}

func (k *KeywordEmbedder) err() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.Err
}

// SetErr changes the error returned by subsequent calls.
func (k *KeywordEmbedder) SetErr(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.Err = err
}

// ErrScripted is returned by ScriptedLLM for prompts without a reply.
var ErrScripted = errors.New("no scripted reply")

// Reply is one scripted generation outcome.
type Reply struct {
	Text string
	Err  error

	// Block makes the call wait until the context is done.
	Block bool
}

// ScriptedLLM answers prompts by matching a marker substring, in the order
// the rules were added. Every prompt is recorded.
type ScriptedLLM struct {
	mu      sync.Mutex
	rules   []rule
	prompts []string
	opts    []llm.GenerateOptions
}

type rule struct {
	marker string
	reply  Reply
}

var _ llm.Service = (*ScriptedLLM)(nil)

// On answers prompts containing marker with reply.
func (s *ScriptedLLM) On(marker string, reply Reply) *ScriptedLLM {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{marker: marker, reply: reply})
	return s
}

// Generate implements llm.Service.
func (s *ScriptedLLM) Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.opts = append(s.opts, opts)
	var (
		reply Reply
		found bool
	)
	for _, r := range s.rules {
		if strings.Contains(prompt, r.marker) {
			reply, found = r.reply, true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return "", ErrScripted
	}
	if reply.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply.Text, reply.Err
}

// Provider implements llm.Service.
func (s *ScriptedLLM) Provider() llm.Provider { return "scripted" }

// ModelName implements llm.Service.
func (s *ScriptedLLM) ModelName() string { return "scripted" }

// Prompts returns every prompt received so far.
func (s *ScriptedLLM) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Options returns the sampling options of every call so far.
func (s *ScriptedLLM) Options() []llm.GenerateOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.GenerateOptions(nil), s.opts...)
}
