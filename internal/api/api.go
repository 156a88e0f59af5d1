// Package api is the transport-agnostic surface shared by the CLI and the
// MCP server. Every method returns a well-formed response; failures are
// reported in the response's Error field.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/nickcecere/ldebate/internal/config"
	"github.com/nickcecere/ldebate/internal/debate"
	"github.com/nickcecere/ldebate/internal/docstore"
	"github.com/nickcecere/ldebate/internal/embeddings"
	"github.com/nickcecere/ldebate/internal/knowledge"
	"github.com/nickcecere/ldebate/internal/llm"
	"github.com/nickcecere/ldebate/internal/prompt"
)

// StatusSuccess is the status of a stored upload.
const StatusSuccess = "success"

// ErrEmptyTopic is reported for a blank debate topic.
var ErrEmptyTopic = errors.New("topic is required")

// DocumentInfo is one entry of the document listing.
type DocumentInfo struct {
	Filename string           `json:"filename"`
	Content  docstore.Content `json:"content"`
	Kind     docstore.Kind    `json:"kind"`
}

// UploadResult reports an upload. Either Error is set or the other fields are.
type UploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Size     int    `json:"size"`
	Error    string `json:"error,omitempty"`
}

// MarshalJSON encodes a failed upload as {error} and a stored one as
// {filename, status, size}.
func (r UploadResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{r.Error})
	}
	type stored UploadResult
	return json.Marshal(stored(r))
}

// DebateResponse is a completed debate or the reason it could not start.
type DebateResponse struct {
	*debate.Result
	Error string `json:"error,omitempty"`
}

// StageResponse is the output of a single debate stage.
type StageResponse struct {
	Role  prompt.Role `json:"role"`
	Text  string      `json:"text,omitempty"`
	Error string      `json:"error,omitempty"`
}

// SearchResponse lists ranked documents for a query.
type SearchResponse struct {
	Query   string             `json:"query"`
	Results []knowledge.Result `json:"results"`
	Error   string             `json:"error,omitempty"`
}

// ReloadResponse reports a knowledge base rebuild.
type ReloadResponse struct {
	Stats knowledge.Stats `json:"stats"`
	Error string          `json:"error,omitempty"`
}

// Service wires the knowledge base to the debate orchestrator.
type Service struct {
	kb     *knowledge.Base
	debate *debate.Orchestrator
}

// New creates a service over an existing knowledge base and orchestrator.
func New(kb *knowledge.Base, orch *debate.Orchestrator) *Service {
	return &Service{kb: kb, debate: orch}
}

// Open builds the providers named by cfg, loads the knowledge base and
// returns a ready service.
func Open(ctx context.Context, cfg *config.Config) (*Service, error) {
	embedder, err := embeddings.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	gen, err := llm.NewService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM service: %w", err)
	}

	kb, err := knowledge.Open(ctx, cfg, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}

	log.Debug("Service ready",
		"embeddings", embedder.Provider(), "embed_model", embedder.ModelName(),
		"llm", gen.Provider(), "llm_model", gen.ModelName(),
		"documents", kb.Len())

	return New(kb, debate.New(kb, gen, debate.OptionsFromConfig(cfg))), nil
}

// Knowledge returns the underlying knowledge base.
func (s *Service) Knowledge() *knowledge.Base {
	return s.kb
}

// ListDocuments returns every indexed document.
func (s *Service) ListDocuments() []DocumentInfo {
	docs := s.kb.Documents()
	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentInfo{Filename: d.Filename, Content: d.Content, Kind: d.Kind})
	}
	return out
}

// UploadDocument stores raw under filename and rebuilds the index. Content
// that fails to parse as its declared format is still stored.
func (s *Service) UploadDocument(ctx context.Context, filename string, raw []byte) UploadResult {
	if _, err := s.kb.Add(ctx, filename, raw); err != nil {
		log.Warn("Upload failed", "filename", filename, "error", err)
		return UploadResult{Error: err.Error()}
	}
	return UploadResult{Filename: filename, Status: StatusSuccess, Size: len(raw)}
}

// RunDebate runs the full three-stage debate on topic.
func (s *Service) RunDebate(ctx context.Context, topic string) DebateResponse {
	if strings.TrimSpace(topic) == "" {
		return DebateResponse{Error: ErrEmptyTopic.Error()}
	}
	res := s.debate.Run(ctx, topic)
	return DebateResponse{Result: &res}
}

// Optimist runs the optimist stage alone.
func (s *Service) Optimist(ctx context.Context, topic string) StageResponse {
	if strings.TrimSpace(topic) == "" {
		return StageResponse{Role: prompt.RoleOptimist, Error: ErrEmptyTopic.Error()}
	}
	return StageResponse{Role: prompt.RoleOptimist, Text: s.debate.Optimist(ctx, topic)}
}

// Pessimist runs the pessimist stage alone, optionally answering optimist.
func (s *Service) Pessimist(ctx context.Context, topic, optimist string) StageResponse {
	if strings.TrimSpace(topic) == "" {
		return StageResponse{Role: prompt.RolePessimist, Error: ErrEmptyTopic.Error()}
	}
	return StageResponse{Role: prompt.RolePessimist, Text: s.debate.Pessimist(ctx, topic, optimist)}
}

// Synthesis runs the synthesizer over previously generated turns.
func (s *Service) Synthesis(ctx context.Context, topic, optimist, pessimist string) StageResponse {
	if strings.TrimSpace(topic) == "" {
		return StageResponse{Role: prompt.RoleSynthesizer, Error: ErrEmptyTopic.Error()}
	}
	return StageResponse{Role: prompt.RoleSynthesizer, Text: s.debate.Synthesize(ctx, topic, optimist, pessimist)}
}

// Search ranks the knowledge base against query. k <= 0 uses the default.
func (s *Service) Search(ctx context.Context, query string, k int) SearchResponse {
	results, err := s.kb.Search(ctx, query, k)
	if err != nil {
		return SearchResponse{Query: query, Results: []knowledge.Result{}, Error: err.Error()}
	}
	return SearchResponse{Query: query, Results: results}
}

// Reload re-reads and re-embeds the knowledge directory.
func (s *Service) Reload(ctx context.Context) ReloadResponse {
	if err := s.kb.Reload(ctx); err != nil {
		return ReloadResponse{Stats: s.kb.Stats(), Error: err.Error()}
	}
	return ReloadResponse{Stats: s.kb.Stats()}
}
