package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nickcecere/ldebate/internal/knowledge"
	"github.com/nickcecere/ldebate/internal/synthesis"
)

// TopicInput is the input of the debate and single-stage tools.
type TopicInput struct {
	Topic string `json:"topic" jsonschema:"the strategic question to debate"`
}

// PessimistInput is the input of the pessimist tool.
type PessimistInput struct {
	Topic    string `json:"topic" jsonschema:"the strategic question to debate"`
	Optimist string `json:"optimist,omitempty" jsonschema:"optional optimist argument to respond to"`
}

// SynthesisInput is the input of the synthesis tool.
type SynthesisInput struct {
	Topic     string `json:"topic" jsonschema:"the strategic question being debated"`
	Optimist  string `json:"optimist" jsonschema:"the optimist argument"`
	Pessimist string `json:"pessimist" jsonschema:"the pessimist argument"`
}

// DebateOutput is a completed debate.
type DebateOutput struct {
	ID        string             `json:"id"`
	Topic     string             `json:"topic"`
	Context   string             `json:"context"`
	Optimist  string             `json:"optimist"`
	Pessimist string             `json:"pessimist"`
	Synthesis string             `json:"synthesis"`
	Sections  synthesis.Sections `json:"sections"`
	Failed    []string           `json:"failed,omitempty"`
	Duration  string             `json:"duration"`
}

// StageOutput is the text of a single stage.
type StageOutput struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// SearchInput is the input of the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"text to match against the knowledge base"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of documents to return (default from config)"`
}

// SearchOutput lists ranked documents.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is one ranked document.
type SearchResultOutput struct {
	Filename string  `json:"filename"`
	Kind     string  `json:"kind"`
	Score    float64 `json:"score"`
	Content  string  `json:"content"`
}

// UploadInput is the input of the upload tool.
type UploadInput struct {
	Filename string `json:"filename" jsonschema:"name of the file to create in the knowledge directory"`
	Content  string `json:"content" jsonschema:"file content"`
	Base64   bool   `json:"base64,omitempty" jsonschema:"whether content is base64 encoded"`
}

// UploadOutput reports a stored document.
type UploadOutput struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Size     int    `json:"size"`
}

// ReloadInput is the (empty) input of the reload tool.
type ReloadInput struct{}

// ReloadOutput describes the rebuilt knowledge base.
type ReloadOutput struct {
	Documents  int    `json:"documents"`
	Dimensions int    `json:"dimensions"`
	Model      string `json:"model"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ldebate_debate",
		Description: "Run a full optimist, pessimist and synthesizer debate on a topic, grounded in the knowledge base.",
	}, s.handleDebate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ldebate_optimist",
		Description: "Generate only the optimist argument for a topic.",
	}, s.handleOptimist)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ldebate_pessimist",
		Description: "Generate only the pessimist argument for a topic, optionally answering an optimist argument.",
	}, s.handlePessimist)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ldebate_synthesis",
		Description: "Synthesize previously generated optimist and pessimist arguments into a recommendation.",
	}, s.handleSynthesis)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ldebate_search",
		Description: "Find the knowledge base documents most similar to a query.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ldebate_upload",
		Description: "Add a document to the knowledge base and re-index it.",
	}, s.handleUpload)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ldebate_reload",
		Description: "Re-read and re-embed the knowledge directory.",
	}, s.handleReload)
}

func (s *Server) handleDebate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TopicInput,
) (*mcp.CallToolResult, DebateOutput, error) {
	log.Debug("Calling tool", "name", "ldebate_debate", "topic", input.Topic)

	resp := s.svc.RunDebate(ctx, input.Topic)
	if resp.Error != "" {
		return nil, DebateOutput{}, errors.New(resp.Error)
	}

	res := resp.Result
	out := DebateOutput{
		ID:        res.ID,
		Topic:     res.Topic,
		Context:   res.Context,
		Optimist:  res.Optimist,
		Pessimist: res.Pessimist,
		Synthesis: res.Synthesis,
		Sections:  res.Sections,
		Duration:  res.Duration.Round(time.Millisecond).String(),
	}
	for _, role := range res.Failed {
		out.Failed = append(out.Failed, string(role))
	}
	return nil, out, nil
}

func (s *Server) handleOptimist(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TopicInput,
) (*mcp.CallToolResult, StageOutput, error) {
	resp := s.svc.Optimist(ctx, input.Topic)
	if resp.Error != "" {
		return nil, StageOutput{}, errors.New(resp.Error)
	}
	return nil, StageOutput{Role: string(resp.Role), Text: resp.Text}, nil
}

func (s *Server) handlePessimist(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PessimistInput,
) (*mcp.CallToolResult, StageOutput, error) {
	resp := s.svc.Pessimist(ctx, input.Topic, input.Optimist)
	if resp.Error != "" {
		return nil, StageOutput{}, errors.New(resp.Error)
	}
	return nil, StageOutput{Role: string(resp.Role), Text: resp.Text}, nil
}

func (s *Server) handleSynthesis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SynthesisInput,
) (*mcp.CallToolResult, StageOutput, error) {
	resp := s.svc.Synthesis(ctx, input.Topic, input.Optimist, input.Pessimist)
	if resp.Error != "" {
		return nil, StageOutput{}, errors.New(resp.Error)
	}
	return nil, StageOutput{Role: string(resp.Role), Text: resp.Text}, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, errors.New("query is required")
	}

	resp := s.svc.Search(ctx, input.Query, input.Limit)
	if resp.Error != "" {
		return nil, SearchOutput{}, errors.New(resp.Error)
	}

	return nil, searchOutput(resp.Results), nil
}

func searchOutput(results []knowledge.Result) SearchOutput {
	out := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i, r := range results {
		out.Results[i] = SearchResultOutput{
			Filename: r.Filename,
			Kind:     string(r.Kind),
			Score:    r.Score,
			Content:  r.Content.String(),
		}
	}
	return out
}

func (s *Server) handleUpload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadInput,
) (*mcp.CallToolResult, UploadOutput, error) {
	raw := []byte(input.Content)
	if input.Base64 {
		decoded, err := base64.StdEncoding.DecodeString(input.Content)
		if err != nil {
			return nil, UploadOutput{}, fmt.Errorf("invalid base64 content: %w", err)
		}
		raw = decoded
	}

	resp := s.svc.UploadDocument(ctx, input.Filename, raw)
	if resp.Error != "" {
		return nil, UploadOutput{}, errors.New(resp.Error)
	}
	return nil, UploadOutput{Filename: resp.Filename, Status: resp.Status, Size: resp.Size}, nil
}

func (s *Server) handleReload(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReloadInput,
) (*mcp.CallToolResult, ReloadOutput, error) {
	resp := s.svc.Reload(ctx)
	if resp.Error != "" {
		return nil, ReloadOutput{}, errors.New(resp.Error)
	}
	return nil, ReloadOutput{
		Documents:  resp.Stats.Documents,
		Dimensions: resp.Stats.Dimensions,
		Model:      resp.Stats.Model,
	}, nil
}
