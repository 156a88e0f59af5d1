package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickcecere/ldebate/internal/api"
	"github.com/nickcecere/ldebate/internal/debate"
	"github.com/nickcecere/ldebate/internal/docstore"
	"github.com/nickcecere/ldebate/internal/knowledge"
	"github.com/nickcecere/ldebate/internal/testutil"
)

func newTestServer(t *testing.T, files map[string]string) (*Server, *testutil.KeywordEmbedder, string) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	store, err := docstore.New(dir, docstore.Options{})
	require.NoError(t, err)

	emb := testutil.NewKeywordEmbedder("pricing", "churn", "hiring")
	kb := knowledge.New(store, emb, knowledge.Options{})
	require.NoError(t, kb.Reload(context.Background()))

	gen := new(testutil.ScriptedLLM).
		On("You are the Optimist", testutil.Reply{Text: "Raise prices."}).
		On("You are the Pessimist", testutil.Reply{Err: errors.New("model offline")}).
		On("You are the Synthesizer", testutil.Reply{Text: "[Summary]\nMixed\n[Confidence]\n60%"})

	server, err := NewServer(api.New(kb, debate.New(kb, gen, debate.Options{})))
	require.NoError(t, err)
	return server, emb, dir
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestNewServer(t *testing.T) {
	server, err := NewServer(nil)
	assert.ErrorIs(t, err, ErrMissingService)
	assert.Nil(t, server)
}

func TestHandleDebate(t *testing.T) {
	server, _, _ := newTestServer(t, map[string]string{"q3.txt": "pricing churn"})
	ctx := context.Background()

	_, out, err := server.handleDebate(ctx, nil, TopicInput{Topic: "pricing change"})
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "Raise prices.", out.Optimist)
	assert.Equal(t, "Pessimist response failed. Please try again.", out.Pessimist)
	assert.Equal(t, []string{"pessimist"}, out.Failed)
	assert.Equal(t, "Mixed", out.Sections.Summary)
	assert.Equal(t, "60%", out.Sections.Confidence)
	assert.Contains(t, out.Context, "From q3.txt")

	_, _, err = server.handleDebate(ctx, nil, TopicInput{})
	assert.Error(t, err)
}

func TestHandleStages(t *testing.T) {
	server, _, _ := newTestServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleOptimist(ctx, nil, TopicInput{Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, StageOutput{Role: "optimist", Text: "Raise prices."}, out)

	_, out, err = server.handlePessimist(ctx, nil, PessimistInput{Topic: "t", Optimist: "Raise prices."})
	require.NoError(t, err)
	assert.Equal(t, "Pessimist response failed. Please try again.", out.Text)

	_, out, err = server.handleSynthesis(ctx, nil, SynthesisInput{Topic: "t", Optimist: "a", Pessimist: "b"})
	require.NoError(t, err)
	assert.Equal(t, "synthesizer", out.Role)
	assert.Contains(t, out.Text, "[Summary]")
}

func TestHandleSearch(t *testing.T) {
	server, emb, _ := newTestServer(t, map[string]string{
		"a.txt": "hiring plan",
		"b.txt": "pricing pricing churn",
	})
	ctx := context.Background()

	_, out, err := server.handleSearch(ctx, nil, SearchInput{Query: "pricing", Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "b.txt", out.Results[0].Filename)
	assert.Equal(t, "text", out.Results[0].Kind)
	assert.Equal(t, "pricing pricing churn", out.Results[0].Content)

	_, _, err = server.handleSearch(ctx, nil, SearchInput{})
	assert.Error(t, err)

	emb.SetErr(errors.New("embedder down"))
	_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "pricing"})
	assert.ErrorContains(t, err, "embedder down")
}

func TestHandleUpload(t *testing.T) {
	server, _, dir := newTestServer(t, nil)
	ctx := context.Background()

	_, out, err := server.handleUpload(ctx, nil, UploadInput{Filename: "notes.txt", Content: "hiring freeze"})
	require.NoError(t, err)
	assert.Equal(t, UploadOutput{Filename: "notes.txt", Status: "success", Size: 13}, out)

	raw := []byte{0x00, 0x01, 0xff}
	_, out, err = server.handleUpload(ctx, nil, UploadInput{
		Filename: "blob.bin",
		Content:  base64.StdEncoding.EncodeToString(raw),
		Base64:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Size)

	stored, err := os.ReadFile(filepath.Join(dir, "blob.bin"))
	require.NoError(t, err)
	assert.Equal(t, raw, stored)

	_, _, err = server.handleUpload(ctx, nil, UploadInput{Filename: "x.txt", Content: "!!", Base64: true})
	assert.ErrorContains(t, err, "invalid base64")

	_, _, err = server.handleUpload(ctx, nil, UploadInput{Filename: ".hidden", Content: "x"})
	assert.Error(t, err)
}

func TestHandleReload(t *testing.T) {
	server, _, dir := newTestServer(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.txt"), []byte("churn"), 0644))

	_, out, err := server.handleReload(context.Background(), nil, ReloadInput{})
	require.NoError(t, err)
	assert.Equal(t, ReloadOutput{Documents: 1, Dimensions: 3, Model: "keyword"}, out)
}

func TestDocumentsResource(t *testing.T) {
	server, _, _ := newTestServer(t, map[string]string{
		"a.txt":     "hiring",
		"plan.json": `{"budget": 10}`,
	})
	ctx := context.Background()

	result, err := server.handleDocumentsResource(ctx, readRequest("ldebate://documents"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var docs []map[string]string
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0]["filename"])
	assert.Equal(t, "json", docs[1]["kind"])
	assert.Equal(t, "ldebate://documents/plan.json", docs[1]["uri"])
}

func TestDocumentContentResource(t *testing.T) {
	server, _, _ := newTestServer(t, map[string]string{"plan.json": `{"budget": 10, "owner": "ops"}`})
	ctx := context.Background()

	result, err := server.handleDocumentContentResource(ctx, readRequest("ldebate://documents/plan.json"))
	require.NoError(t, err)
	assert.Equal(t, "budget: 10\nowner: ops", result.Contents[0].Text)

	_, err = server.handleDocumentContentResource(ctx, readRequest("ldebate://documents/missing.txt"))
	assert.Error(t, err)
}

func TestExtractFilename(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid", uri: "ldebate://documents/a.txt", expected: "a.txt"},
		{name: "wrong scheme", uri: "file://documents/a.txt", expected: ""},
		{name: "nested", uri: "ldebate://documents/x/a.txt", expected: ""},
		{name: "empty", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractFilename(tt.uri))
		})
	}
}
