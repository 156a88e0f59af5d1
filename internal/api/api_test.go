package api

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickcecere/ldebate/internal/debate"
	"github.com/nickcecere/ldebate/internal/docstore"
	"github.com/nickcecere/ldebate/internal/knowledge"
	"github.com/nickcecere/ldebate/internal/prompt"
	"github.com/nickcecere/ldebate/internal/testutil"
)

type fixture struct {
	svc *Service
	emb *testutil.KeywordEmbedder
	gen *testutil.ScriptedLLM
	dir string
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	return newFixtureWithStore(t, files, docstore.Options{})
}

func newFixtureWithStore(t *testing.T, files map[string]string, opts docstore.Options) *fixture {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	store, err := docstore.New(dir, opts)
	require.NoError(t, err)

	emb := testutil.NewKeywordEmbedder("market", "europe", "risk", "cost")
	kb := knowledge.New(store, emb, knowledge.Options{})
	require.NoError(t, kb.Reload(context.Background()))

	gen := new(testutil.ScriptedLLM).
		On("You are the Optimist", testutil.Reply{Text: "Big market."}).
		On("You are the Pessimist", testutil.Reply{Text: "High cost."}).
		On("You are the Synthesizer", testutil.Reply{Text: "[Summary]\nAll good\n[Confidence]\n85% certain"})

	return &fixture{
		svc: New(kb, debate.New(kb, gen, debate.Options{})),
		emb: emb,
		gen: gen,
		dir: dir,
	}
}

func TestListDocuments(t *testing.T) {
	f := newFixture(t, map[string]string{
		"notes.txt": "Europe market",
		"data.json": `{"region": "EU"}`,
	})

	docs := f.svc.ListDocuments()
	require.Len(t, docs, 2)

	assert.Equal(t, "data.json", docs[0].Filename)
	assert.Equal(t, docstore.KindJSON, docs[0].Kind)
	assert.Equal(t, "notes.txt", docs[1].Filename)
	assert.Equal(t, docstore.KindText, docs[1].Kind)
	assert.Equal(t, "Europe market", docs[1].Content.Text)
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res := f.svc.UploadDocument(ctx, "eu.txt", []byte("Europe market is large"))
	assert.Equal(t, UploadResult{Filename: "eu.txt", Status: StatusSuccess, Size: 22}, res)

	search := f.svc.Search(ctx, "europe market", 1)
	require.Empty(t, search.Error)
	require.Len(t, search.Results, 1)
	assert.Equal(t, "eu.txt", search.Results[0].Filename)
}

func TestUploadUnloadableFile(t *testing.T) {
	f := newFixtureWithStore(t, map[string]string{"empty.txt": ""}, docstore.Options{
		MaxFileSize:    64,
		IgnorePatterns: []string{"*.zip"},
	})
	ctx := context.Background()

	big := []byte(strings.Repeat("europe market ", 25))
	res := f.svc.UploadDocument(ctx, "big.txt", big)
	assert.Contains(t, res.Error, "file would not be loaded")
	assert.Empty(t, res.Status)

	res = f.svc.UploadDocument(ctx, "data.zip", []byte("market"))
	assert.Contains(t, res.Error, "file would not be loaded")
	assert.Empty(t, res.Status)

	assert.NoFileExists(t, filepath.Join(f.dir, "big.txt"))
	assert.NoFileExists(t, filepath.Join(f.dir, "data.zip"))

	docs := f.svc.ListDocuments()
	require.Len(t, docs, 1)
	assert.Equal(t, "empty.txt", docs[0].Filename)
}

func TestUploadResultJSON(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.UploadDocument(context.Background(), "empty.txt", nil)
	require.Empty(t, res.Error)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"filename": "empty.txt", "status": "success", "size": 0}`, string(data))
}

func TestUploadMalformedJSON(t *testing.T) {
	f := newFixture(t, nil)
	raw := []byte(`{"region": "EU",`)

	res := f.svc.UploadDocument(context.Background(), "broken.json", raw)
	assert.Empty(t, res.Error)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, len(raw), res.Size)

	stored, err := os.ReadFile(filepath.Join(f.dir, "broken.json"))
	require.NoError(t, err)
	assert.Equal(t, raw, stored)

	docs := f.svc.ListDocuments()
	require.Len(t, docs, 1)
	content, ok := docs[0].Content.Get("content")
	require.True(t, ok)
	assert.Equal(t, string(raw), content)
}

func TestUploadInvalidFilename(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.UploadDocument(context.Background(), "../escape.txt", []byte("x"))
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Status)

	assert.Contains(t, res.Error, "invalid filename")

	data, err := json.Marshal(res)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, map[string]any{"error": res.Error}, fields)
}

func TestRunDebate(t *testing.T) {
	f := newFixture(t, map[string]string{"eu.txt": "Europe market"})

	res := f.svc.RunDebate(context.Background(), "Should we enter the Europe market?")
	require.Empty(t, res.Error)
	require.NotNil(t, res.Result)

	assert.Equal(t, "Big market.", res.Optimist)
	assert.Equal(t, "High cost.", res.Pessimist)
	assert.Contains(t, res.Context, "From eu.txt")
	assert.Equal(t, "All good", res.Sections.Summary)
	assert.Equal(t, "85%", res.Sections.Confidence)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	for _, key := range []string{`"optimist"`, `"pessimist"`, `"synthesis"`, `"context"`, `"sections"`} {
		assert.Contains(t, string(data), key)
	}
	assert.NotContains(t, string(data), `"error"`)
}

func TestRunDebateEmptyTopic(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.RunDebate(context.Background(), "  ")
	assert.Equal(t, ErrEmptyTopic.Error(), res.Error)
	assert.Nil(t, res.Result)
	assert.Empty(t, f.gen.Prompts())
}

func TestStageEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.Equal(t, StageResponse{Role: prompt.RoleOptimist, Text: "Big market."}, f.svc.Optimist(ctx, "t"))
	assert.Equal(t, StageResponse{Role: prompt.RolePessimist, Text: "High cost."}, f.svc.Pessimist(ctx, "t", "Big market."))

	synth := f.svc.Synthesis(ctx, "t", "Big market.", "High cost.")
	assert.Equal(t, prompt.RoleSynthesizer, synth.Role)
	assert.Contains(t, synth.Text, "[Summary]")

	prompts := f.gen.Prompts()
	require.Len(t, prompts, 3)
	assert.Contains(t, prompts[2], "Optimist: Big market.\nPessimist: High cost.")

	assert.NotEmpty(t, f.svc.Optimist(ctx, "").Error)
	assert.NotEmpty(t, f.svc.Pessimist(ctx, "", "").Error)
	assert.NotEmpty(t, f.svc.Synthesis(ctx, "", "", "").Error)
}

func TestSearchError(t *testing.T) {
	f := newFixture(t, map[string]string{"a.txt": "market"})
	f.emb.SetErr(errors.New("embedder down"))

	res := f.svc.Search(context.Background(), "market", 3)
	assert.Contains(t, res.Error, "embedder down")
	assert.NotNil(t, res.Results)
}

func TestReload(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "late.txt"), []byte("risk"), 0644))

	res := f.svc.Reload(context.Background())
	assert.Empty(t, res.Error)
	assert.Equal(t, 1, res.Stats.Documents)
	assert.Equal(t, 4, res.Stats.Dimensions)

	f.emb.SetErr(errors.New("embedder down"))
	res = f.svc.Reload(context.Background())
	assert.NotEmpty(t, res.Error)
	assert.Equal(t, 1, res.Stats.Documents)
}
