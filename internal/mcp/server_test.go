package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/conceptgraph/internal/analytics"
	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/ingest"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
)

// newMCPServer returns a Server backed by a MockStore.
func newMCPServer(t *testing.T) (*Server, *store.MockStore) {
	t.Helper()
	ms := store.NewMockStore()
	an := analytics.NewService(ms, analytics.Options{}, nil)
	coord := ingest.NewCoordinator(ms, nil, ingest.RetryPolicy{}, nil)
	ing := ingest.NewService(extract.NewPipeline(nil, extract.DefaultStopWords()), coord,
		ingest.Options{OnWrite: func(string) { an.Invalidate() }}, nil)
	return NewServer(ms, ing, an, nil), ms
}

// makeReq builds a CallToolRequest with the given arguments.
func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func ingestDoc(t *testing.T, srv *Server, id, text string) ingest.Result {
	t.Helper()
	res, err := srv.HandleIngest(context.Background(), makeReq("ingest_text", map[string]any{"id": id, "text": text}))
	require.NoError(t, err)
	require.False(t, res.IsError, textContent(t, res))
	var out ingest.Result
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &out))
	return out
}

func TestMCP_IngestAndAnalytics(t *testing.T) {
	srv, _ := newMCPServer(t)
	ctx := context.Background()

	out := ingestDoc(t, srv, "d1", "Bruce Lee taught Jeet Kune Do. Jeet Kune Do is a martial art.")
	assert.Equal(t, "d1", out.DocumentID)
	assert.Equal(t, 2, out.Sentences)
	ingestDoc(t, srv, "d2", "Jeet Kune students train in Seattle.")

	res, err := srv.HandleImportantTokens(ctx, makeReq("important_tokens", map[string]any{"k": 3}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	var important struct {
		Tokens []models.TokenStrength `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &important))
	assert.Len(t, important.Tokens, 3)

	res, err = srv.HandleNGrams(ctx, makeReq("ngrams", map[string]any{"document_id": "d1"}))
	require.NoError(t, err)
	var grams struct {
		NGrams []models.NGram `json:"ngrams"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &grams))
	assert.Contains(t, grams.NGrams, models.NGram{DocumentID: "d1", Phrase: "Jeet Kune", Frequency: 2})

	res, err = srv.HandleCompare(ctx, makeReq("compare_documents", map[string]any{"first": "d1", "second": "d2"}))
	require.NoError(t, err)
	var overlap struct {
		Phrases []models.PhraseOverlap `json:"phrases"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &overlap))
	require.NotEmpty(t, overlap.Phrases)
	assert.Equal(t, "Jeet Kune", overlap.Phrases[0].Phrase)
	assert.Equal(t, 3, overlap.Phrases[0].TotalFrequency)
}

func TestMCP_Recommend(t *testing.T) {
	srv, ms := newMCPServer(t)
	ctx := context.Background()
	ingestDoc(t, srv, "d1", "Bruce Lee taught Jeet Kune Do.")

	detail, err := ms.GetDocument(ctx, "d1")
	require.NoError(t, err)
	sid := detail.Sentences[0].ID
	require.NoError(t, ms.CreateEntity(ctx, models.Entity{ID: "e-bruce", Text: "Bruce Lee"}))
	require.NoError(t, ms.LinkEntity(ctx, models.EntityLink{EntityID: "e-bruce", SentenceID: sid, TokenIDs: []string{"Bruce"}}))

	res, err := srv.HandleRecommend(ctx, makeReq("recommend_entities", map[string]any{
		"token_ids":   []any{"Bruce", "."},
		"sentence_id": sid,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, textContent(t, res))
	var recs struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &recs))
	require.Len(t, recs.Recommendations, 1)
	assert.Equal(t, 2, recs.Recommendations[0].Frequency)

	res, err = srv.HandleRecommend(ctx, makeReq("recommend_entities", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestMCP_Errors(t *testing.T) {
	srv, _ := newMCPServer(t)
	ctx := context.Background()

	res, err := srv.HandleIngest(ctx, makeReq("ingest_text", map[string]any{"text": "  "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	ingestDoc(t, srv, "d1", "One sentence here.")
	res, err = srv.HandleIngest(ctx, makeReq("ingest_text", map[string]any{"id": "d1", "text": "Again."}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textContent(t, res), "conflict")

	res, err = srv.HandleCompare(ctx, makeReq("compare_documents", map[string]any{"first": "d1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = srv.HandleImportantTokens(ctx, makeReq("important_tokens", map[string]any{"k": -1}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	empty := NewServer(nil, nil, nil, nil)
	res, err = empty.HandleStats(ctx, makeReq("stats", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	res, err = empty.HandleNGrams(ctx, makeReq("ngrams", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestMCP_Stats(t *testing.T) {
	srv, _ := newMCPServer(t)
	ingestDoc(t, srv, "d1", "Bruce Lee taught Jeet Kune Do.")

	res, err := srv.HandleStats(context.Background(), makeReq("stats", nil))
	require.NoError(t, err)
	var stats models.GraphStats
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &stats))
	assert.Equal(t, int64(1), stats.Nodes[string(models.LabelDocument)])
	assert.Equal(t, int64(1), stats.Nodes[string(models.LabelSentence)])
	assert.NotNil(t, srv.MCPServer())
}
