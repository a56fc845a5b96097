//go:build integration

package store

// Integration tests for Neo4jStore; they require a running Neo4j instance.
//
// Run with:
//
//	go test -tags=integration -run TestNeo4jStore ./internal/store/...
//
// Override the connection via NEO4J_URI, NEO4J_USER and NEO4J_PASSWORD.

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newIntegrationStore(t *testing.T) *Neo4jStore {
	t.Helper()
	st, err := NewNeo4jStore(Neo4jOptions{
		URI:      envOr("NEO4J_URI", "neo4j://localhost:7687"),
		User:     envOr("NEO4J_USER", "neo4j"),
		Password: envOr("NEO4J_PASSWORD", "password"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, st.EnsureSchema(ctx))
	require.NoError(t, st.Purge(ctx))
	return st
}

func TestNeo4jStore_FiveSteps(t *testing.T) {
	st := newIntegrationStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.CreateDocument(ctx, models.Document{ID: "d1", Text: "Bruce Lee was an actor.", Status: models.StatusInitial, CreatedAt: now}))
	assert.ErrorIs(t, st.CreateDocument(ctx, models.Document{ID: "d1", CreatedAt: now}), ErrConflict)

	require.NoError(t, st.UpsertTokens(ctx, map[string]int64{"Bruce": 2, "Lee": 1, "actor": 1}))
	require.NoError(t, st.UpsertTokens(ctx, map[string]int64{"Bruce": 1}))
	require.NoError(t, st.CreateSentences(ctx, "d1", []models.Sentence{{ID: "s1", Text: "Bruce Lee was an actor.", CreatedAt: now}}))
	assert.ErrorIs(t, st.CreateSentences(ctx, "ghost", []models.Sentence{{ID: "s2"}}), ErrNotFound)
	require.NoError(t, st.LinkChain(ctx, []models.ChainLink{
		{SentenceID: "s1", TokenID: "Bruce", Order: 0},
		{SentenceID: "s1", TokenID: "Lee", Order: 1},
		{SentenceID: "s1", TokenID: "actor", Order: 2},
		{SentenceID: "s1", TokenID: "ghost", Order: 3},
	}))
	require.NoError(t, st.UpsertRelationships(ctx, []models.RelatedPair{{A: "Lee", B: "Bruce", Strength: 1}}))
	require.NoError(t, st.UpsertRelationships(ctx, []models.RelatedPair{{A: "Bruce", B: "Lee", Strength: 1}}))

	tok, err := st.GetToken(ctx, "Bruce", 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), tok.Count)
	require.Len(t, tok.Neighbors, 1)
	assert.Equal(t, int64(2), tok.Neighbors[0].Strength)

	chains, err := st.SentenceChains(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Len(t, chains[0].Tokens, 3)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Edges["RELATED"])
}

func TestNeo4jStore_EntityMatches(t *testing.T) {
	st := newIntegrationStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.CreateDocument(ctx, models.Document{ID: "d1", Text: "x", CreatedAt: now}))
	require.NoError(t, st.UpsertTokens(ctx, map[string]int64{"Bruce": 1}))
	require.NoError(t, st.CreateSentences(ctx, "d1", []models.Sentence{{ID: "s1", Text: "Bruce", CreatedAt: now}}))
	require.NoError(t, st.LinkChain(ctx, []models.ChainLink{{SentenceID: "s1", TokenID: "Bruce"}}))
	require.NoError(t, st.CreateEntity(ctx, models.Entity{ID: "e1", Text: "Bruce Lee", CreatedAt: now}))
	require.NoError(t, st.LinkEntity(ctx, models.EntityLink{EntityID: "e1", SentenceID: "s1", TokenIDs: []string{"Bruce"}}))

	matches, err := st.EntityMatches(ctx, []string{"Bruce"}, "s1")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}
