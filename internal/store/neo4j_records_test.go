package store

import (
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

func TestTokenParams_SortedByID(t *testing.T) {
	got := tokenParams(map[string]int64{"b": 2, "a": 1, "C": 3})
	require.Len(t, got, 3)
	assert.Equal(t, "C", got[0]["id"])
	assert.Equal(t, "a", got[1]["id"])
	assert.Equal(t, int64(2), got[2]["count"])
}

func TestPairParams_CanonicalAndMerged(t *testing.T) {
	got := pairParams([]models.RelatedPair{
		{A: "y", B: "x", Strength: 1},
		{A: "x", B: "y", Strength: 2},
		{A: "z", B: "z", Strength: 5},
	})
	require.Len(t, got, 1)
	assert.Equal(t, map[string]any{"a": "x", "b": "y", "strength": int64(3)}, got[0])
}

func TestRecordAccessors(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := &neo4j.Record{
		Keys:   []string{"id", "count", "creation_time", "ids", "tokens"},
		Values: []any{"Bruce", int64(4), now, []any{"s2", "s1"}, []any{
			map[string]any{"id": "Lee", "order": int64(1), "related": true},
			map[string]any{"id": "Bruce", "order": int64(0), "related": false},
		}},
	}

	assert.Equal(t, "Bruce", recordString(rec, "id"))
	assert.Equal(t, int64(4), recordInt64(rec, "count"))
	assert.Equal(t, now, recordTime(rec, "creation_time"))
	assert.Equal(t, []string{"s2", "s1"}, recordStrings(rec, "ids"))
	assert.Equal(t, "", recordString(rec, "missing"))
	assert.Equal(t, []models.ChainToken{
		{ID: "Bruce", Order: 0},
		{ID: "Lee", Order: 1, Related: true},
	}, chainTokens(recordValue(rec, "tokens")))
}

func TestDocumentFromProps(t *testing.T) {
	doc := documentFromProps(map[string]any{
		"id": "d", "text": "t", "status": "manual", "source_id": "src",
	})
	assert.Equal(t, models.Document{ID: "d", Text: "t", Status: models.StatusManual, SourceID: "src"}, doc)
	assert.Nil(t, nullable(""))
	assert.Equal(t, "x", nullable("x"))
}

func TestRelationshipQuery(t *testing.T) {
	cypher, params, err := relationshipQuery(models.Relationship{
		SourceID: "e1", SourceType: models.LabelEntity,
		TargetID: "d1", TargetType: models.LabelDocument,
		RelationshipType: "MENTIONED_IN",
	})
	require.NoError(t, err)
	assert.Contains(t, cypher, "(s:`Entity` {id: $source_id})")
	assert.Contains(t, cypher, "MERGE (s)-[:`MENTIONED_IN`]->(t)")
	assert.Equal(t, "d1", params["target_id"])

	cypher, params, err = relationshipQuery(models.Relationship{
		SourceID: "e1", SourceType: models.LabelEntity,
		RelationshipType: "born", TargetText: "1940",
	})
	require.NoError(t, err)
	assert.Contains(t, cypher, "SET s += $props")
	assert.Equal(t, map[string]any{"born": "1940"}, params["props"])

	bad := []models.Relationship{
		{SourceType: "Person", RelationshipType: "X"},
		{SourceType: models.LabelEntity, RelationshipType: "X]->() DETACH DELETE n //"},
		{SourceType: models.LabelEntity, RelationshipType: "CHAIN", TargetID: "t", TargetType: models.LabelToken},
		{SourceType: models.LabelEntity, RelationshipType: "X", TargetID: "t", TargetType: "Person"},
	}
	for _, rel := range bad {
		_, _, err := relationshipQuery(rel)
		assert.ErrorIs(t, err, models.ErrValidation, "%+v", rel)
	}
}

func TestEntityMatchQuery(t *testing.T) {
	q := entityMatchQuery(true)
	assert.Equal(t, 2, strings.Count(q, "UNION ALL"))
	assert.Contains(t, q, "{id: $sentence_id}")
	assert.Contains(t, q, "'document' AS origin")

	q = entityMatchQuery(false)
	assert.NotContains(t, q, "$sentence_id")
	assert.Contains(t, q, "-[:CHAIN]->(t)")
}
