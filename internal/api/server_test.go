package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/conceptgraph/internal/analytics"
	"github.com/ajitpratap0/conceptgraph/internal/curation"
	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/ingest"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
	"github.com/ajitpratap0/conceptgraph/pkg/tokenizer"
)

const jkdText = "Jeet Kune Do is a martial art. Bruce Lee taught Jeet Kune Do."

// brokenRelated fails the last flush step so ingestion stops part way.
type brokenRelated struct {
	*store.MockStore
}

func (b brokenRelated) UpsertRelationships(context.Context, []models.RelatedPair) error {
	return errors.New("graph unavailable")
}

// newTestServer wires the full service stack over st.
func newTestServer(t *testing.T, st store.Store, authToken string, failedDir string) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, st, nil, authToken, failedDir)
}

func newTestServerWith(t *testing.T, st store.Store, seg tokenizer.Segmenter, authToken string, failedDir string) *httptest.Server {
	t.Helper()
	pipeline := extract.NewPipeline(seg, extract.DefaultStopWords())
	an := analytics.NewService(st, analytics.Options{}, nil)
	coord := ingest.NewCoordinator(st, ingest.FullBatch{}, ingest.RetryPolicy{}, nil)
	ing := ingest.NewService(pipeline, coord, ingest.Options{
		FailedBatchDir: failedDir,
		OnWrite:        func(string) { an.Invalidate() },
	}, nil)
	cur := curation.NewService(st, pipeline, nil, curation.Options{
		RelationshipTypes: []string{"TAUGHT", "MENTIONS"},
		OnWrite:           an.Invalidate,
	}, nil)
	srv := NewServer(Services{Store: st, Ingest: ing, Analytics: an, Curation: cur}, nil, authToken)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, method, url string, body any, token string) *http.Response {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewBuffer(b)
	}
	var req *http.Request
	var err error
	if buf != nil {
		req, err = http.NewRequestWithContext(context.Background(), method, url, buf)
	} else {
		req, err = http.NewRequestWithContext(context.Background(), method, url, http.NoBody)
	}
	require.NoError(t, err)
	if buf != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAPI_Healthz(t *testing.T) {
	ts := newTestServer(t, store.NewMockStore(), "secret", "")

	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", nil, "")
	var result map[string]string
	decodeInto(t, resp, &result)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", result["status"])
}

func TestAPI_Auth(t *testing.T) {
	ts := newTestServer(t, store.NewMockStore(), "secret", "")

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/stats", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/stats", nil, "wrong")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/stats", nil, "secret")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/debug/vars", nil, "secret")
	var vars map[string]any
	decodeInto(t, resp, &vars)
	assert.Contains(t, vars, "conceptgraph_documents_ingested_total")
}

func TestAPI_IngestAndRead(t *testing.T) {
	st := store.NewMockStore()
	ts := newTestServer(t, st, "", "")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"id": "d1", "text": jkdText, "textual_identifier": "jkd"}, "")
	var res ingest.Result
	decodeInto(t, resp, &res)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "d1", res.DocumentID)
	assert.Equal(t, 2, res.Sentences)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"id": "d1", "text": jkdText}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/documents?limit=5", nil, "")
	var list struct {
		Documents []models.Document `json:"documents"`
	}
	decodeInto(t, resp, &list)
	require.Len(t, list.Documents, 1)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/documents/d1", nil, "")
	var doc models.DocumentDetail
	decodeInto(t, resp, &doc)
	require.Len(t, doc.Sentences, 2)
	assert.Equal(t, models.StatusInitial, doc.Document.Status)
	firstSentence := doc.Sentences[0].ID

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/sentences/"+firstSentence+"?suggest=true", nil, "")
	var sent struct {
		Sentence    models.Sentence     `json:"sentence"`
		DocumentID  string              `json:"document_id"`
		Chain       []models.ChainToken `json:"chain"`
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	decodeInto(t, resp, &sent)
	assert.Equal(t, "d1", sent.DocumentID)
	require.NotEmpty(t, sent.Chain)
	assert.Equal(t, "Jeet", sent.Chain[0].ID)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/tokens/Jeet", nil, "")
	var tok models.TokenDetail
	decodeInto(t, resp, &tok)
	assert.Equal(t, int64(2), tok.Count)
	assert.Equal(t, []string{"d1"}, tok.DocumentIDs)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/tokens/missing", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodPatch, ts.URL+"/v1/documents/d1/status", map[string]string{"status": "processed"}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodPatch, ts.URL+"/v1/documents/d1/status", map[string]string{"status": "archived"}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Analytics(t *testing.T) {
	ts := newTestServer(t, store.NewMockStore(), "", "")
	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"id": "d1", "text": jkdText}, "")
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/analytics/ngrams?document_id=d1", nil, "")
	var grams struct {
		NGrams []models.NGram `json:"ngrams"`
	}
	decodeInto(t, resp, &grams)
	assert.Contains(t, grams.NGrams, models.NGram{DocumentID: "d1", Phrase: "Jeet Kune", Frequency: 2})

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/analytics/important-tokens?k=2", nil, "")
	var important struct {
		Tokens []models.TokenStrength `json:"tokens"`
	}
	decodeInto(t, resp, &important)
	assert.Len(t, important.Tokens, 2)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/analytics/important-tokens?k=-1", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/analytics/overlap?first=d1", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"id": "d2", "text": "Bruce Lee taught Jeet Kune in Seattle."}, "")
	resp.Body.Close()
	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/analytics/overlap?first=d1&second=d2", nil, "")
	var overlap struct {
		Phrases []models.PhraseOverlap `json:"phrases"`
	}
	decodeInto(t, resp, &overlap)
	assert.NotEmpty(t, overlap.Phrases)
}

func TestAPI_Curation(t *testing.T) {
	st := store.NewMockStore()
	ts := newTestServer(t, st, "", "")
	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"id": "d1", "text": jkdText}, "")
	resp.Body.Close()

	detail, err := st.GetDocument(context.Background(), "d1")
	require.NoError(t, err)
	second := detail.Sentences[1].ID

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/entities", map[string]any{
		"id": "e-bruce", "text": "Bruce Lee", "sentence_id": second, "token_ids": []string{"Bruce", "Lee"},
	}, "")
	var entity models.Entity
	decodeInto(t, resp, &entity)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "e-bruce", entity.ID)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/entities", map[string]any{"text": "x", "sentence_id": "missing"}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/entities/e-bruce", nil, "")
	var ed models.EntityDetail
	decodeInto(t, resp, &ed)
	assert.Len(t, ed.Links, 4)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/entities/e-bruce/links", map[string]any{"document_id": "d1"}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/entities/recommend", map[string]any{"token_ids": []string{"Bruce", "."}, "sentence_id": second}, "")
	var recs struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	decodeInto(t, resp, &recs)
	require.Len(t, recs.Recommendations, 1)
	assert.Equal(t, "e-bruce", recs.Recommendations[0].Entity.ID)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/sentences/"+second+"?suggest=true", nil, "")
	var sent struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	decodeInto(t, resp, &sent)
	assert.Equal(t, []models.Suggestion{{ID: "e-bruce", Text: "Bruce Lee", RecommendedBy: "sentence"}}, sent.Suggestions)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/relationships", map[string]any{
		"source_id": "e-bruce", "source_type": "entity", "target_id": "d1", "target_type": "document", "relationship_type": "MENTIONS",
	}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/relationships", map[string]any{
		"source_id": "e-bruce", "source_type": "entity", "target_id": "d1", "target_type": "document", "relationship_type": "CHAIN",
	}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/relationship-types", nil, "")
	var types map[string][]string
	decodeInto(t, resp, &types)
	assert.Contains(t, types["present"], "MENTIONS")
	assert.Equal(t, []string{"TAUGHT", "MENTIONS"}, types["allowed"])

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/search?label=entity&q=bruce", nil, "")
	var hits struct {
		Results []models.NodeRef `json:"results"`
	}
	decodeInto(t, resp, &hits)
	require.Len(t, hits.Results, 1)
	assert.Equal(t, "e-bruce", hits.Results[0].ID)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/search?label=planet&q=x", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/recent", nil, "")
	var recent struct {
		Nodes []models.RecentNode `json:"nodes"`
	}
	decodeInto(t, resp, &recent)
	assert.Len(t, recent.Nodes, 2)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/stats", nil, "")
	var stats models.GraphStats
	decodeInto(t, resp, &stats)
	assert.Equal(t, int64(1), stats.Nodes[string(models.LabelEntity)])
	assert.Equal(t, int64(1), stats.Edges["MENTIONS"])
}

func TestAPI_BadBody(t *testing.T) {
	ts := newTestServer(t, store.NewMockStore(), "", "")
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ts.URL+"/v1/documents", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"text": "   "}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// silentSegmenter finds no sentences in any text.
type silentSegmenter struct{}

func (silentSegmenter) Sentences(context.Context, string) ([]string, error) { return nil, nil }
func (silentSegmenter) Tokens(context.Context, string) ([]string, error)    { return nil, nil }

func TestAPI_IngestNoSentences(t *testing.T) {
	st := store.NewMockStore()
	ts := newTestServerWith(t, st, silentSegmenter{}, "", "")

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"text": "some text"}, "")
	var body map[string]string
	decodeInto(t, resp, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "no sentences")

	docs, err := st.ListDocuments(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestAPI_PartialIngestion(t *testing.T) {
	dir := t.TempDir()
	ts := newTestServer(t, brokenRelated{store.NewMockStore()}, "", dir)

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/documents", map[string]string{"id": "d1", "text": jkdText}, "")
	var body partialResponse
	decodeInto(t, resp, &body)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "d1", body.DocumentID)
	assert.Equal(t, int(ingest.StepRelated), body.Step)
	assert.Equal(t, int(ingest.StepChain), body.LastCompleted)
	assert.Equal(t, "upsert_relationships", body.StepName)
	assert.NotEmpty(t, body.FailedBatch)
}
