package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/metrics"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
	"github.com/ajitpratap0/conceptgraph/pkg/tokenizer"
)

var fastRetry = RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond}

// flakyStore wraps MockStore and fails one step a fixed number of times.
type flakyStore struct {
	*store.MockStore

	mu       sync.Mutex
	failStep Step
	skip     int // calls of failStep that succeed before failures start
	failures int // remaining failures; negative fails forever
	err      error
	calls    map[Step]int
}

func newFlakyStore(step Step, failures int, err error) *flakyStore {
	return &flakyStore{MockStore: store.NewMockStore(), failStep: step, failures: failures, err: err, calls: map[Step]int{}}
}

func (f *flakyStore) check(step Step) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[step]++
	if step != f.failStep || f.failures == 0 {
		return nil
	}
	if f.skip > 0 {
		f.skip--
		return nil
	}
	if f.failures > 0 {
		f.failures--
	}
	return f.err
}

func (f *flakyStore) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = 0
}

func (f *flakyStore) callCount(step Step) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[step]
}

func (f *flakyStore) CreateDocument(ctx context.Context, doc models.Document) error {
	if err := f.check(StepDocument); err != nil {
		return err
	}
	return f.MockStore.CreateDocument(ctx, doc)
}

func (f *flakyStore) UpsertTokens(ctx context.Context, counts map[string]int64) error {
	if err := f.check(StepTokens); err != nil {
		return err
	}
	return f.MockStore.UpsertTokens(ctx, counts)
}

func (f *flakyStore) CreateSentences(ctx context.Context, documentID string, sentences []models.Sentence) error {
	if err := f.check(StepSentences); err != nil {
		return err
	}
	return f.MockStore.CreateSentences(ctx, documentID, sentences)
}

func (f *flakyStore) LinkChain(ctx context.Context, links []models.ChainLink) error {
	if err := f.check(StepChain); err != nil {
		return err
	}
	return f.MockStore.LinkChain(ctx, links)
}

func (f *flakyStore) UpsertRelationships(ctx context.Context, pairs []models.RelatedPair) error {
	if err := f.check(StepRelated); err != nil {
		return err
	}
	return f.MockStore.UpsertRelationships(ctx, pairs)
}

func newTestService(st store.Store, strategy Strategy, opts Options) *Service {
	pipeline := extract.NewPipeline(tokenizer.RuleSegmenter{}, extract.NewStopWords("was", "an"))
	return NewService(pipeline, NewCoordinator(st, strategy, fastRetry, nil), opts, nil)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func neighbor(t *testing.T, st store.Store, a, b string) int64 {
	t.Helper()
	tok, err := st.GetToken(context.Background(), a, 0)
	require.NoError(t, err)
	for _, n := range tok.Neighbors {
		if n.ID == b {
			return n.Strength
		}
	}
	return 0
}

func tokenCount(t *testing.T, st store.Store, id string) int64 {
	t.Helper()
	tok, err := st.GetToken(context.Background(), id, 0)
	require.NoError(t, err)
	return tok.Count
}

// TestIngest_SameSentenceTwice verifies that a sentence repeated inside one
// batch doubles both the token count and the pair strength.
func TestIngest_SameSentenceTwice(t *testing.T) {
	st := store.NewMockStore()
	svc := newTestService(st, FullBatch{}, Options{})

	res, err := svc.Ingest(context.Background(), Request{Text: "Bruce Lee was an actor. Bruce Lee was an actor."})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sentences)
	assert.Equal(t, 3, res.Relationships)

	assert.Equal(t, int64(2), tokenCount(t, st, "Bruce"))
	assert.Equal(t, int64(2), neighbor(t, st, "Bruce", "Lee"))
	assert.Equal(t, int64(2), neighbor(t, st, "Lee", "Bruce"))
	assert.Equal(t, int64(2), neighbor(t, st, "Lee", "actor"))
	assert.Equal(t, int64(0), neighbor(t, st, "Bruce", "was"))
}

// TestIngest_TokenCountAcrossDocuments verifies that ingesting a token k times
// across documents yields count k.
func TestIngest_TokenCountAcrossDocuments(t *testing.T) {
	st := store.NewMockStore()
	svc := newTestService(st, FullBatch{}, Options{})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Ingest(ctx, Request{Text: "Kwoon."})
		require.NoError(t, err)
	}
	assert.Equal(t, int64(4), tokenCount(t, st, "Kwoon"))

	docs, err := st.ListDocuments(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 4)
}

func TestIngest_StrategiesProduceSameGraph(t *testing.T) {
	text := "Bruce Lee was an actor. He founded Jeet Kune Do. Jeet Kune Do was his art."
	ctx := context.Background()

	batchStore := newFlakyStore(StepNone, 0, nil)
	_, err := newTestService(batchStore, FullBatch{}, Options{NewID: sequentialIDs()}).Ingest(ctx, Request{Text: text})
	require.NoError(t, err)

	perStore := newFlakyStore(StepNone, 0, nil)
	_, err = newTestService(perStore, PerSentence{}, Options{NewID: sequentialIDs()}).Ingest(ctx, Request{Text: text})
	require.NoError(t, err)

	a, err := batchStore.Stats(ctx)
	require.NoError(t, err)
	b, err := perStore.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	for _, tok := range []string{"Jeet", "Kune", "Do", "Bruce", "."} {
		assert.Equal(t, tokenCount(t, batchStore, tok), tokenCount(t, perStore, tok), tok)
	}
	assert.Equal(t, int64(2), neighbor(t, perStore, "Jeet", "Kune"))

	// one round trip per step for the full batch, four per sentence otherwise
	for step := StepDocument; step <= LastStep; step++ {
		assert.Equal(t, 1, batchStore.callCount(step), "batch %s", step)
	}
	assert.Equal(t, 1, perStore.callCount(StepDocument))
	assert.Equal(t, 3, perStore.callCount(StepTokens))
	assert.Equal(t, 3, perStore.callCount(StepRelated))
}

func TestIngest_TransientFailureRetried(t *testing.T) {
	st := newFlakyStore(StepTokens, 2, errors.New("connection reset"))
	svc := newTestService(st, FullBatch{}, Options{})
	before := metrics.FlushRetries.Value()

	_, err := svc.Ingest(context.Background(), Request{Text: "Bruce Lee was an actor."})
	require.NoError(t, err)
	assert.Equal(t, 3, st.callCount(StepTokens))
	assert.Equal(t, before+2, metrics.FlushRetries.Value())
	assert.Equal(t, int64(1), tokenCount(t, st, "Bruce"))
}

// TestIngest_PartialFailureAndResume verifies that a failure at step 4
// reports step 3 as completed and that resuming does not double counts.
func TestIngest_PartialFailureAndResume(t *testing.T) {
	boom := errors.New("neo4j unavailable")
	st := newFlakyStore(StepChain, -1, boom)
	pipeline := extract.NewPipeline(tokenizer.RuleSegmenter{}, extract.NewStopWords("was", "an"))
	coord := NewCoordinator(st, FullBatch{}, fastRetry, nil)
	svc := NewService(pipeline, coord, Options{}, nil)
	ctx := context.Background()

	b, err := svc.Prepare(ctx, Request{Text: "Bruce Lee was an actor."})
	require.NoError(t, err)

	err = coord.Flush(ctx, b)
	var perr *PartialIngestionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StepChain, perr.Step)
	assert.Equal(t, StepSentences, perr.LastCompleted)
	assert.Equal(t, b.Document.ID, perr.DocumentID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int(fastRetry.MaxRetries)+1, st.callCount(StepChain))
	assert.Equal(t, 0, st.callCount(StepRelated))

	st.heal()
	require.NoError(t, coord.Resume(ctx, b, perr.Step))

	assert.Equal(t, int64(1), tokenCount(t, st, "Bruce"))
	assert.Equal(t, int64(1), neighbor(t, st, "Bruce", "Lee"))
	sentence, err := st.GetSentence(ctx, b.Units[0].Sentence.ID)
	require.NoError(t, err)
	assert.Len(t, sentence.Chain, 6)
}

func TestIngest_PerSentenceResumeAtCheckpoint(t *testing.T) {
	st := newFlakyStore(StepRelated, -1, errors.New("timeout"))
	pipeline := extract.NewPipeline(tokenizer.RuleSegmenter{}, extract.NewStopWords("was", "an"))
	coord := NewCoordinator(st, PerSentence{}, RetryPolicy{InitialInterval: time.Millisecond}, nil)
	svc := NewService(pipeline, coord, Options{}, nil)
	ctx := context.Background()

	b, err := svc.Prepare(ctx, Request{Text: "Bruce Lee was an actor. Lee was a teacher."})
	require.NoError(t, err)

	err = coord.Flush(ctx, b)
	var perr *PartialIngestionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Checkpoint{Step: StepRelated, Sentence: 0}, perr.Checkpoint())
	assert.Equal(t, 1, st.callCount(StepTokens))

	st.heal()
	require.NoError(t, coord.ResumeAt(ctx, b, perr.Checkpoint()))
	assert.Equal(t, int64(2), tokenCount(t, st, "Lee"))
	assert.Equal(t, int64(1), neighbor(t, st, "Bruce", "Lee"))
	assert.Equal(t, int64(1), neighbor(t, st, "Lee", "teacher"))
}

func TestIngest_PerSentenceFailureOnLaterSentence(t *testing.T) {
	st := newFlakyStore(StepChain, -1, errors.New("timeout"))
	st.skip = 1
	pipeline := extract.NewPipeline(tokenizer.RuleSegmenter{}, extract.NewStopWords("was", "an", "a"))
	coord := NewCoordinator(st, PerSentence{}, RetryPolicy{InitialInterval: time.Millisecond}, nil)
	svc := NewService(pipeline, coord, Options{}, nil)
	ctx := context.Background()

	b, err := svc.Prepare(ctx, Request{Text: "Bruce Lee was an actor. Lee was a teacher."})
	require.NoError(t, err)

	err = coord.Flush(ctx, b)
	var perr *PartialIngestionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, StepChain, perr.Step)
	assert.Equal(t, StepSentences, perr.LastCompleted)
	assert.Equal(t, 1, perr.Sentence)
	// the first sentence finished every step before the failure
	assert.Equal(t, int64(1), neighbor(t, st, "Bruce", "Lee"))
	assert.Equal(t, int64(0), neighbor(t, st, "Lee", "teacher"))

	st.heal()
	require.NoError(t, coord.ResumeAt(ctx, b, perr.Checkpoint()))
	assert.Equal(t, int64(1), neighbor(t, st, "Lee", "teacher"))
	assert.Equal(t, int64(2), tokenCount(t, st, "Lee"))
}

func TestIngest_ConflictIsNotRetried(t *testing.T) {
	st := newFlakyStore(StepNone, 0, nil)
	svc := newTestService(st, FullBatch{}, Options{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, Request{ID: "doc", Text: "Bruce Lee."})
	require.NoError(t, err)

	_, err = svc.Ingest(ctx, Request{ID: "doc", Text: "Bruce Lee."})
	require.ErrorIs(t, err, models.ErrConflict)
	var perr *PartialIngestionError
	assert.False(t, errors.As(err, &perr))
	assert.Equal(t, 2, st.callCount(StepDocument))
	assert.Equal(t, 1, st.callCount(StepTokens))
	assert.Equal(t, int64(1), tokenCount(t, st, "Bruce"))
}

func TestIngest_PermanentErrorNotRetried(t *testing.T) {
	st := newFlakyStore(StepSentences, -1, fmt.Errorf("wrapped: %w", models.ErrNotFound))
	svc := newTestService(st, FullBatch{}, Options{})

	_, err := svc.Ingest(context.Background(), Request{Text: "Bruce Lee."})
	var perr *PartialIngestionError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 1, st.callCount(StepSentences))
}

func TestIngest_InputErrors(t *testing.T) {
	svc := newTestService(store.NewMockStore(), nil, Options{})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, Request{Text: "  "})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.Resume(ctx, nil, Checkpoint{Step: StepTokens})
	assert.ErrorIs(t, err, models.ErrValidation)

	coord := NewCoordinator(store.NewMockStore(), nil, fastRetry, nil)
	assert.ErrorIs(t, coord.Resume(ctx, &Batch{}, Step(9)), models.ErrValidation)
}

func TestIngest_FailedBatchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := newFlakyStore(StepRelated, -1, errors.New("timeout"))
	var written []string
	svc := newTestService(st, FullBatch{}, Options{
		FailedBatchDir: dir,
		NewID:          sequentialIDs(),
		OnWrite:        func(id string) { written = append(written, id) },
	})
	ctx := context.Background()

	res, err := svc.Ingest(ctx, Request{Text: "Bruce Lee was an actor."})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, filepath.Join(dir, "id-001.json"), res.FailedBatch)
	assert.Equal(t, []string{"id-001"}, written)

	fb, err := LoadFailedBatch(res.FailedBatch)
	require.NoError(t, err)
	assert.Equal(t, StrategyBatch, fb.Strategy)
	assert.Equal(t, Checkpoint{Step: StepRelated, Sentence: -1}, fb.Checkpoint)
	assert.Equal(t, "id-001", fb.Batch.Document.ID)

	st.heal()
	_, err = svc.Resume(ctx, fb.Batch, fb.Checkpoint)
	require.NoError(t, err)
	assert.Equal(t, int64(1), neighbor(t, st, "Bruce", "actor"))

	_, err = LoadFailedBatch(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestIngestMany_Concurrent(t *testing.T) {
	defer goleak.VerifyNone(t)

	st := store.NewMockStore()
	svc := newTestService(st, FullBatch{}, Options{Concurrency: 4})

	reqs := make([]Request, 10)
	for i := range reqs {
		reqs[i] = Request{Text: "Jeet Kune Do was his art."}
	}
	results, err := svc.IngestMany(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 10)
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 1, r.Sentences)
	}
	assert.Equal(t, int64(10), tokenCount(t, st, "Jeet"))
	assert.Equal(t, int64(10), neighbor(t, st, "Jeet", "Kune"))
}

func TestIngestMany_StopsOnError(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newTestService(store.NewMockStore(), FullBatch{}, Options{Concurrency: 2})
	_, err := svc.IngestMany(context.Background(), []Request{{Text: "fine."}, {Text: ""}})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyBatch, s.Name())

	s, err = ParseStrategy("per_sentence")
	require.NoError(t, err)
	assert.Equal(t, StrategyPerSentence, s.Name())

	_, err = ParseStrategy("naive")
	assert.Error(t, err)
}

func TestBatch_Derived(t *testing.T) {
	ex := &extract.Extraction{Sentences: []extract.Sentence{
		{Index: 0, Text: "Bruce Lee was an actor", Tokens: []string{"Bruce", "Lee", "was", "an", "actor"}, Filtered: []string{"Bruce", "Lee", "actor"}},
		{Index: 1, Text: "", Tokens: nil, Filtered: nil},
	}}
	b := NewBatch(models.Document{ID: "d"}, ex, sequentialIDs(), time.Unix(0, 0))

	require.Len(t, b.Sentences(), 2)
	assert.Equal(t, 1, b.Sentences()[1].Order)
	assert.Equal(t, int64(1), b.TokenCounts()["was"])
	assert.Len(t, b.ChainLinks(), 5)
	assert.Equal(t, models.ChainLink{SentenceID: "id-001", TokenID: "actor", Order: 4}, b.ChainLinks()[4])
	assert.Equal(t, []models.RelatedPair{
		{A: "Bruce", B: "Lee", Strength: 1},
		{A: "Bruce", B: "actor", Strength: 1},
		{A: "Lee", B: "actor", Strength: 1},
	}, b.RelatedPairs())
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "link_chain", StepChain.String())
	assert.Equal(t, "step(7)", Step(7).String())
	assert.True(t, StepTokens.Valid())
	assert.False(t, StepNone.Valid())
}
