package ingest

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
)

// Strategy decides how a batch is cut into store round trips. Both strategies
// produce the same graph; they differ in the number of round trips.
type Strategy interface {
	Name() string
	plan(b *Batch) []operation
}

// operation is one round trip of a plan.
type operation struct {
	at  Checkpoint
	run func(ctx context.Context, st store.Store) (int, error)
}

// Strategy names accepted by ParseStrategy.
const (
	StrategyBatch       = "batch"
	StrategyPerSentence = "per_sentence"
)

// ParseStrategy resolves a configured strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", StrategyBatch:
		return FullBatch{}, nil
	case StrategyPerSentence:
		return PerSentence{}, nil
	}
	return nil, fmt.Errorf("ingest: unknown strategy %q", name)
}

// FullBatch flushes a document in exactly five round trips.
type FullBatch struct{}

func (FullBatch) Name() string { return StrategyBatch }

func (FullBatch) plan(b *Batch) []operation {
	ops := []operation{documentOp(b)}
	return append(ops, unitOps(b.Document.ID, -1, b.Units...)...)
}

// PerSentence creates the document, then runs steps 2 to 5 once per sentence.
// It issues 1+4n round trips and exists for small inputs and comparison.
type PerSentence struct{}

func (PerSentence) Name() string { return StrategyPerSentence }

func (PerSentence) plan(b *Batch) []operation {
	ops := []operation{documentOp(b)}
	for i, u := range b.Units {
		ops = append(ops, unitOps(b.Document.ID, i, u)...)
	}
	return ops
}

func documentOp(b *Batch) operation {
	doc := b.Document
	return operation{
		at: Checkpoint{Step: StepDocument, Sentence: -1},
		run: func(ctx context.Context, st store.Store) (int, error) {
			return 1, st.CreateDocument(ctx, doc)
		},
	}
}

func unitOps(documentID string, sentence int, units ...Unit) []operation {
	counts := tokenCounts(units...)
	sentences := make([]models.Sentence, 0, len(units))
	for _, u := range units {
		sentences = append(sentences, u.Sentence)
	}
	links := chainLinks(units...)
	pairs := relatedPairs(units...)

	return []operation{
		{
			at: Checkpoint{Step: StepTokens, Sentence: sentence},
			run: func(ctx context.Context, st store.Store) (int, error) {
				return len(counts), st.UpsertTokens(ctx, counts)
			},
		},
		{
			at: Checkpoint{Step: StepSentences, Sentence: sentence},
			run: func(ctx context.Context, st store.Store) (int, error) {
				return len(sentences), st.CreateSentences(ctx, documentID, sentences)
			},
		},
		{
			at: Checkpoint{Step: StepChain, Sentence: sentence},
			run: func(ctx context.Context, st store.Store) (int, error) {
				return len(links), st.LinkChain(ctx, links)
			},
		},
		{
			at: Checkpoint{Step: StepRelated, Sentence: sentence},
			run: func(ctx context.Context, st store.Store) (int, error) {
				return len(pairs), st.UpsertRelationships(ctx, pairs)
			},
		},
	}
}
