// Package ingest flushes extracted documents into the concept graph in a
// fixed sequence of store round trips.
package ingest

import (
	"time"

	"github.com/ajitpratap0/conceptgraph/internal/cooccur"
	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// Unit is one sentence of a batch with its ordered tokens and the filtered
// tokens that feed RELATED edges.
type Unit struct {
	Sentence models.Sentence `json:"sentence"`
	Tokens   []string        `json:"tokens"`
	Filtered []string        `json:"filtered"`
}

// Batch holds every node and edge record of one document. It is a transient,
// JSON-serialisable value: the store owns the graph.
type Batch struct {
	Document models.Document `json:"document"`
	Units    []Unit          `json:"units"`
}

// NewBatch assigns sentence ids with newID and stamps them with now.
func NewBatch(doc models.Document, ex *extract.Extraction, newID func() string, now time.Time) *Batch {
	b := &Batch{Document: doc, Units: make([]Unit, 0, len(ex.Sentences))}
	for _, s := range ex.Sentences {
		b.Units = append(b.Units, Unit{
			Sentence: models.Sentence{ID: newID(), Text: s.Text, Order: s.Index, CreatedAt: now},
			Tokens:   append([]string(nil), s.Tokens...),
			Filtered: append([]string(nil), s.Filtered...),
		})
	}
	return b
}

// Sentences returns the sentence records in order.
func (b *Batch) Sentences() []models.Sentence {
	out := make([]models.Sentence, 0, len(b.Units))
	for _, u := range b.Units {
		out = append(out, u.Sentence)
	}
	return out
}

// TokenCounts returns the multiset of every token of the document.
func (b *Batch) TokenCounts() map[string]int64 {
	return tokenCounts(b.Units...)
}

// ChainLinks returns every CHAIN edge of the document.
func (b *Batch) ChainLinks() []models.ChainLink {
	return chainLinks(b.Units...)
}

// RelatedPairs returns the canonical pair increments of the document.
func (b *Batch) RelatedPairs() []models.RelatedPair {
	return relatedPairs(b.Units...)
}

func tokenCounts(units ...Unit) map[string]int64 {
	counts := make(map[string]int64)
	for _, u := range units {
		for _, t := range u.Tokens {
			counts[t]++
		}
	}
	return counts
}

func chainLinks(units ...Unit) []models.ChainLink {
	var links []models.ChainLink
	for _, u := range units {
		for i, t := range u.Tokens {
			links = append(links, models.ChainLink{SentenceID: u.Sentence.ID, TokenID: t, Order: i})
		}
	}
	return links
}

func relatedPairs(units ...Unit) []models.RelatedPair {
	c := cooccur.NewCounter()
	for _, u := range units {
		c.AddSentence(u.Filtered)
	}
	return c.Pairs()
}
