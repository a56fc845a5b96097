// Package cooccur counts how often two filtered tokens share a sentence.
package cooccur

import (
	"sort"

	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// Pair is an unordered token pair in canonical form: A < B.
type Pair struct {
	A, B string
}

// NewPair returns the canonical pair for a and b.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Counter accumulates pair counts across every sentence of a batch. It is not
// safe for concurrent use.
type Counter struct {
	counts map[Pair]int64
}

// NewCounter creates an empty counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[Pair]int64)}
}

// AddSentence counts every i<j pair of filtered tokens. A token repeated inside
// the sentence does not pair with itself. Cost is quadratic in len(filtered).
func (c *Counter) AddSentence(filtered []string) {
	for i := 0; i < len(filtered); i++ {
		for j := i + 1; j < len(filtered); j++ {
			if filtered[i] == filtered[j] {
				continue
			}
			c.counts[NewPair(filtered[i], filtered[j])]++
		}
	}
}

// Count returns the accumulated count for the canonical form of (a, b).
func (c *Counter) Count(a, b string) int64 {
	return c.counts[NewPair(a, b)]
}

// Len returns the number of distinct pairs.
func (c *Counter) Len() int { return len(c.counts) }

// Pairs returns the accumulated increments sorted by (A, B).
func (c *Counter) Pairs() []models.RelatedPair {
	out := make([]models.RelatedPair, 0, len(c.counts))
	for p, n := range c.counts {
		out = append(out, models.RelatedPair{A: p.A, B: p.B, Strength: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Count builds a counter over a list of filtered sentences.
func Count(sentences ...[]string) *Counter {
	c := NewCounter()
	for _, s := range sentences {
		c.AddSentence(s)
	}
	return c
}
