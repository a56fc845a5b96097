// Package analytics derives rankings, phrases and recommendations from the
// concept graph. The functions in this file are pure; Service feeds them from
// a store.
package analytics

import (
	"sort"
	"strings"

	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/models"
)

// Defaults used when a caller passes a non-positive limit.
const (
	DefaultTopK           = 20
	DefaultNGramLimit     = 50
	DefaultRecommendLimit = 5

	// MinNGramFrequency drops phrases seen in a single sentence.
	MinNGramFrequency = 2
	// MinRecommendFrequency is the number of distinct (token, origin) pairs an
	// entity needs to be recommended.
	MinRecommendFrequency = 2

	minSpan = 2
	maxSpan = 4
)

// RankImportance sorts tokens by strength descending, ties by id ascending,
// and keeps the first k.
func RankImportance(strengths []models.TokenStrength, k int) []models.TokenStrength {
	if k <= 0 {
		k = DefaultTopK
	}
	out := append([]models.TokenStrength(nil), strengths...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Spans returns every contiguous phrase of 2 to 4 tokens, shortest first.
// A sequence of length L yields max(0,L-1)+max(0,L-2)+max(0,L-3) phrases.
func Spans(tokens []string) []string {
	var out []string
	for n := minSpan; n <= maxSpan; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// PhraseTable maps document id to phrase to the number of distinct sentences
// containing the phrase.
type PhraseTable map[string]map[string]int

// BuildPhraseTable counts phrases over the related tokens of each chain.
func BuildPhraseTable(chains []models.SentenceChain) PhraseTable {
	table := make(PhraseTable)
	for _, c := range chains {
		related := make([]string, 0, len(c.Tokens))
		for _, t := range c.Tokens {
			if t.Related {
				related = append(related, t.ID)
			}
		}
		seen := make(map[string]bool)
		for _, p := range Spans(related) {
			if seen[p] {
				continue
			}
			seen[p] = true
			if table[c.DocumentID] == nil {
				table[c.DocumentID] = make(map[string]int)
			}
			table[c.DocumentID][p]++
		}
	}
	return table
}

// TopNGrams flattens a table, drops phrases below minFreq and returns the top
// limit rows by frequency, ties by phrase then document id.
func TopNGrams(table PhraseTable, minFreq, limit int) []models.NGram {
	if limit <= 0 {
		limit = DefaultNGramLimit
	}
	var out []models.NGram
	for doc, phrases := range table {
		for p, f := range phrases {
			if f < minFreq {
				continue
			}
			out = append(out, models.NGram{DocumentID: doc, Phrase: p, Frequency: f})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		if out[i].Phrase != out[j].Phrase {
			return out[i].Phrase < out[j].Phrase
		}
		return out[i].DocumentID < out[j].DocumentID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Overlap inner-joins two phrase tables on phrase and ranks by the summed
// frequency, ties by phrase.
func Overlap(a, b map[string]int, limit int) []models.PhraseOverlap {
	if limit <= 0 {
		limit = DefaultNGramLimit
	}
	var out []models.PhraseOverlap
	for p, fa := range a {
		fb, ok := b[p]
		if !ok {
			continue
		}
		out = append(out, models.PhraseOverlap{Phrase: p, FirstFreq: fa, SecondFreq: fb, TotalFrequency: fa + fb})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalFrequency != out[j].TotalFrequency {
			return out[i].TotalFrequency > out[j].TotalFrequency
		}
		return out[i].Phrase < out[j].Phrase
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ScoreRecommendations groups matches by entity; frequency is the number of
// distinct (token, origin) pairs. Entities below minFreq are dropped; the rest
// are ranked by frequency, ties by entity id, and cut at limit. A limit of 0
// or less keeps every row.
func ScoreRecommendations(matches []models.EntityMatch, minFreq, limit int) []models.Recommendation {
	type key struct {
		token  string
		origin models.Origin
	}
	type acc struct {
		rec    models.Recommendation
		pairs  map[key]bool
		tokens map[string]bool
		origin map[models.Origin]bool
	}
	byEntity := make(map[string]*acc)
	for _, m := range matches {
		a, ok := byEntity[m.Entity.ID]
		if !ok {
			a = &acc{
				rec:    models.Recommendation{Entity: m.Entity},
				pairs:  make(map[key]bool),
				tokens: make(map[string]bool),
				origin: make(map[models.Origin]bool),
			}
			byEntity[m.Entity.ID] = a
		}
		k := key{m.TokenID, m.Origin}
		if a.pairs[k] {
			continue
		}
		a.pairs[k] = true
		a.rec.Frequency++
		if !a.tokens[m.TokenID] {
			a.tokens[m.TokenID] = true
			a.rec.TokenIDs = append(a.rec.TokenIDs, m.TokenID)
		}
		if !a.origin[m.Origin] {
			a.origin[m.Origin] = true
			a.rec.Origins = append(a.rec.Origins, m.Origin)
		}
	}

	out := make([]models.Recommendation, 0, len(byEntity))
	for _, a := range byEntity {
		if a.rec.Frequency < minFreq {
			continue
		}
		sort.Strings(a.rec.TokenIDs)
		sort.Slice(a.rec.Origins, func(i, j int) bool { return a.rec.Origins[i] < a.rec.Origins[j] })
		out = append(out, a.rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Entity.ID < out[j].Entity.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CleanTokenIDs drops stop signs and duplicates, keeping order.
func CleanTokenIDs(tokenIDs []string) []string {
	seen := make(map[string]bool, len(tokenIDs))
	out := make([]string, 0, len(tokenIDs))
	for _, t := range extract.WithoutStopSigns(tokenIDs) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
