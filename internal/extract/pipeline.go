// Package extract turns raw document text into per-sentence token sequences
// ready to be merged into the concept graph.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/pkg/tokenizer"
)

// ErrNoSentences is returned when the segmenter finds no sentence in a
// non-blank document. It is an input error and matches models.ErrValidation.
var ErrNoSentences = fmt.Errorf("%w: document yields no sentences", models.ErrValidation)

// Sentence is one segmented sentence. Tokens is the full ordered token list
// used for CHAIN edges; Filtered drops stop words and stop signs and feeds the
// co-occurrence counter.
type Sentence struct {
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	Tokens   []string `json:"tokens"`
	Filtered []string `json:"filtered"`
}

// Extraction is the result of running the pipeline over one document.
type Extraction struct {
	Sentences []Sentence `json:"sentences"`
}

// TokenCounts returns the multiset of every chain token in the document.
func (e *Extraction) TokenCounts() map[string]int64 {
	counts := make(map[string]int64)
	for i := range e.Sentences {
		for _, t := range e.Sentences[i].Tokens {
			counts[t]++
		}
	}
	return counts
}

// Pipeline segments text with an injected Segmenter and filters it with an
// immutable stop-word set.
type Pipeline struct {
	seg  tokenizer.Segmenter
	stop *StopWords
}

// NewPipeline creates a pipeline. A nil stop-word set filters stop signs only.
func NewPipeline(seg tokenizer.Segmenter, stop *StopWords) *Pipeline {
	if seg == nil {
		seg = tokenizer.RuleSegmenter{}
	}
	if stop == nil {
		stop = NewStopWords()
	}
	return &Pipeline{seg: seg, stop: stop}
}

// StopWords returns the set the pipeline filters with.
func (p *Pipeline) StopWords() *StopWords { return p.stop }

// Extract segments text into sentences and tokens. Blank text is a
// ValidationError; text that segments into zero sentences is ErrNoSentences.
func (p *Pipeline) Extract(ctx context.Context, text string) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.NewValidationError("text", "must not be empty")
	}

	sentences, err := p.seg.Sentences(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("segmenting sentences: %w", err)
	}

	out := &Extraction{Sentences: make([]Sentence, 0, len(sentences))}
	for _, s := range sentences {
		if strings.TrimSpace(s) == "" {
			continue
		}
		raw, err := p.seg.Tokens(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("segmenting tokens of sentence %d: %w", len(out.Sentences), err)
		}
		tokens := make([]string, 0, len(raw))
		for _, t := range raw {
			// whitespace cannot be a node id
			if strings.TrimSpace(t) == "" {
				continue
			}
			tokens = append(tokens, t)
		}
		out.Sentences = append(out.Sentences, Sentence{
			Index:    len(out.Sentences),
			Text:     s,
			Tokens:   tokens,
			Filtered: Filter(tokens, p.stop),
		})
	}

	if len(out.Sentences) == 0 {
		return nil, ErrNoSentences
	}
	return out, nil
}

// Keywords tokenizes a search query and drops stop words and stop signs.
func (p *Pipeline) Keywords(ctx context.Context, query string) ([]string, error) {
	tokens, err := p.seg.Tokens(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("segmenting query: %w", err)
	}
	return Filter(tokens, p.stop), nil
}
