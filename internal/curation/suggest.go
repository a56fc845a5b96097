package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/metrics"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/pkg/xmlutil"
)

const (
	// RecommendedBySentence marks suggestions found by matching existing
	// entity text against the sentence.
	RecommendedBySentence = "sentence"
	// RecommendedByLLM marks suggestions proposed by the language model.
	RecommendedByLLM = "llm"
)

// Suggester proposes named entities for a sentence.
type Suggester interface {
	Suggest(ctx context.Context, sentence string) ([]models.Suggestion, error)
}

// suggestionPrompt wraps the sentence in an XML tag so its content cannot be
// read as instructions.
const suggestionPrompt = `You are a named entity recognizer. Identify the named entities in the sentence.

For each entity provide:
- text: the entity exactly as written in the sentence
- kind: one of "person", "organization", "place", "work", "event", "concept"

Return a JSON array of objects. If there are no named entities, return [].

%s

Entities as JSON array:`

type suggestedEntity struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// LLMSuggester asks Claude for named entities in a sentence.
type LLMSuggester struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

// NewLLMSuggester creates a suggester backed by the Claude API. Extra request
// options are appended after the API key.
func NewLLMSuggester(apiKey, model string, logger *zap.Logger, opts ...option.RequestOption) *LLMSuggester {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &LLMSuggester{client: &c, model: model, logger: logger}
}

// Suggest returns the entities Claude finds in sentence. On API error it logs
// a warning and returns (nil, nil).
func (l *LLMSuggester) Suggest(ctx context.Context, sentence string) ([]models.Suggestion, error) {
	prompt := fmt.Sprintf(suggestionPrompt, xmlutil.Tag("sentence", sentence))

	resp, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(l.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: "You are a precise named entity recognizer. Output only valid JSON."},
		},
	})
	if err != nil {
		l.logger.Warn("entity suggestion: Claude API error, skipping", zap.Error(err))
		return nil, nil
	}

	var text string
	for i := range resp.Content {
		if resp.Content[i].Type == "text" {
			text = resp.Content[i].Text
			break
		}
	}
	if text == "" {
		l.logger.Warn("entity suggestion: empty response from Claude")
		return nil, nil
	}

	var raw []suggestedEntity
	if err := json.Unmarshal([]byte(jsonArray(text)), &raw); err != nil {
		return nil, fmt.Errorf("entity suggestion: parsing response: %w (raw: %s)", err, text)
	}

	out := make([]models.Suggestion, 0, len(raw))
	for _, r := range raw {
		t := strings.TrimSpace(r.Text)
		if t == "" {
			continue
		}
		out = append(out, models.Suggestion{Text: t, Kind: strings.ToLower(r.Kind), RecommendedBy: RecommendedByLLM})
	}
	l.logger.Debug("entity suggestions", zap.Int("count", len(out)))
	return out, nil
}

// jsonArray trims anything around the outermost JSON array, such as a
// markdown code fence.
func jsonArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// Suggest proposes entities for a sentence: existing entities whose text
// occurs in it, then model suggestions when a suggester is configured.
// Suggestions matching an existing entity carry its id.
func (s *Service) Suggest(ctx context.Context, sentenceID string) ([]models.Suggestion, error) {
	if sentenceID == "" {
		return nil, models.NewValidationError("sentence_id", "must not be empty")
	}
	sent, err := s.store.GetSentence(ctx, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	entities, err := s.store.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest: listing entities: %w", err)
	}

	byText := make(map[string]models.Entity, len(entities))
	for _, e := range entities {
		key := strings.ToLower(e.Text)
		if _, ok := byText[key]; !ok {
			byText[key] = e
		}
	}

	out := TextualMatches(sent.Sentence.Text, entities)
	seen := make(map[string]bool, len(out))
	for _, sg := range out {
		seen[strings.ToLower(sg.Text)] = true
	}

	if s.suggester != nil {
		llm, err := s.suggester.Suggest(ctx, sent.Sentence.Text)
		if err != nil {
			s.logger.Warn("entity suggestion failed, using textual matches only",
				zap.String("sentence_id", sentenceID), zap.Error(err))
		}
		for _, sg := range llm {
			key := strings.ToLower(sg.Text)
			if seen[key] {
				continue
			}
			seen[key] = true
			if e, ok := byText[key]; ok {
				sg.ID = e.ID
			}
			sg.RecommendedBy = RecommendedByLLM
			out = append(out, sg)
		}
	}

	metrics.Add(metrics.Suggestions, len(out))
	return out, nil
}

// TextualMatches returns every entity whose text occurs in sentence,
// case-insensitively, ordered by entity text.
func TextualMatches(sentence string, entities []models.Entity) []models.Suggestion {
	lower := strings.ToLower(sentence)
	seen := make(map[string]bool)
	out := []models.Suggestion{}
	for _, e := range entities {
		key := strings.ToLower(strings.TrimSpace(e.Text))
		if key == "" || seen[key] || !strings.Contains(lower, key) {
			continue
		}
		seen[key] = true
		out = append(out, models.Suggestion{ID: e.ID, Text: e.Text, RecommendedBy: RecommendedBySentence})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}
