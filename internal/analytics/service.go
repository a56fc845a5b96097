package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/metrics"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/internal/store"
)

// Options configures limits and caching.
type Options struct {
	TopK           int
	NGramLimit     int
	RecommendLimit int
	// CacheTTL of zero disables caching.
	CacheTTL time.Duration
}

// Service answers analytics queries from a store. Importance, n-gram and
// overlap results are cached until Invalidate is called or the TTL expires.
// A result loaded while Invalidate runs is returned but never cached.
type Service struct {
	store  store.Store
	opts   Options
	cache  *cache.Cache
	logger *zap.Logger

	mu  sync.Mutex
	gen uint64
}

// NewService creates an analytics service.
func NewService(st store.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.NGramLimit <= 0 {
		opts.NGramLimit = DefaultNGramLimit
	}
	if opts.RecommendLimit <= 0 {
		opts.RecommendLimit = DefaultRecommendLimit
	}
	s := &Service{store: st, opts: opts, logger: logger}
	if opts.CacheTTL > 0 {
		s.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return s
}

// Invalidate drops every cached result. It is called after each ingestion and
// curation write.
func (s *Service) Invalidate() {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.cache.Flush()
}

func (s *Service) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *Service) cached(key string, load func() (any, error)) (any, error) {
	metrics.Inc(metrics.AnalyticsQueries)
	if s.cache == nil {
		return load()
	}
	gen := s.generation()
	if v, ok := s.cache.Get(key); ok {
		metrics.Inc(metrics.CacheHits)
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.gen == gen {
		s.cache.Set(key, v, cache.DefaultExpiration)
	}
	s.mu.Unlock()
	return v, nil
}

// ImportantTokens ranks tokens by the summed strength of their RELATED edges.
// A non-empty documentID limits candidates to that document's chains.
func (s *Service) ImportantTokens(ctx context.Context, documentID string, k int) ([]models.TokenStrength, error) {
	if k <= 0 {
		k = s.opts.TopK
	}
	v, err := s.cached(fmt.Sprintf("important|%s|%d", documentID, k), func() (any, error) {
		strengths, err := s.store.TokenStrengths(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("important tokens: %w", err)
		}
		if len(strengths) == 0 {
			return nil, fmt.Errorf("important tokens: %w: no related tokens", models.ErrNotFound)
		}
		return RankImportance(strengths, k), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.TokenStrength), nil
}

// NGrams returns phrases that occur in at least two sentences of the same
// document. An empty documentID covers all documents.
func (s *Service) NGrams(ctx context.Context, documentID string) ([]models.NGram, error) {
	v, err := s.cached("ngrams|"+documentID, func() (any, error) {
		table, err := s.phraseTable(ctx, documentID)
		if err != nil {
			return nil, err
		}
		out := TopNGrams(table, MinNGramFrequency, s.opts.NGramLimit)
		if out == nil {
			out = []models.NGram{}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.NGram), nil
}

// CompareDocuments returns the phrases two documents share, unthresholded.
func (s *Service) CompareDocuments(ctx context.Context, first, second string) ([]models.PhraseOverlap, error) {
	if first == "" || second == "" {
		return nil, models.NewValidationError("document", "two document ids are required")
	}
	v, err := s.cached("overlap|"+first+"|"+second, func() (any, error) {
		a, err := s.phraseTable(ctx, first)
		if err != nil {
			return nil, err
		}
		b, err := s.phraseTable(ctx, second)
		if err != nil {
			return nil, err
		}
		out := Overlap(a[first], b[second], s.opts.NGramLimit)
		if len(out) == 0 {
			return nil, fmt.Errorf("compare documents: %w: no shared phrases", models.ErrNotFound)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.PhraseOverlap), nil
}

func (s *Service) phraseTable(ctx context.Context, documentID string) (PhraseTable, error) {
	chains, err := s.store.SentenceChains(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("reading chains: %w", err)
	}
	return BuildPhraseTable(chains), nil
}

// RecommendEntities scores entities reachable from the tokens and keeps those
// reached through at least two distinct (token, origin) pairs.
func (s *Service) RecommendEntities(ctx context.Context, tokenIDs []string, sentenceID string) ([]models.Recommendation, error) {
	return s.recommend(ctx, tokenIDs, sentenceID, MinRecommendFrequency, s.opts.RecommendLimit)
}

// EntitiesForTokens returns every entity reachable from the tokens, scored the
// same way but without threshold or limit.
func (s *Service) EntitiesForTokens(ctx context.Context, tokenIDs []string, sentenceID string) ([]models.Recommendation, error) {
	return s.recommend(ctx, tokenIDs, sentenceID, 1, 0)
}

func (s *Service) recommend(ctx context.Context, tokenIDs []string, sentenceID string, minFreq, limit int) ([]models.Recommendation, error) {
	metrics.Inc(metrics.AnalyticsQueries)
	tokens := CleanTokenIDs(tokenIDs)
	if len(tokens) == 0 {
		return nil, models.NewValidationError("token_ids", "at least one non-punctuation token is required")
	}
	matches, err := s.store.EntityMatches(ctx, tokens, sentenceID)
	if err != nil {
		return nil, fmt.Errorf("recommend entities: %w", err)
	}
	out := ScoreRecommendations(matches, minFreq, limit)
	s.logger.Debug("scored entity recommendations",
		zap.Int("tokens", len(tokens)),
		zap.Int("matches", len(matches)),
		zap.Int("recommended", len(out)))
	return out, nil
}
