package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/conceptgraph/internal/analytics"
	"github.com/ajitpratap0/conceptgraph/internal/config"
	"github.com/ajitpratap0/conceptgraph/internal/curation"
	"github.com/ajitpratap0/conceptgraph/internal/extract"
	"github.com/ajitpratap0/conceptgraph/internal/ingest"
	"github.com/ajitpratap0/conceptgraph/internal/logging"
	"github.com/ajitpratap0/conceptgraph/internal/store"
	"github.com/ajitpratap0/conceptgraph/pkg/tokenizer"
)

var (
	cfg        *config.Config
	configPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := &cobra.Command{
		Use:          "conceptgraph",
		Short:        "conceptgraph: turn documents into a Neo4j concept graph",
		Long:         "conceptgraph splits documents into sentences and tokens, merges token co-occurrences into a Neo4j graph and answers importance, phrase and entity queries over it.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
			} else {
				cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.conceptgraph/config.yaml or ./config.yaml)")

	rootCmd.AddCommand(
		ingestCmd(),
		documentsCmd(),
		sentenceCmd(),
		tokenCmd(),
		importantCmd(),
		ngramsCmd(),
		compareCmd(),
		entitiesCmd(),
		relationshipsCmd(),
		searchCmd(),
		recentCmd(),
		statsCmd(),
		healthCmd(),
		purgeCmd(),
		serveCmd(),
		mcpCmd(),
	)

	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	if cfg == nil {
		return zap.NewNop()
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v; falling back to defaults\n", err)
		logger, _ = logging.New(config.LoggingConfig{Level: "info", Format: "console"})
	}
	return logger
}

func newStore(logger *zap.Logger) (store.Store, error) {
	st, err := store.NewNeo4jStore(store.Neo4jOptions{
		URI:         cfg.Neo4j.URI,
		User:        cfg.Neo4j.User,
		Password:    cfg.Neo4j.Password,
		Database:    cfg.Neo4j.Database,
		MaxPoolSize: cfg.Neo4j.MaxPoolSize,
		Timeout:     cfg.Neo4j.Timeout(),
	}, logger)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func newPipeline() (*extract.Pipeline, error) {
	seg, err := tokenizer.New(cfg.Ingest.Segmenter, cfg.Ingest.SegmenterURL)
	if err != nil {
		return nil, err
	}
	stop, err := extract.LoadStopWords(cfg.Ingest.StopwordsFile)
	if err != nil {
		return nil, err
	}
	return extract.NewPipeline(seg, stop), nil
}

// app bundles the store and the services built on it.
type app struct {
	store     store.Store
	pipeline  *extract.Pipeline
	ingest    *ingest.Service
	analytics *analytics.Service
	curation  *curation.Service
	logger    *zap.Logger
}

// newApp connects to Neo4j, ensures the schema and wires every service.
// strategy overrides cfg.Ingest.Strategy when non-empty.
func newApp(ctx context.Context, logger *zap.Logger, strategy string) (*app, error) {
	pipeline, err := newPipeline()
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}
	st, err := newStore(logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	if err := st.EnsureSchema(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	if strategy == "" {
		strategy = cfg.Ingest.Strategy
	}
	strat, err := ingest.ParseStrategy(strategy)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	an := analytics.NewService(st, analytics.Options{
		TopK:           cfg.Analytics.TopK,
		NGramLimit:     cfg.Analytics.NGramLimit,
		RecommendLimit: cfg.Analytics.RecommendLimit,
		CacheTTL:       cfg.Analytics.CacheTTL,
	}, logger.Named("analytics"))

	coord := ingest.NewCoordinator(st, strat, ingest.RetryPolicy{
		MaxRetries:      cfg.Ingest.MaxRetries,
		InitialInterval: cfg.Ingest.RetryInitialInterval,
	}, logger.Named("flush"))
	ing := ingest.NewService(pipeline, coord, ingest.Options{
		Concurrency:    cfg.Ingest.Concurrency,
		FailedBatchDir: cfg.Ingest.FailedBatchDir,
		OnWrite:        func(string) { an.Invalidate() },
	}, logger.Named("ingest"))

	var suggester curation.Suggester
	if cfg.Claude.APIKey != "" {
		suggester = curation.NewLLMSuggester(cfg.Claude.APIKey, cfg.Claude.Model, logger.Named("suggest"))
	}
	cur := curation.NewService(st, pipeline, suggester, curation.Options{
		RelationshipTypes: cfg.Curation.RelationshipTypes,
		OnWrite:           an.Invalidate,
	}, logger.Named("curation"))

	return &app{
		store:     st,
		pipeline:  pipeline,
		ingest:    ing,
		analytics: an,
		curation:  cur,
		logger:    logger,
	}, nil
}

func (a *app) Close() {
	_ = a.store.Close()
	_ = a.logger.Sync()
}

// withApp runs fn with a connected app and closes it afterwards. Errors are
// prefixed with name.
func withApp(cmd *cobra.Command, name string, fn func(a *app) error) error {
	a, err := newApp(cmd.Context(), newLogger(), "")
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer a.Close()
	if err := fn(a); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen]) + "..."
	}
	return s
}
