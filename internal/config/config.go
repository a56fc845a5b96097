package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/conceptgraph/internal/ingest"
	"github.com/ajitpratap0/conceptgraph/internal/models"
	"github.com/ajitpratap0/conceptgraph/pkg/tokenizer"
)

const (
	// DefaultTopK is the default number of important tokens returned.
	DefaultTopK = 20

	// DefaultNGramLimit is the default number of n-gram rows returned.
	DefaultNGramLimit = 50

	// DefaultRecommendLimit is the default number of recommended entities.
	DefaultRecommendLimit = 5
)

// Config holds all configuration for conceptgraph.
type Config struct {
	Neo4j     Neo4jConfig     `mapstructure:"neo4j"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Curation  CurationConfig  `mapstructure:"curation"`
	Claude    ClaudeConfig    `mapstructure:"claude"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	API       APIConfig       `mapstructure:"api"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Neo4jConfig holds graph database connection settings.
type Neo4jConfig struct {
	URI            string `mapstructure:"uri"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	MaxPoolSize    int    `mapstructure:"max_pool_size"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// Timeout returns TimeoutSeconds as a duration.
func (c Neo4jConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// String returns a safe representation of Neo4jConfig with the password masked.
func (c Neo4jConfig) String() string {
	return fmt.Sprintf("Neo4jConfig{URI:%s, User:%s, Password:%s, Database:%s}", c.URI, c.User, maskAPIKey(c.Password), c.Database)
}

// IngestConfig holds extraction and flush settings.
type IngestConfig struct {
	StopwordsFile        string        `mapstructure:"stopwords_file"`
	Segmenter            string        `mapstructure:"segmenter"`
	SegmenterURL         string        `mapstructure:"segmenter_url"`
	Strategy             string        `mapstructure:"strategy"`
	MaxRetries           uint64        `mapstructure:"max_retries"`
	RetryInitialInterval time.Duration `mapstructure:"retry_initial_interval"`
	Concurrency          int           `mapstructure:"concurrency"`
	FailedBatchDir       string        `mapstructure:"failed_batch_dir"`
}

// AnalyticsConfig holds result limits and the read cache TTL.
type AnalyticsConfig struct {
	TopK           int           `mapstructure:"top_k"`
	NGramLimit     int           `mapstructure:"ngram_limit"`
	RecommendLimit int           `mapstructure:"recommend_limit"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

// CurationConfig holds the allow-list of curated relationship types.
type CurationConfig struct {
	RelationshipTypes []string `mapstructure:"relationship_types"`
}

// ClaudeConfig holds Anthropic Claude API settings.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	masked := maskAPIKey(c.APIKey)
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", masked, c.Model)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".conceptgraph"))
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK: use defaults + env vars
	}
	return decode(v)
}

// LoadFile reads configuration from an explicit file path plus environment.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("neo4j.max_pool_size", 50)
	v.SetDefault("neo4j.timeout_seconds", 30)

	v.SetDefault("ingest.stopwords_file", "")
	v.SetDefault("ingest.segmenter", tokenizer.KindRule)
	v.SetDefault("ingest.segmenter_url", "")
	v.SetDefault("ingest.strategy", ingest.StrategyBatch)
	v.SetDefault("ingest.max_retries", ingest.DefaultRetryPolicy.MaxRetries)
	v.SetDefault("ingest.retry_initial_interval", ingest.DefaultRetryPolicy.InitialInterval)
	v.SetDefault("ingest.concurrency", 4)
	v.SetDefault("ingest.failed_batch_dir", filepath.Join(homeDir(), ".conceptgraph", "failed"))

	v.SetDefault("analytics.top_k", DefaultTopK)
	v.SetDefault("analytics.ngram_limit", DefaultNGramLimit)
	v.SetDefault("analytics.recommend_limit", DefaultRecommendLimit)
	v.SetDefault("analytics.cache_ttl", 30*time.Second)

	v.SetDefault("curation.relationship_types", []string{"MENTIONS", "PART_OF", "SAME_AS", "RELATES_TO"})

	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Environment variables
	v.SetEnvPrefix("CONCEPTGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("neo4j.uri", "CONCEPTGRAPH_NEO4J_URI", "NEO4J_URI")
	_ = v.BindEnv("neo4j.user", "CONCEPTGRAPH_NEO4J_USER", "NEO4J_USER")
	_ = v.BindEnv("neo4j.password", "CONCEPTGRAPH_NEO4J_PASSWORD", "NEO4J_PASSWORD")
	_ = v.BindEnv("claude.api_key", "CONCEPTGRAPH_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("api.listen_addr", "CONCEPTGRAPH_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "CONCEPTGRAPH_API_AUTH_TOKEN")
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri must not be empty")
	}
	if c.Neo4j.MaxPoolSize <= 0 {
		return fmt.Errorf("neo4j.max_pool_size must be greater than 0")
	}
	if c.Neo4j.TimeoutSeconds <= 0 {
		return fmt.Errorf("neo4j.timeout_seconds must be greater than 0")
	}
	switch c.Ingest.Segmenter {
	case tokenizer.KindRule, tokenizer.KindWhitespace:
	case tokenizer.KindHTTP:
		if c.Ingest.SegmenterURL == "" {
			return fmt.Errorf("ingest.segmenter_url is required when ingest.segmenter is %q", tokenizer.KindHTTP)
		}
	default:
		return fmt.Errorf("ingest.segmenter must be one of %q, %q, %q", tokenizer.KindRule, tokenizer.KindWhitespace, tokenizer.KindHTTP)
	}
	if _, err := ingest.ParseStrategy(c.Ingest.Strategy); err != nil {
		return fmt.Errorf("ingest.strategy: %w", err)
	}
	if c.Ingest.RetryInitialInterval < 0 {
		return fmt.Errorf("ingest.retry_initial_interval must be >= 0")
	}
	if c.Ingest.Concurrency <= 0 {
		return fmt.Errorf("ingest.concurrency must be greater than 0")
	}
	if c.Analytics.TopK <= 0 {
		return fmt.Errorf("analytics.top_k must be greater than 0")
	}
	if c.Analytics.NGramLimit <= 0 {
		return fmt.Errorf("analytics.ngram_limit must be greater than 0")
	}
	if c.Analytics.RecommendLimit <= 0 {
		return fmt.Errorf("analytics.recommend_limit must be greater than 0")
	}
	if c.Analytics.CacheTTL < 0 {
		return fmt.Errorf("analytics.cache_ttl must be >= 0")
	}
	for _, t := range c.Curation.RelationshipTypes {
		if !models.IsIdentifier(t) {
			return fmt.Errorf("curation.relationship_types: %q is not a valid identifier", t)
		}
		if models.IsStructural(t) {
			return fmt.Errorf("curation.relationship_types: %q is reserved", t)
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q", "console", "json")
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return fmt.Errorf("logging rotation limits must be >= 0")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
