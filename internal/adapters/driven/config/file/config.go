package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Environment variables holding secrets.
const (
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvGeminiKey    = "GEMINI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvPostgresDSN  = "SERCHA_KB_POSTGRES_DSN"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config is the complete application configuration.
type Config struct {
	Storage    StorageConfig    `toml:"storage" yaml:"storage"`
	Embedding  EmbeddingConfig  `toml:"embedding" yaml:"embedding"`
	Chunking   ChunkingConfig   `toml:"chunking" yaml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval" yaml:"retrieval"`
	Generation GenerationConfig `toml:"generation" yaml:"generation"`
	Answer     AnswerConfig     `toml:"answer" yaml:"answer"`
	Ingestion  IngestionConfig  `toml:"ingestion" yaml:"ingestion"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
	Sources    []SourceConfig   `toml:"sources" yaml:"sources"`

	// Secrets are read from the environment only.
	Secrets Secrets `toml:"-" yaml:"-"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Driver      string `toml:"driver" yaml:"driver"`
	Path        string `toml:"path" yaml:"path"`
	PostgresDSN string `toml:"postgres_dsn" yaml:"postgres_dsn"`
}

// EmbeddingConfig configures the embedding provider and batching.
type EmbeddingConfig struct {
	Provider       string   `toml:"provider" yaml:"provider"`
	Model          string   `toml:"model" yaml:"model"`
	Dimensions     int      `toml:"dimensions" yaml:"dimensions"`
	BaseURL        string   `toml:"base_url" yaml:"base_url"`
	BatchSize      int      `toml:"batch_size" yaml:"batch_size"`
	BatchPause     Duration `toml:"batch_pause" yaml:"batch_pause"`
	MaxConcurrency int      `toml:"max_concurrency" yaml:"max_concurrency"`
	Timeout        Duration `toml:"timeout" yaml:"timeout"`
}

// ChunkingConfig bounds chunk sizes.
type ChunkingConfig struct {
	Strategy      string `toml:"strategy" yaml:"strategy"`
	MaxTokens     int    `toml:"max_tokens" yaml:"max_tokens"`
	OverlapTokens int    `toml:"overlap_tokens" yaml:"overlap_tokens"`
}

// RetrievalConfig sets similarity search limits.
type RetrievalConfig struct {
	TopK     int     `toml:"top_k" yaml:"top_k"`
	MinScore float64 `toml:"min_score" yaml:"min_score"`
}

// GenerationConfig lists answer providers in failover order.
type GenerationConfig struct {
	Providers   []string       `toml:"providers" yaml:"providers"`
	Timeout     Duration       `toml:"timeout" yaml:"timeout"`
	Temperature float64        `toml:"temperature" yaml:"temperature"`
	MaxTokens   int            `toml:"max_tokens" yaml:"max_tokens"`
	OpenAI      ProviderConfig `toml:"openai" yaml:"openai"`
	Gemini      ProviderConfig `toml:"gemini" yaml:"gemini"`
	Anthropic   ProviderConfig `toml:"anthropic" yaml:"anthropic"`
}

// ProviderConfig overrides a provider's model or endpoint.
type ProviderConfig struct {
	Model   string `toml:"model" yaml:"model"`
	BaseURL string `toml:"base_url" yaml:"base_url"`
}

// AnswerConfig shapes composed answers.
type AnswerConfig struct {
	DefaultLanguage string `toml:"default_language" yaml:"default_language"`
	FallbackURL     string `toml:"fallback_url" yaml:"fallback_url"`
}

// IngestionConfig tunes the ingestion pipeline.
type IngestionConfig struct {
	Workers          int      `toml:"workers" yaml:"workers"`
	MinContentLength int      `toml:"min_content_length" yaml:"min_content_length"`
	UserAgent        string   `toml:"user_agent" yaml:"user_agent"`
	ScheduleInterval Duration `toml:"schedule_interval" yaml:"schedule_interval"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// SourceConfig is one entry of the source table.
type SourceConfig struct {
	ID            string         `toml:"id" yaml:"id"`
	Name          string         `toml:"name" yaml:"name"`
	BaseURL       string         `toml:"base_url" yaml:"base_url"`
	Paths         []string       `toml:"paths" yaml:"paths"`
	Language      string         `toml:"language" yaml:"language"`
	RateLimitRPS  float64        `toml:"rate_limit_rps" yaml:"rate_limit_rps"`
	RetryAttempts int            `toml:"retry_attempts" yaml:"retry_attempts"`
	Selectors     SelectorConfig `toml:"selectors" yaml:"selectors"`
}

// SelectorConfig holds extraction CSS selectors.
type SelectorConfig struct {
	Title   string   `toml:"title" yaml:"title"`
	Content string   `toml:"content" yaml:"content"`
	Exclude []string `toml:"exclude" yaml:"exclude"`
}

// Secrets are API credentials taken from the environment.
type Secrets struct {
	OpenAIKey    string
	GeminiKey    string
	AnthropicKey string
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultDir returns ~/.sercha-kb.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".sercha-kb"), nil
}

// DefaultPath returns ~/.sercha-kb/config.toml.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration at path, or the default path when empty.
// A missing file yields the defaults. Files ending in .yaml or .yml are
// decoded as YAML, everything else as TOML.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads KEY=value files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse toml config %s: %w", path, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Secrets = Secrets{
		OpenAIKey:    os.Getenv(EnvOpenAIKey),
		GeminiKey:    os.Getenv(EnvGeminiKey),
		AnthropicKey: os.Getenv(EnvAnthropicKey),
	}
	if dsn := os.Getenv(EnvPostgresDSN); dsn != "" {
		c.Storage.PostgresDSN = dsn
	}
}

func (c *Config) applyDefaults() {
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 100
	}
	if c.Embedding.BatchPause == 0 {
		c.Embedding.BatchPause = Duration(200 * time.Millisecond)
	}
	if c.Embedding.MaxConcurrency <= 0 {
		c.Embedding.MaxConcurrency = 4
	}
	if c.Embedding.Timeout == 0 {
		c.Embedding.Timeout = Duration(60 * time.Second)
	}

	if c.Chunking.Strategy == "" {
		c.Chunking.Strategy = string(domain.StrategyParagraph)
	}
	if c.Chunking.MaxTokens <= 0 {
		c.Chunking.MaxTokens = domain.DefaultMaxTokens
	}
	if c.Chunking.OverlapTokens == 0 {
		c.Chunking.OverlapTokens = domain.DefaultOverlapTokens
	}

	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = domain.DefaultTopK
	}
	if c.Retrieval.MinScore == 0 {
		c.Retrieval.MinScore = domain.DefaultMinScore
	}

	if len(c.Generation.Providers) == 0 {
		c.Generation.Providers = []string{ProviderOpenAI, ProviderGemini}
	}
	if c.Generation.Timeout == 0 {
		c.Generation.Timeout = Duration(30 * time.Second)
	}
	// Zero means unset; answers favour faithfulness over variety.
	if c.Generation.Temperature == 0 {
		c.Generation.Temperature = 0.2
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1024
	}

	if c.Answer.DefaultLanguage == "" {
		c.Answer.DefaultLanguage = "sr"
	}
	if c.Answer.FallbackURL == "" {
		c.Answer.FallbackURL = "https://www.purs.gov.rs"
	}

	if c.Ingestion.Workers <= 0 {
		c.Ingestion.Workers = 2
	}
	if c.Ingestion.MinContentLength <= 0 {
		c.Ingestion.MinContentLength = 100
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
}

// Validate checks option values after defaults are applied.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("storage.postgres_dsn or %s is required for postgres", EnvPostgresDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider))
	}

	if _, err := domain.ParseChunkStrategy(c.Chunking.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("chunking.strategy: %w", err))
	}
	if c.Chunking.OverlapTokens < 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxTokens {
		errs = append(errs, fmt.Errorf("chunking.overlap_tokens must be in [0, max_tokens)"))
	}

	if c.Retrieval.MinScore < 0 || c.Retrieval.MinScore > 1 {
		errs = append(errs, fmt.Errorf("retrieval.min_score must be in [0, 1]"))
	}

	seen := make(map[string]bool)
	for _, p := range c.Generation.Providers {
		switch p {
		case ProviderOpenAI, ProviderGemini, ProviderAnthropic:
		default:
			errs = append(errs, fmt.Errorf("unknown generation provider %q", p))
		}
		if seen[p] {
			errs = append(errs, fmt.Errorf("generation provider %q listed twice", p))
		}
		seen[p] = true
	}

	ids := make(map[string]bool)
	for _, s := range c.Sources {
		if ids[s.ID] {
			errs = append(errs, fmt.Errorf("duplicate source id %q", s.ID))
		}
		ids[s.ID] = true
		src := s.toDomain()
		if err := src.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: config: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// DomainSources converts the source table.
func (c *Config) DomainSources() []domain.Source {
	sources := make([]domain.Source, len(c.Sources))
	for i, s := range c.Sources {
		sources[i] = s.toDomain()
	}
	return sources
}

// ChunkConfig returns the chunker settings.
func (c *Config) ChunkConfig() domain.ChunkConfig {
	strategy, err := domain.ParseChunkStrategy(c.Chunking.Strategy)
	if err != nil {
		strategy = domain.StrategyParagraph
	}
	return domain.ChunkConfig{
		MaxTokens:     c.Chunking.MaxTokens,
		OverlapTokens: c.Chunking.OverlapTokens,
		Strategy:      strategy,
	}
}

func (s SourceConfig) toDomain() domain.Source {
	return domain.Source{
		ID:       s.ID,
		Name:     s.Name,
		BaseURL:  s.BaseURL,
		Paths:    s.Paths,
		Language: s.Language,
		Selectors: domain.Selectors{
			Title:   s.Selectors.Title,
			Content: s.Selectors.Content,
			Exclude: s.Selectors.Exclude,
		},
		RateLimitRPS:  s.RateLimitRPS,
		RetryAttempts: s.RetryAttempts,
	}
}
