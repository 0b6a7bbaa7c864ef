package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

const sampleTOML = `
[storage]
driver = "memory"

[embedding]
provider = "gemini"
model = "text-embedding-004"
dimensions = 768
batch_size = 50
batch_pause = "500ms"

[chunking]
strategy = "sentence"
max_tokens = 300
overlap_tokens = 30

[retrieval]
top_k = 8
min_score = 0.65

[generation]
providers = ["gemini", "anthropic"]
timeout = "10s"

[generation.anthropic]
model = "claude-3-5-sonnet-latest"

[answer]
default_language = "en"

[ingestion]
workers = 3
schedule_interval = "6h"

[[sources]]
id = "purs"
name = "Poreska uprava"
base_url = "https://www.purs.gov.rs"
paths = ["/fizicka-lica/porezi/porez-na-dohodak.html", "/pdv.html"]
language = "sr"
rate_limit_rps = 0.5
retry_attempts = 4

[sources.selectors]
title = "h1"
content = "main, article"
exclude = ["nav", "footer"]
`

const sampleYAML = `
storage:
  driver: sqlite
  path: /tmp/kb
generation:
  providers: [openai]
  temperature: 0.1
ingestion:
  schedule_interval: 30m
sources:
  - id: apr
    base_url: https://www.apr.gov.rs
    paths: [/preduzetnici.html]
    selectors:
      content: "#content"
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvOpenAIKey, EnvGeminiKey, EnvAnthropicKey, EnvPostgresDSN} {
		t.Setenv(k, "")
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, 100, cfg.Embedding.BatchSize)
	assert.Equal(t, 200*time.Millisecond, cfg.Embedding.BatchPause.Std())
	assert.Equal(t, 4, cfg.Embedding.MaxConcurrency)
	assert.Equal(t, domain.DefaultTopK, cfg.Retrieval.TopK)
	assert.InDelta(t, domain.DefaultMinScore, cfg.Retrieval.MinScore, 1e-9)
	assert.Equal(t, []string{ProviderOpenAI, ProviderGemini}, cfg.Generation.Providers)
	assert.Equal(t, 30*time.Second, cfg.Generation.Timeout.Std())
	assert.InDelta(t, 0.2, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, "sr", cfg.Answer.DefaultLanguage)
	assert.Equal(t, "https://www.purs.gov.rs", cfg.Answer.FallbackURL)
	assert.Equal(t, 2, cfg.Ingestion.Workers)
	assert.Equal(t, 100, cfg.Ingestion.MinContentLength)
	assert.Zero(t, cfg.Ingestion.ScheduleInterval)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Sources)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGeminiKey, "g-key")

	cfg, err := Load(writeConfig(t, "config.toml", sampleTOML))
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, ProviderGemini, cfg.Embedding.Provider)
	assert.Equal(t, 50, cfg.Embedding.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Embedding.BatchPause.Std())
	assert.Equal(t, 8, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.65, cfg.Retrieval.MinScore, 1e-9)
	assert.Equal(t, []string{"gemini", "anthropic"}, cfg.Generation.Providers)
	assert.Equal(t, 10*time.Second, cfg.Generation.Timeout.Std())
	assert.Equal(t, "claude-3-5-sonnet-latest", cfg.Generation.Anthropic.Model)
	assert.Equal(t, "en", cfg.Answer.DefaultLanguage)
	assert.Equal(t, 6*time.Hour, cfg.Ingestion.ScheduleInterval.Std())
	assert.Equal(t, "g-key", cfg.Secrets.GeminiKey)

	chunk := cfg.ChunkConfig()
	assert.Equal(t, domain.ChunkConfig{MaxTokens: 300, OverlapTokens: 30, Strategy: domain.StrategySentence}, chunk)

	sources := cfg.DomainSources()
	require.Len(t, sources, 1)
	src := sources[0]
	assert.Equal(t, "purs", src.ID)
	assert.Equal(t, "Poreska uprava", src.Name)
	assert.InDelta(t, 0.5, src.RateLimitRPS, 1e-9)
	assert.Equal(t, 4, src.RetryAttempts)
	assert.Equal(t, "main, article", src.Selectors.Content)
	assert.Equal(t, []string{"nav", "footer"}, src.Selectors.Exclude)

	urls, err := src.URLs()
	require.NoError(t, err)
	assert.Equal(t, "https://www.purs.gov.rs/pdv.html", urls[1])
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, "config.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/kb", cfg.Storage.Path)
	assert.Equal(t, []string{"openai"}, cfg.Generation.Providers)
	assert.InDelta(t, 0.1, cfg.Generation.Temperature, 1e-9)
	assert.Equal(t, 30*time.Minute, cfg.Ingestion.ScheduleInterval.Std())
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, "#content", cfg.Sources[0].Selectors.Content)
}

func TestLoad_PostgresDSNFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPostgresDSN, "postgres://kb@localhost/kb")

	cfg, err := Load(writeConfig(t, "config.toml", "[storage]\ndriver = \"postgres\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://kb@localhost/kb", cfg.Storage.PostgresDSN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown driver", "[storage]\ndriver = \"mongo\"\n", "storage.driver"},
		{"postgres without dsn", "[storage]\ndriver = \"postgres\"\n", "postgres_dsn"},
		{"unknown embedding provider", "[embedding]\nprovider = \"cohere\"\n", "embedding.provider"},
		{"bad strategy", "[chunking]\nstrategy = \"words\"\n", "chunking.strategy"},
		{"overlap too large", "[chunking]\nmax_tokens = 40\noverlap_tokens = 40\n", "overlap_tokens"},
		{"min score range", "[retrieval]\nmin_score = 1.5\n", "min_score"},
		{"unknown generation provider", "[generation]\nproviders = [\"openai\", \"mistral\"]\n", "mistral"},
		{"duplicate provider", "[generation]\nproviders = [\"openai\", \"openai\"]\n", "listed twice"},
		{"source without paths", "[[sources]]\nid = \"purs\"\n", "no paths"},
		{"duplicate source", "[[sources]]\nid = \"a\"\npaths = [\"https://a.rs/x\"]\n[[sources]]\nid = \"a\"\npaths = [\"https://a.rs/y\"]\n", "duplicate source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeConfig(t, "config.toml", tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "config.toml", "[storage\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse toml config")

	_, err = Load(writeConfig(t, "config.yml", "storage: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml config")

	_, err = Load(writeConfig(t, "config.toml", "[embedding]\nbatch_pause = \"soon\"\n"))
	require.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvOpenAIKey, "kept")
	os.Unsetenv(EnvAnthropicKey)
	t.Cleanup(func() { os.Unsetenv(EnvAnthropicKey) })

	path := writeConfig(t, ".env", "OPENAI_API_KEY=from-file\nANTHROPIC_API_KEY=ant-key\n")
	require.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env"), path))

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, "kept", cfg.Secrets.OpenAIKey)
	assert.Equal(t, "ant-key", cfg.Secrets.AnthropicKey)
}

func TestDuration_UnmarshalText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, d.UnmarshalText(nil))
	assert.Zero(t, d)

	assert.Error(t, d.UnmarshalText([]byte("forever")))

	text, err := Duration(2 * time.Hour).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2h0m0s", string(text))
}
