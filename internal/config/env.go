// Package config provides application configuration.
package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiters (e.g. EMBEDDING_MODEL).
type EnvConfig struct {
	// Host is the API server host to bind to.
	// Env: HOST (default: 127.0.0.1)
	Host string `envconfig:"HOST" default:"127.0.0.1"`

	// Port is the API server port to listen on.
	// Env: PORT (default: 7910)
	Port int `envconfig:"PORT" default:"7910"`

	// RepoPath is the repository under review.
	// Env: REPO_PATH (default: current directory)
	RepoPath string `envconfig:"REPO_PATH"`

	// DataDir is the per-repository state directory.
	// Env: DATA_DIR (default: .memdocs)
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the catalog database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/memdocs.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// GitProvider selects the git adapter (gogit or gitea).
	// Env: GIT_PROVIDER (default: gogit)
	GitProvider string `envconfig:"GIT_PROVIDER" default:"gogit"`

	// APIKeys is a comma-separated list of valid HTTP API keys.
	// Env: API_KEYS
	APIKeys string `envconfig:"API_KEYS"`

	// AnthropicAPIKey authenticates the summarization provider.
	// Env: ANTHROPIC_API_KEY
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`

	// HTTPCacheDir caches provider HTTP responses to disk when set.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// Policy configures scope determination.
	Policy PolicyEnv `envconfig:"POLICY"`

	// Summary configures the summarization provider.
	Summary SummaryEnv `envconfig:"SUMMARY"`

	// Privacy configures PII scrubbing.
	Privacy PrivacyEnv `envconfig:"PRIVACY"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`
}

// PolicyEnv holds environment configuration for scope policy.
// Zero values mean "not set" so that .memdocs.yml settings survive the merge.
type PolicyEnv struct {
	// MaxFiles is the file-count ceiling enforced without --force.
	// Env: POLICY_MAX_FILES (default: 150)
	MaxFiles int `envconfig:"MAX_FILES"`
}

// SummaryEnv holds environment configuration for summarization.
type SummaryEnv struct {
	// Model is the Claude model identifier.
	// Env: SUMMARY_MODEL
	Model string `envconfig:"MODEL"`

	// MaxTokens is the response token limit.
	// Env: SUMMARY_MAX_TOKENS (default: 4096)
	MaxTokens int `envconfig:"MAX_TOKENS"`

	// RateLimitCalls is the fixed-window call budget.
	// Env: SUMMARY_RATE_LIMIT_CALLS (default: 50)
	RateLimitCalls int `envconfig:"RATE_LIMIT_CALLS" default:"50"`

	// RateLimitWindow is the rate window in seconds.
	// Env: SUMMARY_RATE_LIMIT_WINDOW (default: 3600)
	RateLimitWindow float64 `envconfig:"RATE_LIMIT_WINDOW" default:"3600"`
}

// PrivacyEnv holds environment configuration for PII scrubbing.
type PrivacyEnv struct {
	// Mode is the scrub mode: strict, standard, or off.
	// Env: PRIVACY_MODE (default: standard)
	Mode string `envconfig:"MODE"`
}

// EmbeddingEnv holds environment configuration for embeddings.
type EmbeddingEnv struct {
	// Provider selects local (ONNX) or openai embeddings.
	// Env: EMBEDDING_PROVIDER (default: local)
	Provider string `envconfig:"PROVIDER"`

	// Model is the embedding model identifier.
	// Env: EMBEDDING_MODEL
	Model string `envconfig:"MODEL"`

	// BaseURL is the remote endpoint base URL.
	// Env: EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// APIKey authenticates the remote endpoint.
	// Env: EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Dimension is the embedding vector dimension.
	// Env: EMBEDDING_DIMENSION (default: 384)
	Dimension int `envconfig:"DIMENSION"`

	// BatchSize is the number of texts embedded per call.
	// Env: EMBEDDING_BATCH_SIZE (default: 32)
	BatchSize int `envconfig:"BATCH_SIZE"`

	// CacheDir is the local model cache directory.
	// Env: EMBEDDING_CACHE_DIR (default: ~/.cache/memdocs)
	CacheDir string `envconfig:"CACHE_DIR"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// LoadFromEnvWithPrefix loads configuration with a custom prefix.
// For example, prefix "MEMDOCS" reads MEMDOCS_DATA_DIR instead of DATA_DIR.
func LoadFromEnvWithPrefix(prefix string) (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	return e.ApplyTo(NewAppConfig())
}

// ApplyTo layers set environment values on top of cfg. Unset variables
// leave cfg untouched, so file configuration survives the merge.
func (e EnvConfig) ApplyTo(cfg AppConfig) AppConfig {
	if e.Host != "" {
		cfg = cfg.Apply(WithHost(e.Host))
	}
	if e.Port != 0 {
		cfg = cfg.Apply(WithPort(e.Port))
	}
	if e.RepoPath != "" {
		cfg = cfg.Apply(WithRepoPath(e.RepoPath))
	}
	if e.DataDir != "" {
		cfg = cfg.Apply(WithDataDir(e.DataDir))
	}
	if e.DBURL != "" {
		cfg = cfg.Apply(WithDBURL(e.DBURL))
	}
	if e.LogLevel != "" {
		cfg = cfg.Apply(WithLogLevel(e.LogLevel))
	}
	if e.LogFormat != "" {
		cfg = cfg.Apply(WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	if e.GitProvider != "" {
		cfg = cfg.Apply(WithGitProvider(e.GitProvider))
	}
	if e.APIKeys != "" {
		cfg = cfg.Apply(WithAPIKeys(ParseAPIKeys(e.APIKeys)))
	}
	if e.AnthropicAPIKey != "" {
		cfg = cfg.Apply(WithAnthropicAPIKey(e.AnthropicAPIKey))
	}
	if e.HTTPCacheDir != "" {
		cfg = cfg.Apply(WithHTTPCacheDir(e.HTTPCacheDir))
	}

	cfg = cfg.Apply(WithPolicyConfig(cfg.Policy().WithMaxFiles(e.Policy.MaxFiles)))
	cfg = cfg.Apply(WithSummaryConfig(
		cfg.Summary().WithModel(e.Summary.Model).WithMaxTokens(e.Summary.MaxTokens),
	))
	cfg = cfg.Apply(WithPrivacyConfig(cfg.Privacy().WithMode(PrivacyMode(strings.ToLower(e.Privacy.Mode)))))

	embedding := cfg.Embedding().
		WithProvider(e.Embedding.Provider).
		WithModel(e.Embedding.Model).
		WithDimension(e.Embedding.Dimension).
		WithBatchSize(e.Embedding.BatchSize).
		WithCacheDir(e.Embedding.CacheDir)
	if e.Embedding.BaseURL != "" {
		embedding = embedding.WithBaseURL(e.Embedding.BaseURL)
	}
	if e.Embedding.APIKey != "" {
		embedding = embedding.WithAPIKey(e.Embedding.APIKey)
	}
	cfg = cfg.Apply(WithEmbeddingConfig(embedding))

	return cfg
}

// RateWindow returns the configured rate-limit window as a duration.
func (s SummaryEnv) RateWindow() time.Duration {
	if s.RateLimitWindow <= 0 {
		return DefaultRateLimitWindow
	}
	return time.Duration(s.RateLimitWindow * float64(time.Second))
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
