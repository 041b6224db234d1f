// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost               = "127.0.0.1"
	DefaultPort               = 7910
	DefaultLogLevel           = "INFO"
	DefaultDataDir            = ".memdocs"
	DefaultDocsSubdir         = "docs"
	DefaultMemorySubdir       = "memory"
	DefaultAuditFile          = "audit.log"
	DefaultDatabaseFile       = "memdocs.db"
	DefaultConfigFile         = ".memdocs.yml"
	DefaultGitProvider        = "gogit"
	DefaultMaxFilesInScope    = 150
	DefaultRepoWarnFileCount  = 100
	DefaultChunkMaxTokens     = 512
	DefaultChunkOverlap       = 50
	DefaultQueryK             = 5
	DefaultEmbeddingModel     = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultEmbeddingDimension = 384
	DefaultEmbeddingBatch     = 32
	DefaultSummaryProvider    = "anthropic"
	DefaultSummaryModel       = "claude-sonnet-4-5-20250929"
	DefaultSummaryMaxTokens   = 4096
	MinSummaryMaxTokens       = 1024
	MaxSummaryMaxTokens       = 200000
	DefaultRateLimitCalls     = 50
	DefaultRateLimitWindow    = time.Hour
)

// ConfigVersion is the only supported .memdocs.yml schema version.
const ConfigVersion = 1

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// PrivacyMode controls how aggressively generated text is scrubbed.
type PrivacyMode string

// PrivacyMode values.
const (
	PrivacyStrict   PrivacyMode = "strict"
	PrivacyStandard PrivacyMode = "standard"
	PrivacyOff      PrivacyMode = "off"
)

// Escalation trigger names accepted in policy configuration.
const (
	TriggerSecurityPaths = "security_sensitive_paths"
	TriggerCrossModule   = "cross_module_changes"
	TriggerPublicAPI     = "public_api_signatures"
)

// PolicyConfig configures scope determination and escalation.
type PolicyConfig struct {
	defaultLevel  string
	maxFiles      int
	escalateOn    []string
	securityPaths []string
}

// NewPolicyConfig creates a PolicyConfig with defaults.
func NewPolicyConfig() PolicyConfig {
	return PolicyConfig{
		defaultLevel: "file",
		maxFiles:     DefaultMaxFilesInScope,
		escalateOn: []string{
			TriggerSecurityPaths,
			TriggerCrossModule,
			TriggerPublicAPI,
		},
		securityPaths: []string{
			"**/auth/**",
			"**/security/**",
			"**/secrets/**",
			"**/crypto/**",
			"**/credentials/**",
		},
	}
}

// DefaultLevel returns the default scope level name.
func (p PolicyConfig) DefaultLevel() string { return p.defaultLevel }

// MaxFiles returns the file-count ceiling enforced without --force.
func (p PolicyConfig) MaxFiles() int { return p.maxFiles }

// EscalateOn returns the enabled escalation trigger names.
func (p PolicyConfig) EscalateOn() []string {
	triggers := make([]string, len(p.escalateOn))
	copy(triggers, p.escalateOn)
	return triggers
}

// SecurityPaths returns the glob patterns marking security-sensitive paths.
func (p PolicyConfig) SecurityPaths() []string {
	paths := make([]string, len(p.securityPaths))
	copy(paths, p.securityPaths)
	return paths
}

// WithDefaultLevel returns a new config with the specified default scope
// level. Unknown levels are ignored.
func (p PolicyConfig) WithDefaultLevel(level string) PolicyConfig {
	switch level {
	case "file", "module", "repo":
		p.defaultLevel = level
	}
	return p
}

// WithMaxFiles returns a new config with the specified file ceiling.
func (p PolicyConfig) WithMaxFiles(n int) PolicyConfig {
	if n > 0 {
		p.maxFiles = n
	}
	return p
}

// WithEscalateOn returns a new config with the specified triggers.
func (p PolicyConfig) WithEscalateOn(triggers []string) PolicyConfig {
	p.escalateOn = make([]string, len(triggers))
	copy(p.escalateOn, triggers)
	return p
}

// WithSecurityPaths returns a new config with the specified glob patterns.
func (p PolicyConfig) WithSecurityPaths(patterns []string) PolicyConfig {
	p.securityPaths = make([]string, len(patterns))
	copy(p.securityPaths, patterns)
	return p
}

// SummaryConfig configures the LLM summarization provider.
type SummaryConfig struct {
	provider  string
	model     string
	maxTokens int
}

// NewSummaryConfig creates a SummaryConfig with defaults.
func NewSummaryConfig() SummaryConfig {
	return SummaryConfig{
		provider:  DefaultSummaryProvider,
		model:     DefaultSummaryModel,
		maxTokens: DefaultSummaryMaxTokens,
	}
}

// Provider returns the summarization provider name.
func (s SummaryConfig) Provider() string { return s.provider }

// Model returns the model identifier.
func (s SummaryConfig) Model() string { return s.model }

// MaxTokens returns the response token limit.
func (s SummaryConfig) MaxTokens() int { return s.maxTokens }

// WithProvider returns a new config with the specified provider.
func (s SummaryConfig) WithProvider(provider string) SummaryConfig {
	if provider != "" {
		s.provider = provider
	}
	return s
}

// WithModel returns a new config with the specified model.
func (s SummaryConfig) WithModel(model string) SummaryConfig {
	if model != "" {
		s.model = model
	}
	return s
}

// WithMaxTokens returns a new config with the specified token limit.
func (s SummaryConfig) WithMaxTokens(n int) SummaryConfig {
	if n > 0 {
		s.maxTokens = n
	}
	return s
}

// Validate checks the summary configuration bounds.
func (s SummaryConfig) Validate() error {
	if s.provider != "anthropic" {
		return fmt.Errorf("unsupported summary provider: %s", s.provider)
	}
	if !strings.HasPrefix(s.model, "claude-") {
		return fmt.Errorf("invalid model name: %s", s.model)
	}
	if s.maxTokens < MinSummaryMaxTokens || s.maxTokens > MaxSummaryMaxTokens {
		return fmt.Errorf("max_tokens %d out of range [%d, %d]", s.maxTokens, MinSummaryMaxTokens, MaxSummaryMaxTokens)
	}
	return nil
}

// PrivacyConfig configures PII scrubbing of generated output.
type PrivacyConfig struct {
	mode       PrivacyMode
	scrubTypes []string
}

// NewPrivacyConfig creates a PrivacyConfig with defaults.
func NewPrivacyConfig() PrivacyConfig {
	return PrivacyConfig{
		mode:       PrivacyStandard,
		scrubTypes: []string{"email", "phone", "ssn", "api_key"},
	}
}

// Mode returns the privacy mode.
func (p PrivacyConfig) Mode() PrivacyMode { return p.mode }

// ScrubTypes returns the enabled detector names.
func (p PrivacyConfig) ScrubTypes() []string {
	types := make([]string, len(p.scrubTypes))
	copy(types, p.scrubTypes)
	return types
}

// WithMode returns a new config with the specified mode.
func (p PrivacyConfig) WithMode(mode PrivacyMode) PrivacyConfig {
	switch mode {
	case PrivacyStrict, PrivacyStandard, PrivacyOff:
		p.mode = mode
	}
	return p
}

// WithScrubTypes returns a new config with the specified detectors.
func (p PrivacyConfig) WithScrubTypes(types []string) PrivacyConfig {
	p.scrubTypes = make([]string, len(types))
	copy(p.scrubTypes, types)
	return p
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	provider  string
	model     string
	baseURL   string
	apiKey    string
	dimension int
	batchSize int
	cacheDir  string
}

// NewEmbeddingConfig creates an EmbeddingConfig with defaults.
func NewEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		provider:  "local",
		model:     DefaultEmbeddingModel,
		dimension: DefaultEmbeddingDimension,
		batchSize: DefaultEmbeddingBatch,
		cacheDir:  DefaultModelCacheDir(),
	}
}

// Provider returns the embedding provider name (local or openai).
func (e EmbeddingConfig) Provider() string { return e.provider }

// Model returns the embedding model identifier.
func (e EmbeddingConfig) Model() string { return e.model }

// BaseURL returns the remote endpoint base URL.
func (e EmbeddingConfig) BaseURL() string { return e.baseURL }

// APIKey returns the remote endpoint API key.
func (e EmbeddingConfig) APIKey() string { return e.apiKey }

// Dimension returns the embedding vector dimension.
func (e EmbeddingConfig) Dimension() int { return e.dimension }

// BatchSize returns the embedding batch size.
func (e EmbeddingConfig) BatchSize() int { return e.batchSize }

// CacheDir returns the local model cache directory.
func (e EmbeddingConfig) CacheDir() string { return e.cacheDir }

// IsRemote returns true when a remote embedding endpoint is configured.
func (e EmbeddingConfig) IsRemote() bool {
	return e.provider == "openai" && e.apiKey != ""
}

// WithProvider returns a new config with the specified provider.
func (e EmbeddingConfig) WithProvider(provider string) EmbeddingConfig {
	if provider != "" {
		e.provider = provider
	}
	return e
}

// WithModel returns a new config with the specified model.
func (e EmbeddingConfig) WithModel(model string) EmbeddingConfig {
	if model != "" {
		e.model = model
	}
	return e
}

// WithBaseURL returns a new config with the specified base URL.
func (e EmbeddingConfig) WithBaseURL(url string) EmbeddingConfig {
	e.baseURL = url
	return e
}

// WithAPIKey returns a new config with the specified API key.
func (e EmbeddingConfig) WithAPIKey(key string) EmbeddingConfig {
	e.apiKey = key
	return e
}

// WithDimension returns a new config with the specified dimension.
func (e EmbeddingConfig) WithDimension(n int) EmbeddingConfig {
	if n > 0 {
		e.dimension = n
	}
	return e
}

// WithBatchSize returns a new config with the specified batch size.
func (e EmbeddingConfig) WithBatchSize(n int) EmbeddingConfig {
	if n > 0 {
		e.batchSize = n
	}
	return e
}

// WithCacheDir returns a new config with the specified cache directory.
func (e EmbeddingConfig) WithCacheDir(dir string) EmbeddingConfig {
	if dir != "" {
		e.cacheDir = dir
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host            string
	port            int
	repoPath        string
	dataDir         string
	dbURL           string
	logLevel        string
	logFormat       LogFormat
	gitProvider     string
	apiKeys         []string
	anthropicAPIKey string
	httpCacheDir    string
	policy          PolicyConfig
	summary         SummaryConfig
	privacy         PrivacyConfig
	embedding       EmbeddingConfig
}

// DefaultModelCacheDir returns the shared model cache directory.
func DefaultModelCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DefaultDataDir, "cache")
	}
	return filepath.Join(home, ".cache", "memdocs")
}

// NewAppConfig creates an AppConfig with defaults. State lives under
// .memdocs/ inside the repository being reviewed.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:        DefaultHost,
		port:        DefaultPort,
		repoPath:    ".",
		dataDir:     DefaultDataDir,
		dbURL:       "sqlite:///" + filepath.Join(DefaultDataDir, DefaultDatabaseFile),
		logLevel:    DefaultLogLevel,
		logFormat:   LogFormatPretty,
		gitProvider: DefaultGitProvider,
		apiKeys:     []string{},
		policy:      NewPolicyConfig(),
		summary:     NewSummaryConfig(),
		privacy:     NewPrivacyConfig(),
		embedding:   NewEmbeddingConfig(),
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// RepoPath returns the repository under review.
func (c AppConfig) RepoPath() string { return c.repoPath }

// DataDir returns the per-repository state directory.
func (c AppConfig) DataDir() string { return c.dataDir }

// DocsDir returns the generated documentation directory.
func (c AppConfig) DocsDir() string {
	return filepath.Join(c.dataDir, DefaultDocsSubdir)
}

// MemoryDir returns the vector memory directory.
func (c AppConfig) MemoryDir() string {
	return filepath.Join(c.dataDir, DefaultMemorySubdir)
}

// AuditPath returns the privacy audit log path.
func (c AppConfig) AuditPath() string {
	return filepath.Join(c.dataDir, DefaultAuditFile)
}

// DBURL returns the catalog database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// GitProvider returns the git adapter name (gogit or gitea).
func (c AppConfig) GitProvider() string { return c.gitProvider }

// APIKeys returns the configured HTTP API keys.
func (c AppConfig) APIKeys() []string {
	keys := make([]string, len(c.apiKeys))
	copy(keys, c.apiKeys)
	return keys
}

// AnthropicAPIKey returns the summarization API key.
func (c AppConfig) AnthropicAPIKey() string { return c.anthropicAPIKey }

// HTTPCacheDir returns the directory for caching provider HTTP responses.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// Policy returns the policy configuration.
func (c AppConfig) Policy() PolicyConfig { return c.policy }

// Summary returns the summarization configuration.
func (c AppConfig) Summary() SummaryConfig { return c.summary }

// Privacy returns the privacy configuration.
func (c AppConfig) Privacy() PrivacyConfig { return c.privacy }

// Embedding returns the embedding configuration.
func (c AppConfig) Embedding() EmbeddingConfig { return c.embedding }

// EnsureDataDir creates the state directory tree if it does not exist.
func (c AppConfig) EnsureDataDir() error {
	for _, dir := range []string{c.dataDir, c.DocsDir(), c.MemoryDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithRepoPath sets the repository under review.
func WithRepoPath(path string) AppConfigOption {
	return func(c *AppConfig) { c.repoPath = path }
}

// WithDataDir sets the state directory and moves the default database with it.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		c.dataDir = dir
		if c.dbURL == "" || strings.Contains(c.dbURL, DefaultDatabaseFile) {
			c.dbURL = "sqlite:///" + filepath.Join(dir, DefaultDatabaseFile)
		}
	}
}

// WithDBURL sets the catalog database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithGitProvider sets the git adapter name.
func WithGitProvider(provider string) AppConfigOption {
	return func(c *AppConfig) { c.gitProvider = provider }
}

// WithAPIKeys sets the HTTP API keys.
func WithAPIKeys(keys []string) AppConfigOption {
	return func(c *AppConfig) {
		c.apiKeys = make([]string, len(keys))
		copy(c.apiKeys, keys)
	}
}

// WithAnthropicAPIKey sets the summarization API key.
func WithAnthropicAPIKey(key string) AppConfigOption {
	return func(c *AppConfig) { c.anthropicAPIKey = key }
}

// WithHTTPCacheDir sets the provider HTTP cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithPolicyConfig sets the policy configuration.
func WithPolicyConfig(p PolicyConfig) AppConfigOption {
	return func(c *AppConfig) { c.policy = p }
}

// WithSummaryConfig sets the summarization configuration.
func WithSummaryConfig(s SummaryConfig) AppConfigOption {
	return func(c *AppConfig) { c.summary = s }
}

// WithPrivacyConfig sets the privacy configuration.
func WithPrivacyConfig(p PrivacyConfig) AppConfigOption {
	return func(c *AppConfig) { c.privacy = p }
}

// WithEmbeddingConfig sets the embedding configuration.
func WithEmbeddingConfig(e EmbeddingConfig) AppConfigOption {
	return func(c *AppConfig) { c.embedding = e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes describing the configuration.
// Secrets are masked.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("repo_path", c.repoPath),
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("log_level", c.logLevel),
		slog.String("git_provider", c.gitProvider),
		slog.String("summary_model", c.summary.Model()),
		slog.String("anthropic_api_key", maskKey(c.anthropicAPIKey)),
		slog.String("embedding_provider", c.embedding.Provider()),
		slog.String("embedding_model", c.embedding.Model()),
		slog.Int("embedding_dimension", c.embedding.Dimension()),
		slog.String("privacy_mode", string(c.privacy.Mode())),
		slog.Int("api_keys_count", len(c.apiKeys)),
	}
}

func (c AppConfig) maskedDBURL() string {
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "***"
	}
	return "***" + key[len(key)-4:]
}

// ParseAPIKeys parses a comma-separated string of API keys.
func ParseAPIKeys(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
