package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the .memdocs.yml project configuration schema.
type FileConfig struct {
	Version int `yaml:"version"`

	Policy struct {
		DefaultScope         string   `yaml:"default_scope"`
		MaxFilesWithoutForce int      `yaml:"max_files_without_force"`
		EscalateOn           []string `yaml:"escalate_on"`
		SecurityPaths        []string `yaml:"security_paths"`
	} `yaml:"policy"`

	AI struct {
		Provider  string `yaml:"provider"`
		Model     string `yaml:"model"`
		MaxTokens int    `yaml:"max_tokens"`
	} `yaml:"ai"`

	Privacy struct {
		PHIMode    string   `yaml:"phi_mode"`
		ScrubTypes []string `yaml:"scrub_types"`
	} `yaml:"privacy"`

	Embedding struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"embedding"`
}

// ErrConfigNotFound indicates the project configuration file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// LoadFile reads and validates a .memdocs.yml file.
func LoadFile(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return FileConfig{}, fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config file: %w", err)
	}

	if fc.Version != ConfigVersion {
		return FileConfig{}, fmt.Errorf("unsupported config version %d (expected %d)", fc.Version, ConfigVersion)
	}

	return fc, nil
}

// LoadFileIfPresent loads a .memdocs.yml file, returning ok=false when the
// file does not exist.
func LoadFileIfPresent(path string) (FileConfig, bool, error) {
	fc, err := LoadFile(path)
	if errors.Is(err, ErrConfigNotFound) {
		return FileConfig{}, false, nil
	}
	if err != nil {
		return FileConfig{}, false, err
	}
	return fc, true, nil
}

// Apply merges the file configuration into an AppConfig. Environment
// configuration should be applied on top of the result.
func (fc FileConfig) Apply(cfg AppConfig) AppConfig {
	policy := cfg.Policy()
	if fc.Policy.DefaultScope != "" {
		policy = policy.WithDefaultLevel(fc.Policy.DefaultScope)
	}
	if fc.Policy.MaxFilesWithoutForce > 0 {
		policy = policy.WithMaxFiles(fc.Policy.MaxFilesWithoutForce)
	}
	if len(fc.Policy.EscalateOn) > 0 {
		policy = policy.WithEscalateOn(fc.Policy.EscalateOn)
	}
	if len(fc.Policy.SecurityPaths) > 0 {
		policy = policy.WithSecurityPaths(fc.Policy.SecurityPaths)
	}
	cfg = cfg.Apply(WithPolicyConfig(policy))

	summary := cfg.Summary()
	if fc.AI.Provider != "" {
		summary = summary.WithProvider(fc.AI.Provider)
	}
	if fc.AI.Model != "" {
		summary = summary.WithModel(fc.AI.Model)
	}
	if fc.AI.MaxTokens > 0 {
		summary = summary.WithMaxTokens(fc.AI.MaxTokens)
	}
	cfg = cfg.Apply(WithSummaryConfig(summary))

	privacy := cfg.Privacy()
	if fc.Privacy.PHIMode != "" {
		privacy = privacy.WithMode(PrivacyMode(fc.Privacy.PHIMode))
	}
	if len(fc.Privacy.ScrubTypes) > 0 {
		privacy = privacy.WithScrubTypes(fc.Privacy.ScrubTypes)
	}
	cfg = cfg.Apply(WithPrivacyConfig(privacy))

	embedding := cfg.Embedding()
	if fc.Embedding.Provider != "" {
		embedding = embedding.WithProvider(fc.Embedding.Provider)
	}
	if fc.Embedding.Model != "" {
		embedding = embedding.WithModel(fc.Embedding.Model)
	}
	cfg = cfg.Apply(WithEmbeddingConfig(embedding))

	return cfg
}
