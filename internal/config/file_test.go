package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile_Full(t *testing.T) {
	path := writeConfigFile(t, `version: 1
policy:
  default_scope: module
  max_files_without_force: 75
  escalate_on:
    - security_sensitive_paths
  security_paths:
    - "**/vault/**"
ai:
  provider: anthropic
  model: claude-opus-4-1-20250805
  max_tokens: 8192
privacy:
  phi_mode: strict
  scrub_types:
    - email
    - ssn
embedding:
  provider: local
  model: sentence-transformers/all-MiniLM-L6-v2
`)

	fc, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1, fc.Version)
	assert.Equal(t, "module", fc.Policy.DefaultScope)
	assert.Equal(t, 75, fc.Policy.MaxFilesWithoutForce)
	assert.Equal(t, []string{"security_sensitive_paths"}, fc.Policy.EscalateOn)
	assert.Equal(t, []string{"**/vault/**"}, fc.Policy.SecurityPaths)
	assert.Equal(t, "anthropic", fc.AI.Provider)
	assert.Equal(t, "claude-opus-4-1-20250805", fc.AI.Model)
	assert.Equal(t, 8192, fc.AI.MaxTokens)
	assert.Equal(t, "strict", fc.Privacy.PHIMode)
	assert.Equal(t, []string{"email", "ssn"}, fc.Privacy.ScrubTypes)
	assert.Equal(t, "local", fc.Embedding.Provider)
}

func TestLoadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadFile_UnsupportedVersion(t *testing.T) {
	path := writeConfigFile(t, "version: 2\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version 2")
}

func TestLoadFile_MissingVersion(t *testing.T) {
	path := writeConfigFile(t, "policy:\n  max_files_without_force: 10\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config version 0")
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := writeConfigFile(t, "version: [1\n")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoadFileIfPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultConfigFile)

	_, ok, err := LoadFileIfPresent(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o600))

	fc, ok, err := LoadFileIfPresent(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, fc.Version)
}

func TestFileConfig_Apply(t *testing.T) {
	path := writeConfigFile(t, `version: 1
policy:
  default_scope: repo
  max_files_without_force: 42
ai:
  model: claude-opus-4-1-20250805
privacy:
  phi_mode: "off"
embedding:
  provider: openai
`)

	fc, err := LoadFile(path)
	require.NoError(t, err)

	cfg := fc.Apply(NewAppConfig())

	assert.Equal(t, "repo", cfg.Policy().DefaultLevel())
	assert.Equal(t, 42, cfg.Policy().MaxFiles())
	assert.Equal(t, "claude-opus-4-1-20250805", cfg.Summary().Model())
	assert.Equal(t, PrivacyOff, cfg.Privacy().Mode())
	assert.Equal(t, "openai", cfg.Embedding().Provider())

	// Unset fields keep their defaults
	assert.Equal(t, DefaultSummaryMaxTokens, cfg.Summary().MaxTokens())
	assert.Len(t, cfg.Policy().EscalateOn(), 3)
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnvVars(t)

	repo := t.TempDir()
	content := `version: 1
policy:
  max_files_without_force: 60
ai:
  max_tokens: 2048
`
	require.NoError(t, os.WriteFile(filepath.Join(repo, DefaultConfigFile), []byte(content), 0o600))

	t.Setenv("REPO_PATH", repo)
	t.Setenv("SUMMARY_MAX_TOKENS", "16384")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	// Env beats file, file beats defaults
	assert.Equal(t, 60, cfg.Policy().MaxFiles())
	assert.Equal(t, 16384, cfg.Summary().MaxTokens())
	assert.Equal(t, repo, cfg.RepoPath())
}

func TestLoadConfig_NoFile(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("REPO_PATH", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxFilesInScope, cfg.Policy().MaxFiles())
}
