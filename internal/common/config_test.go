package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "badger", cfg.Storage.Type)
	assert.Equal(t, 10*time.Minute, cfg.Answer.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.Answer.StateTTL)
	assert.Equal(t, 3, cfg.Delivery.MaxAttempts)
	assert.Equal(t, LLMProviderGemini, cfg.LLM.DefaultProvider)
	assert.Empty(t, cfg.Delivery.FallbackProvider)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFilesOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "elo.toml")
	content := `
[server]
port = 9090
host = "0.0.0.0"

[storage]
type = "memory"

[answer]
cache_ttl = "30s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.Equal(t, 30*time.Second, cfg.Answer.CacheTTL)
	// untouched sections keep defaults
	assert.Equal(t, 3, cfg.Delivery.MaxAttempts)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.toml")
	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 9001\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 9002\n"), 0644))

	cfg, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, 9002, cfg.Server.Port)
}

func TestValidateRejectsConsoleFallback(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Delivery.FallbackProvider = "console"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "console")
}

func TestValidateRejectsUnknownStorageType(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Type = "postgres"

	assert.Error(t, cfg.Validate())
}

func TestEnvOverridesApply(t *testing.T) {
	t.Setenv("ELO_SERVER_PORT", "7777")
	t.Setenv("ELO_LLM_DEFAULT_PROVIDER", "claude")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, LLMProviderClaude, cfg.LLM.DefaultProvider)
}
