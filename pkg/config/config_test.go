package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/alphacouncil/pkg/adapter"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, names := range envKeys {
		for _, n := range names {
			t.Setenv(n, "")
		}
	}
}

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}

func TestLoadDefaults(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	t.Chdir(t.TempDir())
	clearKeyEnv(t)

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionTTL)
	assert.Equal(t, 1024, cfg.Server.MaxSessions)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.Market.Timeout)
	assert.True(t, cfg.LLM.GeminiWebSearch)
	assert.Equal(t, "You are a professional financial analysis assistant.", cfg.LLM.SystemPrompt)
	assert.Empty(t, cfg.DefaultCredentials())
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearKeyEnv(t)

	path := filepath.Join(t.TempDir(), "alphacouncil.yaml")
	data := []byte(`server:
  port: 8080
log:
  level: debug
  format: json
api_keys:
  deepseek: file-deepseek
  qwen: file-qwen
llm:
  gemini_web_search: false
  base_urls:
    deepseek: http://localhost:9999
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	t.Setenv("DEEPSEEK_API_KEY", "env-deepseek")
	t.Setenv("GOOGLE_API_KEY", "env-google")
	t.Setenv("PORT", "4000")

	cfg, err := NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.LLM.GeminiWebSearch)

	keys := cfg.DefaultCredentials()
	assert.Equal(t, "env-deepseek", keys["deepseek"])
	assert.Equal(t, "file-qwen", keys["qwen"])
	assert.Equal(t, "env-google", keys["gemini"])
	assert.True(t, cfg.HasProvider("GEMINI"))
	assert.False(t, cfg.HasProvider("anthropic"))

	assert.Equal(t, map[adapter.Provider]string{adapter.ProviderDeepSeek: "http://localhost:9999"}, cfg.ProviderBaseURLs())
}

func TestLoadFindsProjectFile(t *testing.T) {
	setHomeEnv(t, t.TempDir())
	clearKeyEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alphacouncil.yaml"), []byte("log:\n  level: warn\n"), 0o600))

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.NotEmpty(t, cfg.ConfigFile)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 70000},
		Log:    LogConfig{Level: "loud", Format: "xml"},
		LLM:    LLMConfig{BaseURLs: map[string]string{"llama": "http://x"}},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "llm.base_urls")
}
