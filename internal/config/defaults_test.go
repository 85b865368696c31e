package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_RoutingTable(t *testing.T) {
	cfg := Default()
	want := map[string]RouteRow{
		"chat":      {Light: "phi3:3.8b", Medium: "gemma2:9b", Heavy: "llama3.1:8b", NPU: "gemma2:2b"},
		"code":      {Light: "phi3:3.8b", Medium: "deepseek-coder:6.7b", Heavy: "deepseek-coder:33b", NPU: "phi3:3.8b"},
		"reasoning": {Light: "phi3:3.8b", Medium: "gemma2:9b", Heavy: "llama3.1:8b", NPU: "phi3:3.8b"},
	}
	assert.Equal(t, want, cfg.Routing)
	assert.Equal(t, []string{"llama3.1:8b", "gemma2:27b", "deepseek-coder:33b"}, cfg.Models.HeavyTier)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultOllamaURL, cfg.Ollama.BaseURL)
	assert.True(t, cfg.Server.CORS.IsEnabled())
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults_MergesRoutingCells(t *testing.T) {
	cfg := Config{Routing: map[string]RouteRow{
		"code":    {Heavy: "qwen2.5-coder:32b"},
		"summary": {Light: "phi3:3.8b"},
	}}
	cfg.ApplyDefaults()
	assert.Equal(t, "qwen2.5-coder:32b", cfg.Routing["code"].Heavy)
	assert.Equal(t, "deepseek-coder:6.7b", cfg.Routing["code"].Medium)
	assert.Equal(t, "gemma2:9b", cfg.Routing["chat"].Medium)
	// custom categories are kept as written
	assert.Equal(t, RouteRow{Light: "phi3:3.8b"}, cfg.Routing["summary"])
}

func TestApplyDefaults_KeepsExplicitEmptyTierList(t *testing.T) {
	cfg := Config{Models: ModelsConfig{NPUTier: []string{}}}
	cfg.ApplyDefaults()
	assert.Empty(t, cfg.Models.NPUTier)
	assert.Equal(t, []string{"phi3:3.8b"}, cfg.Models.LightTier)
}

func TestCORSDisabledExplicitly(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "server:\n  cors:\n    enabled: false\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	cfg.ApplyDefaults()
	assert.False(t, cfg.Server.CORS.IsEnabled())
}

func TestLoadOrInit_WritesDefaultsWhenAbsent(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "nested", name)
			cfg, created, err := LoadOrInit(p)
			require.NoError(t, err)
			assert.True(t, created)
			assert.Equal(t, Default().Routing, cfg.Routing)

			again, created, err := LoadOrInit(p)
			require.NoError(t, err)
			assert.False(t, created)
			assert.Equal(t, cfg.Routing, again.Routing)
			assert.Equal(t, cfg.Models, again.Models)
			assert.Equal(t, cfg.Personas, again.Personas)
		})
	}
}

func TestLoadOrInit_InvalidBaseURL(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "ollama:\n  base_url: not-a-url\n")
	_, _, err := LoadOrInit(p)
	require.Error(t, err)
}

func TestApplyDefaults_ChatRateBurst(t *testing.T) {
	cfg := Config{Server: ServerConfig{ChatRateLimit: 2.5}}
	cfg.ApplyDefaults()
	assert.Equal(t, 3, cfg.Server.ChatRateBurst)

	off := Config{Server: ServerConfig{ChatRateLimit: -1}}
	off.ApplyDefaults()
	assert.Zero(t, off.Server.ChatRateLimit)
	assert.Zero(t, off.Server.ChatRateBurst)
}
