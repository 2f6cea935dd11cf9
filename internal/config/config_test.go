package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "  ")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	require.Equal(t, "https://api.openai.com/v1", cfg.OpenAIBaseURL)
	require.Equal(t, "gpt-3.5-turbo-instruct", cfg.LLMModel)
	require.Equal(t, 50, cfg.LLMMaxTokens)
	require.Equal(t, 0.5, cfg.LLMTemperature)
	require.Equal(t, 30*time.Second, cfg.LLMTimeout())
	require.Equal(t, "0.0.0.0:10000", cfg.ListenAddr())
	require.Equal(t, 24*time.Hour, cfg.AttemptTTL())
	require.Empty(t, cfg.RedisURL)
	require.Empty(t, cfg.DatabaseURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "local")
	t.Setenv("LLM_MAX_TOKENS", "8")
	t.Setenv("LLM_TEMPERATURE", "0")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PROMPT_DIR", " /etc/prompts ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "local", cfg.LLMModel)
	require.Equal(t, 8, cfg.LLMMaxTokens)
	require.Equal(t, 0.0, cfg.LLMTemperature)
	require.Equal(t, 8080, cfg.HTTPPort)
	require.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	require.Equal(t, "/etc/prompts", cfg.PromptDir)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MAX_TOKENS", "lots")
	t.Setenv("LLM_TIMEOUT_SEC", "-3")
	t.Setenv("LLM_TEMPERATURE", "hot")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 50, cfg.LLMMaxTokens)
	require.Equal(t, 30, cfg.LLMTimeoutSec)
	require.Equal(t, 0.5, cfg.LLMTemperature)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.env")
	require.NoError(t, os.WriteFile(path, []byte("OPENAI_API_KEY=sk-file\nHTTP_PORT=9001\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sk-file", cfg.OpenAIAPIKey)
	require.Equal(t, 9001, cfg.HTTPPort)
}
