package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	HTTPHost        string
	HTTPPort        int
	RateLimitPerSec int

	RedisURL      string
	DatabaseURL   string
	AttemptTTLSec int

	PromptDir      string
	RenderPieceDir string
}

func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSec) * time.Second
}

func (c *AppConfig) AttemptTTL() time.Duration {
	return time.Duration(c.AttemptTTLSec) * time.Second
}

func (c *AppConfig) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTPHost, c.HTTPPort)
}

var defaults = map[string]any{
	"OPENAI_BASE_URL":    "https://api.openai.com/v1",
	"LLM_MODEL":          "gpt-3.5-turbo-instruct",
	"LLM_MAX_TOKENS":     50,
	"LLM_TEMPERATURE":    0.5,
	"LLM_TIMEOUT_SEC":    30,
	"HTTP_HOST":          "0.0.0.0",
	"HTTP_PORT":          10000,
	"RATE_LIMIT_PER_SEC": 10,
	"ATTEMPT_TTL_SEC":    86400,
}

var keys = []string{
	"OPENAI_API_KEY", "OPENAI_BASE_URL", "LLM_MODEL", "LLM_MAX_TOKENS",
	"LLM_TEMPERATURE", "LLM_TIMEOUT_SEC", "HTTP_HOST", "HTTP_PORT",
	"RATE_LIMIT_PER_SEC", "REDIS_URL", "DATABASE_URL", "ATTEMPT_TTL_SEC",
	"PROMPT_DIR", "RENDER_PIECE_DIR",
}

// Load reads the environment, optionally layered over CONFIG_FILE
// (any format viper understands, including .env).
func Load() (*AppConfig, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &AppConfig{
		OpenAIAPIKey:   str(v, "OPENAI_API_KEY"),
		OpenAIBaseURL:  str(v, "OPENAI_BASE_URL"),
		LLMModel:       str(v, "LLM_MODEL"),
		HTTPHost:       str(v, "HTTP_HOST"),
		RedisURL:       str(v, "REDIS_URL"),
		DatabaseURL:    str(v, "DATABASE_URL"),
		PromptDir:      str(v, "PROMPT_DIR"),
		RenderPieceDir: str(v, "RENDER_PIECE_DIR"),
	}
	cfg.LLMMaxTokens = positiveInt(v, "LLM_MAX_TOKENS")
	cfg.LLMTimeoutSec = positiveInt(v, "LLM_TIMEOUT_SEC")
	cfg.HTTPPort = positiveInt(v, "HTTP_PORT")
	cfg.RateLimitPerSec = positiveInt(v, "RATE_LIMIT_PER_SEC")
	cfg.AttemptTTLSec = positiveInt(v, "ATTEMPT_TTL_SEC")

	cfg.LLMTemperature = defaults["LLM_TEMPERATURE"].(float64)
	if f, err := strconv.ParseFloat(str(v, "LLM_TEMPERATURE"), 64); err == nil && f >= 0 && f <= 2 {
		cfg.LLMTemperature = f
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	if cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("HTTP_PORT out of range: %d", cfg.HTTPPort)
	}
	return cfg, nil
}

func str(v *viper.Viper, key string) string {
	return strings.TrimSpace(v.GetString(key))
}

// positiveInt falls back to the default when the value is not a positive
// integer.
func positiveInt(v *viper.Viper, key string) int {
	if n, err := strconv.Atoi(str(v, key)); err == nil && n > 0 {
		return n
	}
	return defaults[key].(int)
}
