package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Discord Bot (optional: without a token only the web API runs)
	DiscordToken string

	// Database
	DatabaseURL string

	// Intent extraction (OpenRouter-compatible chat completions)
	OpenRouterAPIKey string
	LLMBaseURL       string
	LLMModel         string
	LLMTimeout       time.Duration

	// Voice note transcription (optional)
	OpenAIAPIKey string

	// Web Server
	WebBind string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg := &Config{
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		LLMBaseURL:       getEnvDefault("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:         getEnvDefault("LLM_MODEL", "google/gemini-2.0-flash-exp"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		WebBind:          getEnvDefault("WEB_BIND", "0.0.0.0:3000"),
	}

	timeoutSecs, err := strconv.Atoi(getEnvDefault("LLM_TIMEOUT_SECONDS", "30"))
	if err != nil || timeoutSecs <= 0 {
		return nil, fmt.Errorf("LLM_TIMEOUT_SECONDS must be a positive integer")
	}
	cfg.LLMTimeout = time.Duration(timeoutSecs) * time.Second

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	return cfg, nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
