package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultModel = "qwen3:8b"

type Config struct {
	// Server
	Port         string
	Env          string
	LogLevel     string
	WriteTimeout time.Duration

	// Ollama
	OllamaHost           string
	DefaultModel         string
	OllamaConcurrentReqs int
	OllamaTimeout        time.Duration

	// CORS
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool

	// Rate limiting (chat endpoint)
	RateLimitPerMinute int
	RedisURL           string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8000"),
		Env:          getEnvOrDefault("ENV", "development"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		WriteTimeout: time.Duration(getEnvAsIntOrDefault("SERVER_WRITE_TIMEOUT_SECONDS", 300)) * time.Second,

		OllamaHost:           normalizeHost(getEnvOrDefault("OLLAMA_HOST", "http://127.0.0.1:11434")),
		DefaultModel:         getEnvOrDefault("DEFAULT_MODEL", DefaultModel),
		OllamaConcurrentReqs: getEnvAsIntOrDefault("OLLAMA_CONCURRENT_REQUESTS", 4),
		OllamaTimeout:        time.Duration(getEnvAsIntOrDefault("OLLAMA_TIMEOUT_SECONDS", 0)) * time.Second,

		CORSAllowedOrigins:   getEnvAsListOrDefault("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getEnvAsListOrDefault("CORS_ALLOWED_METHODS", []string{"*"}),
		CORSAllowedHeaders:   getEnvAsListOrDefault("CORS_ALLOWED_HEADERS", []string{"*"}),
		CORSAllowCredentials: getEnvAsBoolOrDefault("CORS_ALLOW_CREDENTIALS", true),

		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
		RedisURL:           getEnvOrDefault("REDIS_URL", ""),
	}

	if cfg.OllamaConcurrentReqs < 1 {
		cfg.OllamaConcurrentReqs = 1
	}

	return cfg
}

// normalizeHost accepts OLLAMA_HOST in the forms the ollama CLI does
// ("127.0.0.1:11434", "http://host:11434/").
func normalizeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return strings.TrimSuffix(raw, "/")
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
