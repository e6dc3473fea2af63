// Package config provides centralized configuration for the claimdesk server.
// All configurable values are loaded from environment variables with sensible defaults.
package config

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend names.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
	BackendMemory   = "memory"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// StoreBackend selects where the claim collection lives.
	StoreBackend string

	// DataDir holds claims.json for the file backend.
	DataDir string

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string

	// DatabaseURL is the Postgres DSN for the postgres backend.
	DatabaseURL string

	// SnapshotKey names the stored collection in sqlite/postgres.
	SnapshotKey string

	// S3Bucket and S3Key locate the snapshot object for the s3 backend.
	S3Bucket string
	S3Key    string

	// AWSRegion and AWSEndpoint configure the S3 client.
	AWSRegion   string
	AWSEndpoint string

	// LLMProvider selects which LLM backend to use: "openai", "claude", "gemini", "ollama".
	LLMProvider string

	// OpenAIKey is the API key for the OpenAI service.
	OpenAIKey string

	// OpenAIBaseURL allows any OpenAI-compatible endpoint.
	OpenAIBaseURL string

	// OpenAIModel is the model identifier for OpenAI completions.
	OpenAIModel string

	// AnthropicKey is the API key for the Anthropic Claude service.
	AnthropicKey string

	// AnthropicModel is the model identifier for Claude completions.
	AnthropicModel string

	// GeminiKey is the API key for the Google Gemini service.
	GeminiKey string

	// GeminiModel is the model identifier for Gemini completions.
	GeminiModel string

	// OllamaURL is the base URL for the local Ollama server.
	OllamaURL string

	// OllamaModel is the model identifier for Ollama completions.
	OllamaModel string

	// HTTPTimeout is the timeout for outgoing HTTP requests (extract, LLM).
	HTTPTimeout time.Duration

	// MaxTextLength is the maximum number of runes kept from an extracted page.
	MaxTextLength int

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
}

// Load reads configuration from environment variables, applying defaults.
// Values in .env.local fill in anything the real environment leaves unset.
func Load() Config {
	loadEnvFile(".env.local")
	return Config{
		Port:           envOr("PORT", "8080"),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		StoreBackend:   envOr("STORE_BACKEND", BackendFile),
		DataDir:        envOr("DATA_DIR", ".data"),
		SQLitePath:     envOr("SQLITE_PATH", "claimdesk.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SnapshotKey:    envOr("SNAPSHOT_KEY", "claimdesk:claims:store:v1"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Key:          envOr("S3_KEY", "claims/claims.json"),
		AWSRegion:      envOr("AWS_REGION", "us-east-1"),
		AWSEndpoint:    os.Getenv("AWS_ENDPOINT_URL"),
		LLMProvider:    envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    envOr("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel: envOr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaURL:      envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:    envOr("OLLAMA_MODEL", "llama3"),
		HTTPTimeout:    envDuration("HTTP_TIMEOUT", 60*time.Second),
		MaxTextLength:  envInt("MAX_TEXT_LENGTH", 15000),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
	}
}

// UseStubs returns true when no LLM API key is configured for the selected provider.
func (c Config) UseStubs() bool {
	switch c.LLMProvider {
	case "claude":
		return c.AnthropicKey == ""
	case "gemini":
		return c.GeminiKey == ""
	case "ollama":
		return false // Ollama runs locally, no key needed
	default:
		return c.OpenAIKey == ""
	}
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadEnvFile sets variables from a KEY=VALUE file without overriding
// variables already present in the environment. A missing file is ignored.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = unquote(strings.TrimSpace(value))
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, value)
	}
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
