package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Key store drivers accepted by KEYSTORE_DRIVER.
const (
	KeyStoreSQLite   = "sqlite"
	KeyStorePostgres = "postgres"
	KeyStoreMemory   = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	KeyStoreDriver string
	DBPath         string
	DatabaseURL    string

	QdrantURL         string
	QdrantAPIKey      string
	QdrantCollection  string
	VectorSize        int
	IndexReadyTimeout time.Duration
	IndexPollInterval time.Duration
	IndexMaxVectors   int

	EmbeddingBaseURL   string
	EmbeddingModelName string
	EmbeddingAPIKey    string
	EmbedThrottle      time.Duration

	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	DefaultRateLimit int
	UsageLogLimit    int

	FetchTimeout   time.Duration
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// A .env file in the current directory or up to five parents is loaded first;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		KeyStoreDriver:     strings.ToLower(getEnv("KEYSTORE_DRIVER", KeyStoreSQLite)),
		DBPath:             getEnv("DB_PATH", "./data/learner-feature.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		QdrantURL:          getEnv("QDRANT_URL", ""),
		QdrantAPIKey:       getEnv("QDRANT_API_KEY", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "site_content"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "llama-text-embed-v2"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
	}
	if cfg.EmbeddingAPIKey == "" {
		cfg.EmbeddingAPIKey = cfg.LLMAPIKey
	}

	if cfg.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	switch cfg.KeyStoreDriver {
	case KeyStoreSQLite, KeyStoreMemory:
	case KeyStorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when KEYSTORE_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("KEYSTORE_DRIVER must be one of sqlite, postgres, memory, got %q", cfg.KeyStoreDriver)
	}

	ints := []struct {
		key  string
		def  string
		dest *int
	}{
		{"VECTOR_SIZE", "1024", &cfg.VectorSize},
		{"INDEX_MAX_VECTORS", "10000", &cfg.IndexMaxVectors},
		{"DEFAULT_RATE_LIMIT", "1000", &cfg.DefaultRateLimit},
		{"USAGE_LOG_LIMIT", "1000", &cfg.UsageLogLimit},
	}
	for _, v := range ints {
		n, err := strconv.Atoi(getEnv(v.key, v.def))
		if err != nil {
			return nil, fmt.Errorf("%s must be a valid integer: %w", v.key, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%s must be greater than 0", v.key)
		}
		*v.dest = n
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"INDEX_READY_TIMEOUT", "60s", &cfg.IndexReadyTimeout},
		{"INDEX_POLL_INTERVAL", "2s", &cfg.IndexPollInterval},
		{"EMBED_THROTTLE", "100ms", &cfg.EmbedThrottle},
		{"FETCH_TIMEOUT", "30s", &cfg.FetchTimeout},
		{"REQUEST_TIMEOUT", "120s", &cfg.RequestTimeout},
	}
	for _, v := range durations {
		d, err := time.ParseDuration(getEnv(v.key, v.def))
		if err != nil {
			return nil, fmt.Errorf("%s must be a valid duration: %w", v.key, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("%s must not be negative", v.key)
		}
		*v.dest = d
	}

	if cfg.KeyStoreDriver == KeyStoreSQLite {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
