package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"KEYSTORE_DRIVER", "DB_PATH", "DATABASE_URL",
	"QDRANT_URL", "QDRANT_API_KEY", "QDRANT_COLLECTION", "VECTOR_SIZE",
	"INDEX_READY_TIMEOUT", "INDEX_POLL_INTERVAL", "INDEX_MAX_VECTORS",
	"EMBEDDING_BASE_URL", "EMBEDDING_MODEL_NAME", "EMBEDDING_API_KEY", "EMBED_THROTTLE",
	"LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY",
	"DEFAULT_RATE_LIMIT", "USAGE_LOG_LIMIT", "FETCH_TIMEOUT", "REQUEST_TIMEOUT",
}

// isolate clears every variable Load reads and moves into a directory without a .env file.
// Empty values are treated as unset by getEnv.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantErr     bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.APIPort != "9000" {
					t.Errorf("APIPort = %q, want 9000", cfg.APIPort)
				}
				if cfg.VectorSize != 1024 {
					t.Errorf("VectorSize = %d, want 1024", cfg.VectorSize)
				}
				if cfg.DefaultRateLimit != 1000 || cfg.UsageLogLimit != 1000 {
					t.Errorf("rate/usage defaults = %d/%d, want 1000/1000", cfg.DefaultRateLimit, cfg.UsageLogLimit)
				}
				if cfg.IndexReadyTimeout != 60*time.Second || cfg.IndexPollInterval != 2*time.Second {
					t.Errorf("index timings = %v/%v", cfg.IndexReadyTimeout, cfg.IndexPollInterval)
				}
				if cfg.EmbedThrottle != 100*time.Millisecond {
					t.Errorf("EmbedThrottle = %v, want 100ms", cfg.EmbedThrottle)
				}
				if cfg.KeyStoreDriver != KeyStoreSQLite {
					t.Errorf("KeyStoreDriver = %q, want sqlite", cfg.KeyStoreDriver)
				}
				if cfg.LogLevel != slog.LevelInfo || cfg.LogFormat != "text" {
					t.Errorf("logging = %v/%q", cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.QdrantURL != "" {
					t.Errorf("QdrantURL = %q, want empty", cfg.QdrantURL)
				}
				if cfg.EmbeddingAPIKey != cfg.LLMAPIKey {
					t.Errorf("EmbeddingAPIKey should default to LLMAPIKey")
				}
			},
		},
		{
			name: "custom values",
			env: map[string]string{
				"LOG_LEVEL":         "debug",
				"LOG_FORMAT":        "JSON",
				"VECTOR_SIZE":       "768",
				"EMBED_THROTTLE":    "0s",
				"QDRANT_URL":        "http://qdrant:6333",
				"EMBEDDING_API_KEY": "embed-key",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.LogLevel != slog.LevelDebug || cfg.LogFormat != "json" {
					t.Errorf("logging = %v/%q", cfg.LogLevel, cfg.LogFormat)
				}
				if cfg.VectorSize != 768 {
					t.Errorf("VectorSize = %d, want 768", cfg.VectorSize)
				}
				if cfg.EmbedThrottle != 0 {
					t.Errorf("EmbedThrottle = %v, want 0", cfg.EmbedThrottle)
				}
				if cfg.EmbeddingAPIKey != "embed-key" {
					t.Errorf("EmbeddingAPIKey = %q", cfg.EmbeddingAPIKey)
				}
			},
		},
		{name: "invalid VECTOR_SIZE", env: map[string]string{"VECTOR_SIZE": "abc"}, wantErr: true},
		{name: "zero VECTOR_SIZE", env: map[string]string{"VECTOR_SIZE": "0"}, wantErr: true},
		{name: "negative DEFAULT_RATE_LIMIT", env: map[string]string{"DEFAULT_RATE_LIMIT": "-5"}, wantErr: true},
		{name: "invalid duration", env: map[string]string{"FETCH_TIMEOUT": "soon"}, wantErr: true},
		{name: "invalid log level", env: map[string]string{"LOG_LEVEL": "loud"}, wantErr: true},
		{name: "invalid log format", env: map[string]string{"LOG_FORMAT": "xml"}, wantErr: true},
		{name: "unknown key store driver", env: map[string]string{"KEYSTORE_DRIVER": "redis"}, wantErr: true},
		{name: "postgres without DATABASE_URL", env: map[string]string{"KEYSTORE_DRIVER": "postgres"}, wantErr: true},
		{
			name: "postgres with DATABASE_URL",
			env: map[string]string{
				"KEYSTORE_DRIVER": "postgres",
				"DATABASE_URL":    "postgres://localhost/keys",
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.KeyStoreDriver != KeyStorePostgres {
					t.Errorf("KeyStoreDriver = %q", cfg.KeyStoreDriver)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolate(t)
	dbPath := filepath.Join(t.TempDir(), "test", "db.db")
	t.Setenv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}
	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("API_PORT=7777\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	// godotenv does not override variables that are already present.
	_ = os.Unsetenv("API_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "7777" {
		t.Errorf("APIPort = %q, want 7777", cfg.APIPort)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue string
		want         string
	}{
		{name: "env var set", value: "set-value", defaultValue: "default", want: "set-value"},
		{name: "empty env var uses default", value: "", defaultValue: "default", want: "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_ENV_VAR", tt.value)
			if got := getEnv("TEST_ENV_VAR", tt.defaultValue); got != tt.want {
				t.Errorf("getEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}
