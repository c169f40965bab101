package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_TIMEOUT", "GEMINI_TEMPERATURE",
		"UPLOAD_PATH", "MAX_FILE_SIZE", "DATABASE_ENABLED", "RAG_ENABLED", "RABBITMQ_URL",
		"ARCHIVE_BUCKET", "WORKER_CONCURRENCY", "WORKER_STALE_AFTER",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Server.Port != "8000" {
		t.Errorf("Server.Port = %q, want 8000", cfg.Server.Port)
	}
	if cfg.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Gemini.Model = %q", cfg.Gemini.Model)
	}
	if cfg.Gemini.APIKey != "" {
		t.Errorf("Gemini.APIKey should have no default, got %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Timeout != 60*time.Second {
		t.Errorf("Gemini.Timeout = %v", cfg.Gemini.Timeout)
	}
	if cfg.Storage.UploadPath != "./uploads" {
		t.Errorf("Storage.UploadPath = %q", cfg.Storage.UploadPath)
	}
	if cfg.Storage.MaxFileSize != 10485760 {
		t.Errorf("Storage.MaxFileSize = %d", cfg.Storage.MaxFileSize)
	}
	if cfg.Database.Enabled || cfg.Qdrant.Enabled {
		t.Error("database and RAG should be disabled by default")
	}
	if cfg.Events.URL != "" || cfg.Archive.Bucket != "" {
		t.Error("events and archive should be disabled by default")
	}
	if cfg.Worker.StaleAfter != 10*time.Minute {
		t.Errorf("Worker.StaleAfter = %v", cfg.Worker.StaleAfter)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("GEMINI_TIMEOUT", "5s")
	t.Setenv("GEMINI_TEMPERATURE", "0.25")
	t.Setenv("MAX_FILE_SIZE", "2048")
	t.Setenv("DATABASE_ENABLED", "true")
	t.Setenv("WORKER_CONCURRENCY", "not-a-number")

	cfg := Load()

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q", cfg.Server.Port)
	}
	if cfg.Gemini.APIKey != "test-key" {
		t.Errorf("Gemini.APIKey = %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Timeout != 5*time.Second {
		t.Errorf("Gemini.Timeout = %v", cfg.Gemini.Timeout)
	}
	if cfg.Gemini.Temperature != 0.25 {
		t.Errorf("Gemini.Temperature = %v", cfg.Gemini.Temperature)
	}
	if cfg.Storage.MaxFileSize != 2048 {
		t.Errorf("Storage.MaxFileSize = %d", cfg.Storage.MaxFileSize)
	}
	if !cfg.Database.Enabled {
		t.Error("Database.Enabled should be true")
	}
	if cfg.Worker.Concurrency != 2 {
		t.Errorf("invalid WORKER_CONCURRENCY should fall back to 2, got %d", cfg.Worker.Concurrency)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing api key", mutate: func(c *Config) { c.Gemini.APIKey = " " }, wantErr: "GEMINI_API_KEY"},
		{name: "zero file size", mutate: func(c *Config) { c.Storage.MaxFileSize = 0 }, wantErr: "MAX_FILE_SIZE"},
		{name: "zero workers", mutate: func(c *Config) { c.Worker.Concurrency = 0 }, wantErr: "WORKER_CONCURRENCY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Gemini:  GeminiConfig{APIKey: "key"},
				Storage: StorageConfig{MaxFileSize: 1024},
				Worker:  WorkerConfig{Concurrency: 1},
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "n"}}
	want := "host=db port=5433 user=u password=p dbname=n sslmode=disable"
	if got := cfg.GetDatabaseDSN(); got != want {
		t.Errorf("GetDatabaseDSN() = %q, want %q", got, want)
	}
}
