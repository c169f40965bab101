package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Gemini   GeminiConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Qdrant   QdrantConfig
	Archive  ArchiveConfig
	Events   EventsConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port    string
	Env     string
	LogJSON bool
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	EmbedModel  string
	Temperature float32
	Timeout     time.Duration
}

type StorageConfig struct {
	UploadPath          string
	MaxFileSize         int64
	DeleteAfterAnalysis bool
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type QdrantConfig struct {
	Enabled    bool
	URL        string
	APIKey     string
	Collection string
}

// ArchiveConfig points at an S3-compatible bucket. An empty Bucket disables archiving.
type ArchiveConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// EventsConfig points at a RabbitMQ broker. An empty URL disables publishing.
type EventsConfig struct {
	URL      string
	Exchange string
}

type WorkerConfig struct {
	Concurrency  int
	PollInterval time.Duration
	// StaleAfter is how long a row may sit in processing before the worker gives up on it.
	StaleAfter time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using environment and default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8000"),
			Env:     getEnv("ENV", "development"),
			LogJSON: getEnvAsBool("LOG_JSON", false),
		},
		Gemini: GeminiConfig{
			APIKey:      getEnv("GEMINI_API_KEY", ""),
			Model:       getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			EmbedModel:  getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			Temperature: getEnvAsFloat32("GEMINI_TEMPERATURE", 1.0),
			Timeout:     getEnvAsDuration("GEMINI_TIMEOUT", "60s"),
		},
		Storage: StorageConfig{
			UploadPath:          getEnv("UPLOAD_PATH", "./uploads"),
			MaxFileSize:         getEnvAsInt64("MAX_FILE_SIZE", 10485760),
			DeleteAfterAnalysis: getEnvAsBool("DELETE_AFTER_ANALYSIS", false),
		},
		Database: DatabaseConfig{
			Enabled:  getEnvAsBool("DATABASE_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ats_matcher"),
		},
		Qdrant: QdrantConfig{
			Enabled:    getEnvAsBool("RAG_ENABLED", false),
			URL:        getEnv("QDRANT_URL", "http://localhost:6334"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "ats_guidelines"),
		},
		Archive: ArchiveConfig{
			Bucket:    getEnv("ARCHIVE_BUCKET", ""),
			Endpoint:  getEnv("ARCHIVE_ENDPOINT", ""),
			Region:    getEnv("ARCHIVE_REGION", "auto"),
			AccessKey: getEnv("ARCHIVE_ACCESS_KEY", ""),
			SecretKey: getEnv("ARCHIVE_SECRET_KEY", ""),
		},
		Events: EventsConfig{
			URL:      getEnv("RABBITMQ_URL", ""),
			Exchange: getEnv("EVENTS_EXCHANGE", "analysis_events"),
		},
		Worker: WorkerConfig{
			Concurrency:  getEnvAsInt("WORKER_CONCURRENCY", 2),
			PollInterval: getEnvAsDuration("WORKER_POLL_INTERVAL", "10s"),
			StaleAfter:   getEnvAsDuration("WORKER_STALE_AFTER", "10m"),
		},
	}
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Storage.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Storage.MaxFileSize))
	}
	if c.Worker.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_CONCURRENCY must be positive, got %d", c.Worker.Concurrency))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 32); err == nil {
		return float32(value)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
