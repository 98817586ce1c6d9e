// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting shared by the binaries.
type Config struct {
	// HTTP server
	Port        string
	CORSOrigins []string

	// Database
	DatabaseURL string
	DBLogSQL    bool

	// AI
	GeminiAPIKey string
	GeminiModel  string

	// Categorization cache
	CacheBackend string
	RedisURL     string
	CacheTTL     time.Duration

	// Advice
	Region                 string
	AdviceDetectDuplicates bool

	// Export sinks
	BigQueryProject  string
	BigQueryDataset  string
	GCSBucket        string
	NotionToken      string
	NotionDatabaseID string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env when present and then the environment.
func Load() *Config {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("GOOGLE_API_KEY", "")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),

		DatabaseURL: getEnv("DATABASE_URL", "finance.db"),
		DBLogSQL:    getEnvBool("DB_LOG_SQL", false),

		GeminiAPIKey: apiKey,
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		CacheBackend: strings.ToLower(getEnv("CACHE_BACKEND", "redis")),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CacheTTL:     getEnvDuration("CACHE_TTL", 12*time.Hour),

		Region:                 strings.ToUpper(getEnv("REGION", "IE")),
		AdviceDetectDuplicates: getEnvBool("ADVICE_DETECT_DUPLICATES", false),

		BigQueryProject:  getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset:  getEnv("BIGQUERY_DATASET", "finance"),
		GCSBucket:        getEnv("GCS_BUCKET", ""),
		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DATABASE_ID", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// Validate returns an error listing every invalid setting.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, "DATABASE_URL cannot be empty")
	}

	switch c.CacheBackend {
	case "redis", "memory", "none":
	default:
		errs = append(errs, fmt.Sprintf("invalid cache backend '%s': must be one of [redis memory none]", c.CacheBackend))
	}
	if c.CacheBackend == "redis" {
		if u, err := url.Parse(c.RedisURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid REDIS_URL '%s': %v", c.RedisURL, err))
		} else if u.Scheme != "redis" && u.Scheme != "rediss" {
			errs = append(errs, fmt.Sprintf("invalid REDIS_URL scheme '%s': must be 'redis' or 'rediss'", u.Scheme))
		}
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// BigQueryEnabled reports whether insights should be exported to BigQuery.
func (c *Config) BigQueryEnabled() bool { return c.BigQueryProject != "" }

// GCSEnabled reports whether insight snapshots should be uploaded to GCS.
func (c *Config) GCSEnabled() bool { return c.GCSBucket != "" }

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
