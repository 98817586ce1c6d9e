package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "GEMINI_API_KEY", "GOOGLE_API_KEY", "CACHE_BACKEND", "CACHE_TTL", "CORS_ORIGINS", "REGION", "ADVICE_DETECT_DUPLICATES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabaseURL != "finance.db" {
		t.Errorf("DatabaseURL = %q, want finance.db", cfg.DatabaseURL)
	}
	if cfg.CacheBackend != "redis" || cfg.CacheTTL != 12*time.Hour {
		t.Errorf("cache = (%q, %v), want (redis, 12h)", cfg.CacheBackend, cfg.CacheTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.Region != "IE" || cfg.AdviceDetectDuplicates {
		t.Errorf("advice settings = (%q, %v)", cfg.Region, cfg.AdviceDetectDuplicates)
	}
	if cfg.GeminiAPIKey != "" {
		t.Error("expected no API key")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	t.Setenv("CACHE_BACKEND", "Memory")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("ADVICE_DETECT_DUPLICATES", "true")
	t.Setenv("REGION", "uk")

	cfg := Load()
	if cfg.GeminiAPIKey != "google-key" {
		t.Errorf("GeminiAPIKey = %q, want fallback to GOOGLE_API_KEY", cfg.GeminiAPIKey)
	}
	if cfg.CacheBackend != "memory" || cfg.CacheTTL != 30*time.Minute {
		t.Errorf("cache = (%q, %v)", cfg.CacheBackend, cfg.CacheTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if !cfg.AdviceDetectDuplicates || cfg.Region != "UK" {
		t.Errorf("advice settings = (%q, %v)", cfg.Region, cfg.AdviceDetectDuplicates)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Port: "8080", DatabaseURL: "finance.db", CacheBackend: "redis", RedisURL: "redis://localhost:6379/0", CacheTTL: time.Hour}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{"valid", func(c *Config) {}, ""},
		{"non-numeric port", func(c *Config) { c.Port = "abc" }, "invalid port 'abc'"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "must be between 1 and 65535"},
		{"empty database", func(c *Config) { c.DatabaseURL = " " }, "DATABASE_URL cannot be empty"},
		{"unknown backend", func(c *Config) { c.CacheBackend = "memcached" }, "invalid cache backend"},
		{"bad redis scheme", func(c *Config) { c.RedisURL = "http://localhost" }, "invalid REDIS_URL scheme"},
		{"memory ignores redis url", func(c *Config) { c.CacheBackend = "memory"; c.RedisURL = "http://x" }, ""},
		{"zero ttl", func(c *Config) { c.CacheTTL = 0 }, "invalid cache TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("err = %v, want containing %q", err, tt.errorString)
			}
		})
	}
}
