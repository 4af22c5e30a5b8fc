package app

import (
	"os"
	"reflect"
	"testing"
	"time"
)

var configEnvVars = []string{
	"HTTP_ADDR", "MONGO_URI", "MONGO_DB", "REDIS_URL",
	"LOG_LEVEL", "LOG_FORMAT",
	"FETCH_TIMEOUT_SECONDS", "FETCH_MAX_BYTES", "FALLBACK_TTL_HOURS",
	"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "CORS_ALLOWED_ORIGINS",
	"METRICS_ENABLED", "LOCAL_FILES_ENABLED", "LOCAL_FILE_ROOT",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg := LoadConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"HTTPAddr", cfg.HTTPAddr, ":8080"},
		{"MongoURI", cfg.MongoURI, "mongodb://localhost:27017"},
		{"MongoDatabase", cfg.MongoDatabase, "cineplayer"},
		{"RedisURL", cfg.RedisURL, ""},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFormat", cfg.LogFormat, "text"},
		{"FetchTimeout", cfg.FetchTimeout, 15 * time.Second},
		{"FetchMaxBytes", cfg.FetchMaxBytes, int64(8 << 20)},
		{"FallbackTTL", cfg.FallbackTTL, 24 * time.Hour},
		{"RateLimitRPS", cfg.RateLimitRPS, 100.0},
		{"RateLimitBurst", cfg.RateLimitBurst, 200},
		{"MetricsEnabled", cfg.MetricsEnabled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if cfg.CORSAllowedOrigins != nil {
		t.Errorf("CORSAllowedOrigins: got %v, want nil", cfg.CORSAllowedOrigins)
	}
	if cfg.LocalFilesEnabled || cfg.FileRoot() != "" {
		t.Errorf("local files must be disabled by default, root %q", cfg.FileRoot())
	}
}

func TestConfigFileRoot(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("LOCAL_FILE_ROOT", " /srv/media ")

	if got := LoadConfig().FileRoot(); got != "" {
		t.Fatalf("root without LOCAL_FILES_ENABLED = %q, want empty", got)
	}

	t.Setenv("LOCAL_FILES_ENABLED", "true")
	if got := LoadConfig().FileRoot(); got != "/srv/media" {
		t.Fatalf("FileRoot = %q, want /srv/media", got)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("MONGO_DB", "player")
	t.Setenv("REDIS_URL", " redis://cache:6379/1 ")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "3")
	t.Setenv("FALLBACK_TTL_HOURS", "0")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("METRICS_ENABLED", "off")

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":9000" || cfg.MongoDatabase != "player" {
		t.Fatalf("unexpected addr/db: %+v", cfg)
	}
	if cfg.RedisURL != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.LogLevel != "debug" || cfg.LogFormat != "json" {
		t.Errorf("log settings = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.FallbackTTL != 0 {
		t.Errorf("FallbackTTL = %v", cfg.FallbackTTL)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if want := []string{"https://a.example", "https://b.example"}; !reflect.DeepEqual(cfg.CORSAllowedOrigins, want) {
		t.Errorf("CORSAllowedOrigins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	if cfg.MetricsEnabled {
		t.Errorf("MetricsEnabled should be false")
	}
}

func TestLoadConfigInvalidNumbersFallBack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("FETCH_MAX_BYTES", "-1")
	t.Setenv("RATE_LIMIT_RPS", "fast")
	t.Setenv("RATE_LIMIT_BURST", "many")
	t.Setenv("METRICS_ENABLED", "maybe")

	cfg := LoadConfig()
	if cfg.FetchMaxBytes != 8<<20 {
		t.Errorf("FetchMaxBytes = %d", cfg.FetchMaxBytes)
	}
	if cfg.RateLimitRPS != 100 || cfg.RateLimitBurst != 200 {
		t.Errorf("rate limit = %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.MetricsEnabled {
		t.Errorf("MetricsEnabled should keep its default")
	}
}
