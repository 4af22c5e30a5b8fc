package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr           string
	MongoURI           string
	MongoDatabase      string
	RedisURL           string // empty = in-process fallback cache
	LogLevel           string
	LogFormat          string
	FetchTimeout       time.Duration
	FetchMaxBytes      int64
	FallbackTTL        time.Duration // 0 = keep forever
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string // empty = any origin
	MetricsEnabled     bool
	LocalFilesEnabled  bool   // allow file:// media URLs
	LocalFileRoot      string // file:// URLs must point inside this directory
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DB", "cineplayer"),
		RedisURL:           strings.TrimSpace(os.Getenv("REDIS_URL")),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
		FetchTimeout:       time.Duration(getEnvInt64("FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
		FetchMaxBytes:      getEnvInt64("FETCH_MAX_BYTES", 8<<20),
		FallbackTTL:        time.Duration(getEnvInt64("FALLBACK_TTL_HOURS", 24)) * time.Hour,
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 100),
		RateLimitBurst:     int(getEnvInt64("RATE_LIMIT_BURST", 200)),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		LocalFilesEnabled:  getEnvBool("LOCAL_FILES_ENABLED", false),
		LocalFileRoot:      strings.TrimSpace(os.Getenv("LOCAL_FILE_ROOT")),
	}
}

// FileRoot is the directory file:// URLs are served from, or "" when local
// files are disabled or no root is set.
func (c Config) FileRoot() string {
	if !c.LocalFilesEnabled {
		return ""
	}
	return c.LocalFileRoot
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
