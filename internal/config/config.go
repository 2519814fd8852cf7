// Package config reads runtime settings for the catalog service from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GoldAPIKeyEnv is looked up on every upstream fetch, never captured in Config.
const GoldAPIKeyEnv = "GOLD_API_KEY"

type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string

	CatalogPath string
	CatalogDSN  string

	GoldAPIURL     string
	GoldCacheTTL   time.Duration
	GoldAPITimeout time.Duration
	GoldAPIRPS     float64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	MetricsEnabled bool
	MetricsToken   string

	RateLimitRPS        float64
	RateLimitBurst      int
	RateLimitTrustProxy bool
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	n, err := strconv.Atoi(getenv(key, ""))
	if err != nil {
		return def
	}
	return n
}

func floatenv(key string, def float64) float64 {
	f, err := strconv.ParseFloat(getenv(key, ""), 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func boolenv(key string, def bool) bool {
	b, err := strconv.ParseBool(getenv(key, ""))
	if err != nil {
		return def
	}
	return b
}

// durenv accepts Go durations ("10s", "1m30s") or a bare number of seconds.
func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return def
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        ":" + getenv("PORT", "8000"),
		ShutdownTimeout: durenv("SHUTDOWN_TIMEOUT", 10*time.Second),
		LogLevel:        getenv("LOG_LEVEL", "info"),

		CatalogPath: getenv("CATALOG_PATH", "products.json"),
		CatalogDSN:  getenv("CATALOG_DSN", ""),

		GoldAPIURL:     getenv("GOLD_API_URL", "https://www.goldapi.io/api/XAU/USD"),
		GoldCacheTTL:   durenv("GOLD_CACHE_TTL", 10*time.Second),
		GoldAPITimeout: durenv("GOLD_API_TIMEOUT", 5*time.Second),
		GoldAPIRPS:     floatenv("GOLD_API_RPS", 0),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       atoienv("REDIS_DB", 0),
		RedisKey:      getenv("REDIS_KEY", "goldcatalog:spot"),

		MetricsEnabled: boolenv("METRICS_ENABLED", true),
		MetricsToken:   getenv("METRICS_TOKEN", ""),

		RateLimitRPS:        floatenv("RATE_LIMIT_RPS", 0),
		RateLimitBurst:      atoienv("RATE_LIMIT_BURST", 20),
		RateLimitTrustProxy: boolenv("RATE_LIMIT_TRUST_PROXY", false),
	}
}
