package config

import (
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "SHUTDOWN_TIMEOUT", "LOG_LEVEL", "CATALOG_PATH", "CATALOG_DSN",
	"GOLD_API_URL", "GOLD_CACHE_TTL", "GOLD_API_TIMEOUT", "GOLD_API_RPS",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_KEY",
	"METRICS_ENABLED", "METRICS_TOKEN", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"RATE_LIMIT_TRUST_PROXY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	c := Load()
	if c.HTTPAddr != ":8000" {
		t.Fatalf("HTTPAddr=%q", c.HTTPAddr)
	}
	if c.CatalogPath != "products.json" {
		t.Fatalf("CatalogPath=%q", c.CatalogPath)
	}
	if c.GoldCacheTTL != 10*time.Second {
		t.Fatalf("GoldCacheTTL=%s", c.GoldCacheTTL)
	}
	if c.GoldAPITimeout != 5*time.Second {
		t.Fatalf("GoldAPITimeout=%s", c.GoldAPITimeout)
	}
	if c.GoldAPIURL != "https://www.goldapi.io/api/XAU/USD" {
		t.Fatalf("GoldAPIURL=%q", c.GoldAPIURL)
	}
	if c.RedisAddr != "" || c.RedisKey != "goldcatalog:spot" {
		t.Fatalf("redis defaults: addr=%q key=%q", c.RedisAddr, c.RedisKey)
	}
	if !c.MetricsEnabled {
		t.Fatalf("metrics should default on")
	}
	if c.RateLimitRPS != 0 || c.RateLimitBurst != 20 {
		t.Fatalf("rate limit defaults: rps=%v burst=%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if c.RateLimitTrustProxy {
		t.Fatalf("forwarded-for must not be trusted by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("GOLD_CACHE_TTL", "1m30s")
	t.Setenv("GOLD_API_TIMEOUT", "2")
	t.Setenv("GOLD_API_RPS", "0.5")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("RATE_LIMIT_RPS", "3")
	t.Setenv("RATE_LIMIT_BURST", "7")
	t.Setenv("RATE_LIMIT_TRUST_PROXY", "true")
	t.Setenv("REDIS_DB", "2")

	c := Load()
	if c.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr=%q", c.HTTPAddr)
	}
	if c.GoldCacheTTL != 90*time.Second {
		t.Fatalf("GoldCacheTTL=%s", c.GoldCacheTTL)
	}
	if c.GoldAPITimeout != 2*time.Second {
		t.Fatalf("GoldAPITimeout=%s", c.GoldAPITimeout)
	}
	if c.GoldAPIRPS != 0.5 {
		t.Fatalf("GoldAPIRPS=%v", c.GoldAPIRPS)
	}
	if c.MetricsEnabled {
		t.Fatalf("metrics should be off")
	}
	if c.RateLimitRPS != 3 || c.RateLimitBurst != 7 {
		t.Fatalf("rate limit: rps=%v burst=%d", c.RateLimitRPS, c.RateLimitBurst)
	}
	if !c.RateLimitTrustProxy {
		t.Fatalf("RateLimitTrustProxy not read")
	}
	if c.RedisDB != 2 {
		t.Fatalf("RedisDB=%d", c.RedisDB)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOLD_CACHE_TTL", "soon")
	t.Setenv("GOLD_API_TIMEOUT", "-3s")
	t.Setenv("RATE_LIMIT_RPS", "-1")
	t.Setenv("METRICS_ENABLED", "maybe")

	c := Load()
	if c.GoldCacheTTL != 10*time.Second {
		t.Fatalf("GoldCacheTTL=%s", c.GoldCacheTTL)
	}
	if c.GoldAPITimeout != 5*time.Second {
		t.Fatalf("GoldAPITimeout=%s", c.GoldAPITimeout)
	}
	if c.RateLimitRPS != 0 {
		t.Fatalf("RateLimitRPS=%v", c.RateLimitRPS)
	}
	if !c.MetricsEnabled {
		t.Fatalf("invalid bool should keep default")
	}
}
