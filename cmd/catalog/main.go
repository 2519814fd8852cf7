package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"GoldCatalog/internal/catalog"
	"GoldCatalog/internal/config"
	"GoldCatalog/internal/gold"
	"GoldCatalog/pkg/kit"
)

const startupTimeout = 5 * time.Second

func main() {
	service := "catalog"
	cfg := config.Load()

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	loader, closeLoader, err := newLoader(ctx, cfg, log)
	if err != nil {
		log.Fatal("init catalog loader failed", zap.Error(err))
	}
	defer closeLoader()

	slot, closeSlot, err := newSlot(ctx, cfg, log)
	if err != nil {
		log.Fatal("init spot price slot failed", zap.Error(err))
	}
	defer closeSlot()

	client := gold.NewClient(cfg.GoldAPIURL, cfg.GoldAPITimeout, gold.EnvAPIKey(config.GoldAPIKeyEnv)).
		WithRateLimit(cfg.GoldAPIRPS)
	if err := client.CheckCredentials(); err != nil {
		log.Warn("gold api key not set; pricing requests will fail until it is", zap.String("env", config.GoldAPIKeyEnv))
	}

	app := catalog.NewApp(catalog.Deps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,

		Loader:       loader,
		Spot:         client,
		Slot:         slot,
		CacheTTL:     cfg.GoldCacheTTL,
		FetchTimeout: cfg.GoldAPITimeout,

		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
		RateLimitTrustProxy: cfg.RateLimitTrustProxy,
	})

	log.Info("catalog configured",
		zap.Duration("gold_cache_ttl", app.Cache.TTL()),
		zap.String("gold_api_url", cfg.GoldAPIURL),
		zap.Bool("redis_slot", cfg.RedisAddr != ""),
		zap.Bool("postgres_catalog", cfg.CatalogDSN != ""),
		zap.Bool("rate_limit", app.Server.RateLimit != nil),
	)

	if err := kit.RunHTTPServer(cfg.HTTPAddr, app.Handler, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func newLoader(ctx context.Context, cfg config.Config, log *zap.Logger) (catalog.Loader, func(), error) {
	if cfg.CatalogDSN == "" {
		log.Info("catalog from file", zap.String("path", cfg.CatalogPath))
		return catalog.NewFileStore(cfg.CatalogPath), func() {}, nil
	}

	db, err := catalog.OpenPostgres(ctx, cfg.CatalogDSN)
	if err != nil {
		return nil, nil, err
	}
	log.Info("catalog from postgres")
	return catalog.NewPostgresStore(db), func() { _ = db.Close() }, nil
}

func newSlot(ctx context.Context, cfg config.Config, log *zap.Logger) (gold.Slot, func(), error) {
	if cfg.RedisAddr == "" {
		return gold.NewMemorySlot(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	log.Info("spot price slot in redis", zap.String("addr", cfg.RedisAddr), zap.String("key", cfg.RedisKey))
	return gold.NewRedisSlot(rdb, gold.WithSlotKey(cfg.RedisKey)), func() { _ = rdb.Close() }, nil
}
