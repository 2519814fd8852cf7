package catalog

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"GoldCatalog/internal/gold"
	"GoldCatalog/pkg/kit"
)

// Deps is everything the catalog service is assembled from. Registry, when
// set, receives both the HTTP and the spot cache metrics and is served on
// /metrics.
type Deps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	Loader       Loader
	Spot         gold.Source
	Slot         gold.Slot
	CacheTTL     time.Duration
	FetchTimeout time.Duration

	RateLimitRPS        float64
	RateLimitBurst      int
	RateLimitTrustProxy bool
}

type App struct {
	Cache   *gold.Cache
	Server  *Server
	Handler http.Handler
}

func NewApp(deps Deps) *App {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	cache := gold.NewCache(deps.Spot, deps.CacheTTL, cacheOptions(deps)...)

	s := &Server{
		Service: NewService(deps.Loader, cache, deps.Log.Named("pricing")),
		Log:     deps.Log,
	}
	if deps.RateLimitRPS > 0 {
		s.RateLimit = kit.NewIPRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst,
			kit.WithTrustedProxy(deps.RateLimitTrustProxy))
	}

	return &App{Cache: cache, Server: s, Handler: NewHandler(s, deps)}
}

func cacheOptions(deps Deps) []gold.CacheOption {
	opts := []gold.CacheOption{gold.WithLogger(deps.Log.Named("spot_cache"))}
	if deps.Slot != nil {
		opts = append(opts, gold.WithSlot(deps.Slot))
	}
	if deps.FetchTimeout > 0 {
		opts = append(opts, gold.WithFetchTimeout(deps.FetchTimeout))
	}
	if deps.Registry != nil {
		opts = append(opts, gold.WithMetrics(gold.NewCacheMetrics(deps.Registry)))
	}
	return opts
}

func NewHandler(s *Server, deps Deps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Mount("/", s.Routes())
	return r
}

func setupMiddleware(r *chi.Mux, deps Deps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer(deps.Log))
	r.Use(kit.Logging(deps.Log))
}

func setupMetrics(r *chi.Mux, deps Deps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}
