package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"GoldCatalog/internal/gold"
	"GoldCatalog/pkg/kit"
)

const readyTimeout = 1 * time.Second

type Server struct {
	Service   *Service
	Log       *zap.Logger
	RateLimit *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Group(func(pr chi.Router) {
		if s.RateLimit != nil {
			pr.Use(s.RateLimit.Middleware)
		}
		pr.Get("/products", s.list)
		pr.Get("/spot-price", s.spot)
	})

	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Service.Loader.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "NotReady", "not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	products, err := s.Service.ListPricedProducts(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

type spotResp struct {
	PricePerGram float64   `json:"price_per_gram"`
	ObservedAt   time.Time `json:"observed_at"`
}

func (s *Server) spot(w http.ResponseWriter, r *http.Request) {
	p, err := s.Service.SpotPrice(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, spotResp{PricePerGram: p.PerGram, ObservedAt: p.ObservedAt.UTC()})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger().Error("request failed", zap.String("kind", kind), zap.Error(err))
	} else {
		s.logger().Info("request rejected", zap.String("kind", kind), zap.Error(err))
	}
	kit.WriteError(w, r, status, kind, err.Error())
}

// classify maps an error to an HTTP status and the most specific error kind.
// Upstream HTTP statuses are passed through as-is.
func classify(err error) (int, string) {
	var ce *Error
	if !errors.As(err, &ce) {
		return http.StatusInternalServerError, "Internal"
	}

	switch ce.Kind {
	case KindCatalogUnavailable:
		if errors.Is(err, ErrCatalogNotFound) {
			return http.StatusNotFound, string(ce.Kind)
		}
		return http.StatusInternalServerError, string(ce.Kind)
	case KindPricingUnavailable:
		ge, ok := gold.AsError(err)
		if !ok {
			return http.StatusInternalServerError, string(ce.Kind)
		}
		switch ge.Kind {
		case gold.KindUnauthorized, gold.KindUpstreamHTTP:
			if ge.Status >= 400 && ge.Status <= 599 {
				return ge.Status, string(ge.Kind)
			}
			return http.StatusBadGateway, string(ge.Kind)
		default:
			return http.StatusInternalServerError, string(ge.Kind)
		}
	default:
		return http.StatusInternalServerError, string(ce.Kind)
	}
}
