package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"GoldCatalog/internal/gold"
	"GoldCatalog/internal/pricing"
)

// SpotSource supplies the gold spot price; *gold.Cache is the production one.
type SpotSource interface {
	Price(ctx context.Context) (gold.Price, error)
}

// PricedProduct is a catalog record with its computed price. It marshals as
// the original record plus a "price" field.
type PricedProduct struct {
	ID         string
	Popularity float64
	Weight     float64
	Price      float64
	Record     Record
}

func (p PricedProduct) MarshalJSON() ([]byte, error) {
	out := p.Record.clone()
	out[fieldPrice] = p.Price
	return json.Marshal(map[string]any(out))
}

type Service struct {
	Loader Loader
	Spot   SpotSource
	Log    *zap.Logger
}

func NewService(loader Loader, spot SpotSource, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Loader: loader, Spot: spot, Log: log}
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// ListPricedProducts loads the catalog, takes one spot price for the whole
// batch and prices every record in catalog order. Any invalid record fails
// the whole batch.
func (s *Service) ListPricedProducts(ctx context.Context, f Filter) ([]PricedProduct, error) {
	log := s.log()

	log.Debug("pricing state", zap.String("state", "LoadingCatalog"))
	records, err := s.Loader.Load(ctx)
	if err != nil {
		return nil, s.fail(loadError(err))
	}

	log.Debug("pricing state", zap.String("state", "FetchingPrice"), zap.Int("records", len(records)))
	spot, err := s.Spot.Price(ctx)
	if err != nil {
		return nil, s.fail(&Error{Kind: KindPricingUnavailable, Err: err})
	}

	log.Debug("pricing state", zap.String("state", "Computing"), zap.Float64("spot_per_gram", spot.PerGram))
	priced, err := PriceRecords(records, spot.PerGram)
	if err != nil {
		return nil, s.fail(err)
	}

	if !f.Empty() {
		kept := priced[:0]
		for _, p := range priced {
			if f.Match(p.Popularity, p.Price) {
				kept = append(kept, p)
			}
		}
		priced = kept
	}

	log.Debug("pricing state", zap.String("state", "Done"), zap.Int("products", len(priced)))
	return priced, nil
}

// SpotPrice exposes the cached spot price with the same error wrapping as ListPricedProducts.
func (s *Service) SpotPrice(ctx context.Context) (gold.Price, error) {
	p, err := s.Spot.Price(ctx)
	if err != nil {
		return gold.Price{}, s.fail(&Error{Kind: KindPricingUnavailable, Err: err})
	}
	return p, nil
}

func (s *Service) fail(err error) error {
	s.log().Debug("pricing state", zap.String("state", "Failed"), zap.Error(err))
	return err
}

// PriceRecords prices records against one spot price, keeping their order.
// Prices are rounded only here, at the output boundary.
func PriceRecords(records []Record, spot float64) ([]PricedProduct, error) {
	out := make([]PricedProduct, 0, len(records))
	for _, r := range records {
		id := r.ID()

		popularity, ok := r.Number(fieldPopularity)
		if !ok || !finite(popularity) || popularity < 0 {
			return nil, invalidField(id, fieldPopularity, r[fieldPopularity])
		}
		weight, ok := r.Number(fieldWeight)
		if !ok || !finite(weight) || weight <= 0 {
			return nil, invalidField(id, fieldWeight, r[fieldWeight])
		}

		raw := pricing.Compute(popularity, weight, spot)
		if !finite(raw) {
			return nil, &Error{Kind: KindProductDataInvalid, ProductID: id, Err: fmt.Errorf("computed price %v is not finite", raw)}
		}

		out = append(out, PricedProduct{
			ID:         id,
			Popularity: popularity,
			Weight:     weight,
			Price:      pricing.Round(raw),
			Record:     r,
		})
	}
	return out, nil
}

func invalidField(id, field string, v any) error {
	if v == nil {
		return &Error{Kind: KindProductDataInvalid, ProductID: id, Err: fmt.Errorf("%s is missing", field)}
	}
	return &Error{Kind: KindProductDataInvalid, ProductID: id, Err: fmt.Errorf("%s=%v is invalid", field, v)}
}

func loadError(err error) error {
	if errors.Is(err, ErrCatalogParse) {
		return &Error{Kind: KindCatalogCorrupt, Err: err}
	}
	return &Error{Kind: KindCatalogUnavailable, Err: err}
}
