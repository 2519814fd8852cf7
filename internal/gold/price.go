// Package gold fetches the gold spot price from an upstream API and keeps the
// last good observation in a single TTL-bound slot.
package gold

import "time"

// Price is the spot price of one gram of pure gold, with the time it was observed.
type Price struct {
	PerGram    float64   `json:"price_per_gram"`
	ObservedAt time.Time `json:"observed_at"`
}

func (p Price) Age(now time.Time) time.Duration {
	return now.Sub(p.ObservedAt)
}

func (p Price) valid() bool {
	return p.PerGram > 0 && !p.ObservedAt.IsZero()
}
