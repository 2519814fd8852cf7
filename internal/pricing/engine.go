// Package pricing holds the pure price formula for gold catalog items.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// OutputPlaces is the number of decimals a price is rounded to in responses.
const OutputPlaces = 2

// Compute returns (popularity + 1) * weight * spot. It does no validation and
// no rounding; NaN or Inf inputs propagate to the result.
func Compute(popularity, weight, spot float64) float64 {
	return (popularity + 1) * weight * spot
}

// Round rounds v to OutputPlaces decimals, half away from zero.
// Non-finite values are returned unchanged.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(OutputPlaces).Float64()
	return f
}
