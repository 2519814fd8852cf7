package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter narrows a priced catalog. Bounds are inclusive; nil means unbounded.
// Price bounds apply to the rounded price that is returned to clients.
type Filter struct {
	MinPopularity *float64
	MaxPopularity *float64
	MinPrice      *float64
	MaxPrice      *float64
}

// ParseFilter reads min_popularity, max_popularity, min_price and max_price.
// Empty parameters are ignored.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter
	params := []struct {
		name string
		dst  **float64
	}{
		{"min_popularity", &f.MinPopularity},
		{"max_popularity", &f.MaxPopularity},
		{"min_price", &f.MinPrice},
		{"max_price", &f.MaxPrice},
	}
	for _, p := range params {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || !finite(v) {
			return Filter{}, fmt.Errorf("%s: %q is not a number", p.name, raw)
		}
		*p.dst = &v
	}
	return f, nil
}

func (f Filter) Empty() bool {
	return f.MinPopularity == nil && f.MaxPopularity == nil && f.MinPrice == nil && f.MaxPrice == nil
}

func (f Filter) Match(popularity, price float64) bool {
	return within(popularity, f.MinPopularity, f.MaxPopularity) && within(price, f.MinPrice, f.MaxPrice)
}

func within(v float64, lo, hi *float64) bool {
	if lo != nil && v < *lo {
		return false
	}
	if hi != nil && v > *hi {
		return false
	}
	return true
}
