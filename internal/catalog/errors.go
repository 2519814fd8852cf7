package catalog

import (
	"errors"
	"fmt"
)

// Returned by loaders.
var (
	ErrCatalogNotFound = errors.New("catalog not found")
	ErrCatalogParse    = errors.New("catalog parse error")
)

type Kind string

const (
	KindCatalogUnavailable Kind = "CatalogUnavailable"
	KindCatalogCorrupt     Kind = "CatalogCorrupt"
	KindProductDataInvalid Kind = "ProductDataInvalid"
	KindPricingUnavailable Kind = "PricingUnavailable"
)

// Error is what Service returns. For PricingUnavailable, Err holds the
// underlying price cache error; for ProductDataInvalid, ProductID names the record.
type Error struct {
	Kind      Kind
	ProductID string
	Err       error
}

var (
	ErrCatalogUnavailable = &Error{Kind: KindCatalogUnavailable}
	ErrCatalogCorrupt     = &Error{Kind: KindCatalogCorrupt}
	ErrProductDataInvalid = &Error{Kind: KindProductDataInvalid}
	ErrPricingUnavailable = &Error{Kind: KindPricingUnavailable}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.ProductID != "" {
		msg = fmt.Sprintf("%s: product %s", msg, e.ProductID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}
