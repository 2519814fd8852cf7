package catalog

import "context"

// Loader reads the whole catalog in display order. Implementations report a
// missing catalog with ErrCatalogNotFound and an unreadable one with ErrCatalogParse.
type Loader interface {
	Load(ctx context.Context) ([]Record, error)
	Ping(ctx context.Context) error
}
