package fetcher

import (
	"context"

	"partselect/parser/internal/domain"
)

// Page is one fetched product page. It stays usable for Trigger until Close;
// callers must Close every page they receive.
type Page interface {
	URL() string
	HTML() string
	// Trigger expands an interactive section and returns the updated HTML.
	Trigger(ctx context.Context, section domain.Section) (string, error)
	Close() error
}

// PageFetcher loads rendered product pages. Every error it returns is a
// *FetchError.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
	Close() error
}
