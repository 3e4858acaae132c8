// Package fetcher issues the outbound HTTP GETs of the contact mapper. Every
// component fetches through the Fetcher interface so tests can substitute a
// deterministic double.
package fetcher

import (
	"context"
)

// Response is a successfully fetched (2xx) page.
type Response struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Fetcher retrieves a single URL. Implementations return a *FetchError for
// non-2xx responses, network failures, and timeouts. They never retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Release closes the idle connections of f when it pools any.
func Release(f Fetcher) {
	if c, ok := f.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, url string) (*Response, error)

// Fetch calls f.
func (f Func) Fetch(ctx context.Context, url string) (*Response, error) {
	return f(ctx, url)
}
