// Package render fetches fully rendered HTML for a URL, executing client-side
// JavaScript via a headless browser.
package render

import "context"

// Page is the result of rendering one URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Renderer turns a URL into a rendered DOM snapshot. Implementations own
// their per-call timeout and must return an error on navigation failure so
// the engine can distinguish a bad page from a bad run.
type Renderer interface {
	Render(ctx context.Context, url string) (Page, error)
	// Close releases the renderer's session resource. Idempotent.
	Close(ctx context.Context) error
}
