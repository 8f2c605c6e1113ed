package crawl

import (
	"errors"
	"fmt"
)

// Configuration errors raised before any renderer resource is acquired.
var (
	// ErrUnsupportedMode means a crawl mode other than "single" was requested.
	ErrUnsupportedMode = errors.New("only 'single' mode is supported")
	// ErrNoSeeds means the initial frontier was empty.
	ErrNoSeeds = errors.New("no URLs to visit")
)

// ErrNoDocuments is returned when a run finishes without producing a single
// document and no page-level error was recorded.
var ErrNoDocuments = errors.New("no valid pages found")

// RenderError records a single page failure. It is recovered locally by the
// engine and only surfaces as the run error when the whole run produced
// nothing.
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to fetch %q: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
