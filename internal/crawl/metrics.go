package crawl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// pagesVisited tracks URLs popped and processed (rendered or downloaded).
	pagesVisited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webharvest_pages_visited_total",
		Help: "The total number of URLs popped from the frontier and processed.",
	})
	// renderErrors tracks per-page failures that were recovered locally.
	renderErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webharvest_render_errors_total",
		Help: "The total number of pages that failed to render or download.",
	})
	// documentsEmitted tracks documents handed to the batch emitter.
	documentsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webharvest_documents_emitted_total",
		Help: "The total number of documents produced by the crawl engine.",
	})
	// pdfsDiscovered tracks PDF links pushed into the frontier or downloaded.
	pdfsDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webharvest_pdfs_discovered_total",
		Help: "The total number of distinct PDF links discovered on pages.",
	})
)
