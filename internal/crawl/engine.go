// Package crawl implements the bounded single-origin crawl engine: frontier
// traversal, visited-set dedup, page budget enforcement, per-page failure
// isolation, and ordered batch emission toward the ingestion sink.
package crawl

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/geodocs/webharvest/internal/connector"
	"github.com/geodocs/webharvest/internal/extract"
	"github.com/geodocs/webharvest/internal/fetch"
	"github.com/geodocs/webharvest/internal/frontier"
	"github.com/geodocs/webharvest/internal/render"
	"github.com/geodocs/webharvest/internal/storage"
	"github.com/geodocs/webharvest/internal/store"
)

// Mode selects the crawl scope.
type Mode string

// ModeSingle indexes the page graph reachable from the seed; it is the only
// mode accepted today.
const ModeSingle Mode = "single"

// PDFStrategy decides what happens to discovered .pdf links.
type PDFStrategy string

const (
	// PDFStrategyRender queues PDF URLs into the frontier and sends them
	// through the renderer like any other page.
	PDFStrategyRender PDFStrategy = "render"
	// PDFStrategyDownload routes popped PDF URLs through the plain HTTP
	// fetcher and stores the raw bytes in the blob store instead.
	PDFStrategyDownload PDFStrategy = "download"
)

// DefaultPageBudget caps pop/process iterations per run, guarding against
// cyclic or unbounded link graphs.
const DefaultPageBudget = 1000

// DefaultBatchSize is the number of documents per emitted batch when the
// caller does not configure one.
const DefaultBatchSize = 16

// Options configures one engine instance.
type Options struct {
	Seeds       []string
	Mode        Mode
	BatchSize   int
	PageBudget  int
	PDFStrategy PDFStrategy
}

// RendererFactory starts a renderer session. The engine calls it once per
// run, after pre-run validation, and closes the session exactly once.
type RendererFactory func(ctx context.Context) (render.Renderer, error)

// Deps are the collaborators the engine drives.
type Deps struct {
	NewRenderer RendererFactory
	Sink        connector.Sink
	// Fetcher is required when PDFStrategy is download.
	Fetcher fetch.Fetcher
	// Blobs stores downloaded PDF bytes. Defaults to a no-op store.
	Blobs storage.BlobStore
	// Runs records page and run outcomes, best-effort. Defaults to memory.
	Runs   store.RunStore
	Logger *zap.Logger
}

// Engine drives one crawl run at a time. Instances are cheap; each run owns
// its frontier, batch buffer, and renderer session independently.
type Engine struct {
	opts Options
	deps Deps
}

// New validates options and collaborators. It acquires no resources: an
// invalid mode or an empty seed list fails here, before any renderer
// session exists.
func New(opts Options, deps Deps) (*Engine, error) {
	if opts.Mode == "" {
		opts.Mode = ModeSingle
	}
	if opts.Mode != ModeSingle {
		return nil, fmt.Errorf("%w, got %q", ErrUnsupportedMode, opts.Mode)
	}

	seeds := make([]string, 0, len(opts.Seeds))
	for _, s := range opts.Seeds {
		if s = strings.TrimSpace(s); s != "" {
			seeds = append(seeds, s)
		}
	}
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	opts.Seeds = seeds

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.PageBudget <= 0 {
		opts.PageBudget = DefaultPageBudget
	}
	if opts.PDFStrategy == "" {
		opts.PDFStrategy = PDFStrategyRender
	}
	if opts.PDFStrategy != PDFStrategyRender && opts.PDFStrategy != PDFStrategyDownload {
		return nil, fmt.Errorf("unknown pdf strategy %q", opts.PDFStrategy)
	}

	if deps.NewRenderer == nil {
		return nil, fmt.Errorf("renderer factory is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if opts.PDFStrategy == PDFStrategyDownload && deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required for the download pdf strategy")
	}
	if deps.Blobs == nil {
		deps.Blobs = storage.NoOp{}
	}
	if deps.Runs == nil {
		deps.Runs = store.NewMemory()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &Engine{opts: opts, deps: deps}, nil
}

// runState tracks per-run progress. Created at run start, discarded at
// run end; nothing here survives the process.
type runState struct {
	loadedCount   int
	atLeastOneDoc bool
	lastErr       error
	failures      int
	documents     int
}

// Run executes one crawl. Per-page failures are recovered locally; only
// sink failures, cancellation, and session acquisition failures abort the
// run. A run that produced zero documents fails with the last page error,
// or ErrNoDocuments when none was recorded.
func (e *Engine) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := e.deps.Logger.With(zap.String("run_id", runID))
	started := time.Now().UTC()

	renderer, err := e.deps.NewRenderer(ctx)
	if err != nil {
		return fmt.Errorf("start renderer session: %w", err)
	}
	defer func() {
		if cerr := renderer.Close(ctx); cerr != nil {
			logger.Warn("failed to close renderer session", zap.Error(cerr))
		}
	}()

	emitter, err := connector.NewBatchEmitter(e.deps.Sink, e.opts.BatchSize)
	if err != nil {
		return err
	}

	r := &run{
		engine:   e,
		id:       runID,
		logger:   logger,
		frontier: frontier.New(e.opts.Seeds...),
		renderer: renderer,
		emitter:  emitter,
		state:    &runState{},
	}

	runErr := r.loop(ctx)
	if runErr == nil {
		if ferr := emitter.Flush(ctx); ferr != nil {
			runErr = fmt.Errorf("flush final batch: %w", ferr)
		}
	}
	if runErr == nil && !r.state.atLeastOneDoc {
		if r.state.lastErr != nil {
			runErr = r.state.lastErr
		} else {
			runErr = ErrNoDocuments
		}
	}

	rec := store.RunRecord{
		RunID:            runID,
		SeedURL:          e.opts.Seeds[0],
		Started:          started,
		Finished:         time.Now().UTC(),
		PagesVisited:     r.frontier.VisitedCount(),
		DocumentsEmitted: r.state.documents,
		BatchesEmitted:   emitter.Emitted(),
		PageFailures:     r.state.failures,
		Succeeded:        runErr == nil,
	}
	if runErr != nil {
		rec.ErrorText = runErr.Error()
	}
	if serr := e.deps.Runs.RecordRun(ctx, rec); serr != nil {
		logger.Warn("failed to record run summary", zap.Error(serr))
	}

	logger.Info("crawl finished",
		zap.Int("pages_visited", rec.PagesVisited),
		zap.Int("documents", rec.DocumentsEmitted),
		zap.Int("batches", rec.BatchesEmitted),
		zap.Int("page_failures", rec.PageFailures),
		zap.Bool("succeeded", rec.Succeeded),
	)
	return runErr
}

// run holds the working set of one Run invocation.
type run struct {
	engine   *Engine
	id       string
	logger   *zap.Logger
	frontier *frontier.Frontier
	renderer render.Renderer
	emitter  *connector.BatchEmitter
	state    *runState
}

// loop is the traversal state machine. It returns nil on both terminal
// states (frontier empty, budget exceeded) and an error only for fatal
// conditions: cancellation and sink failure.
func (r *run) loop(ctx context.Context) error {
	e := r.engine
	for r.frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("crawl canceled: %w", err)
		}

		r.state.loadedCount++
		if r.state.loadedCount > e.opts.PageBudget {
			r.logger.Warn("stopping crawl, page budget exhausted",
				zap.Int("page_budget", e.opts.PageBudget),
				zap.Int("frontier_size", r.frontier.Len()),
			)
			return nil
		}

		current, ok := r.frontier.Pop()
		if !ok {
			return nil
		}
		// Pop-time dedup: the same URL may sit in the stack several times.
		if r.frontier.IsVisited(current) {
			continue
		}
		r.frontier.MarkVisited(current)
		pagesVisited.Inc()

		begin := time.Now()
		var (
			doc     connector.Document
			outcome store.PageOutcome
			pageErr error
		)
		if e.opts.PDFStrategy == PDFStrategyDownload && isPDFURL(current) {
			doc, pageErr = r.downloadDocument(ctx, current)
			outcome = store.OutcomeDownloaded
		} else {
			doc, pageErr = r.renderDocument(ctx, current)
			outcome = store.OutcomeRendered
		}
		elapsed := time.Since(begin)

		if pageErr != nil {
			perr := &RenderError{URL: current, Err: pageErr}
			r.state.lastErr = perr
			r.state.failures++
			renderErrors.Inc()
			r.logger.Error("page failed",
				zap.String("url", current),
				zap.Duration("elapsed", elapsed),
				zap.Error(pageErr),
			)
			r.recordPage(ctx, current, store.OutcomeFailed, perr.Error(), elapsed)
			continue
		}

		// A sink failure is fatal: the consumer is gone, there is nowhere
		// for further documents to go.
		if err := r.emitter.Add(ctx, doc); err != nil {
			return fmt.Errorf("hand document to sink: %w", err)
		}
		r.state.atLeastOneDoc = true
		r.state.documents++
		documentsEmitted.Inc()
		r.recordPage(ctx, current, outcome, "", elapsed)

		r.logger.Debug("page processed",
			zap.String("url", current),
			zap.Duration("elapsed", elapsed),
			zap.Int("frontier_size", r.frontier.Len()),
		)
	}
	return nil
}

// renderDocument renders the page, extracts its content, and pushes newly
// discovered PDF links. The renderer owns the page-level tab resource and
// releases it on every path.
func (r *run) renderDocument(ctx context.Context, current string) (connector.Document, error) {
	page, err := r.renderer.Render(ctx, current)
	if err != nil {
		return connector.Document{}, err
	}

	res := extract.Extract(string(page.Body), current)
	semantic := res.Title
	if semantic == "" {
		semantic = current
	}

	for _, link := range discoverPDFLinks(page.Body, current) {
		if r.frontier.IsVisited(link) {
			continue
		}
		r.frontier.Push(link)
		pdfsDiscovered.Inc()
	}

	return connector.Document{
		ID:                 current,
		Sections:           []connector.Section{{Link: current, Text: res.Text}},
		Source:             connector.SourceWeb,
		SemanticIdentifier: semantic,
		Metadata:           map[string]string{},
	}, nil
}

// downloadDocument fetches a PDF over plain HTTP, stores the bytes, and
// builds a metadata-only document. No text extraction happens here.
func (r *run) downloadDocument(ctx context.Context, current string) (connector.Document, error) {
	resp, err := r.engine.deps.Fetcher.Fetch(ctx, current)
	if err != nil {
		return connector.Document{}, err
	}

	blobPath := path.Join("pdfs", r.id, blobName(current))
	uri, err := r.engine.deps.Blobs.Put(ctx, blobPath, resp.ContentType, resp.Body)
	if err != nil {
		return connector.Document{}, fmt.Errorf("store pdf bytes: %w", err)
	}

	metadata := map[string]string{
		"content_type":   resp.ContentType,
		"content_length": strconv.Itoa(len(resp.Body)),
	}
	if uri != "" {
		metadata["blob_uri"] = uri
	}

	return connector.Document{
		ID:                 current,
		Sections:           []connector.Section{{Link: current}},
		Source:             connector.SourceWeb,
		SemanticIdentifier: pdfSemanticIdentifier(current),
		Metadata:           metadata,
	}, nil
}

func (r *run) recordPage(ctx context.Context, url string, outcome store.PageOutcome, errText string, elapsed time.Duration) {
	rec := store.PageRecord{
		RunID:      r.id,
		URL:        url,
		Outcome:    outcome,
		ErrorText:  errText,
		DurationMs: elapsed.Milliseconds(),
		FetchedAt:  time.Now().UTC(),
	}
	if err := r.engine.deps.Runs.RecordPage(ctx, rec); err != nil {
		r.logger.Warn("failed to record page", zap.String("url", url), zap.Error(err))
	}
}

func pdfSemanticIdentifier(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return rawURL
	}
	return base
}

func blobName(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%x.pdf", sum)
}
