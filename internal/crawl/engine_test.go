package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/geodocs/webharvest/internal/connector"
	"github.com/geodocs/webharvest/internal/fetch"
	"github.com/geodocs/webharvest/internal/render"
	"github.com/geodocs/webharvest/internal/storage/memory"
	"github.com/geodocs/webharvest/internal/store"
)

type fakeRenderer struct {
	pages  map[string]string
	fail   map[string]error
	calls  []string
	closed int
}

func (f *fakeRenderer) Render(_ context.Context, url string) (render.Page, error) {
	f.calls = append(f.calls, url)
	if err, ok := f.fail[url]; ok {
		return render.Page{}, err
	}
	html, ok := f.pages[url]
	if !ok {
		return render.Page{}, fmt.Errorf("no route for %s", url)
	}
	return render.Page{
		URL:        url,
		FinalURL:   url,
		StatusCode: 200,
		Body:       []byte(html),
	}, nil
}

func (f *fakeRenderer) Close(_ context.Context) error {
	f.closed++
	return nil
}

type fakeSink struct {
	batches [][]connector.Document
	err     error
}

func (s *fakeSink) Emit(_ context.Context, batch []connector.Document) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fakeSink) ids() []string {
	var out []string
	for _, batch := range s.batches {
		for _, doc := range batch {
			out = append(out, doc.ID)
		}
	}
	return out
}

type fakeFetcher struct {
	responses map[string]fetch.Response
	calls     []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (fetch.Response, error) {
	f.calls = append(f.calls, url)
	resp, ok := f.responses[url]
	if !ok {
		return fetch.Response{}, fmt.Errorf("no response for %s", url)
	}
	return resp, nil
}

func pageHTML(title string, links ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><p>Body text for %s.</p>", title, title)
	for _, l := range links {
		fmt.Fprintf(&b, `<a href=%q>document</a>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func factoryFor(r *fakeRenderer, acquired *int) RendererFactory {
	return func(_ context.Context) (render.Renderer, error) {
		*acquired++
		return r, nil
	}
}

func TestNew_RejectsUnsupportedMode(t *testing.T) {
	t.Parallel()

	_, err := New(Options{
		Seeds: []string{"https://example.test/"},
		Mode:  Mode("recursive"),
	}, Deps{
		NewRenderer: factoryFor(&fakeRenderer{}, new(int)),
		Sink:        &fakeSink{},
	})
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestNew_EmptySeedsFailFastWithoutSessionAcquisition(t *testing.T) {
	t.Parallel()

	acquired := 0
	_, err := New(Options{Seeds: []string{"", "  "}}, Deps{
		NewRenderer: factoryFor(&fakeRenderer{}, &acquired),
		Sink:        &fakeSink{},
	})
	require.ErrorIs(t, err, ErrNoSeeds)
	require.Zero(t, acquired)
}

func TestRun_EndToEndPageWithOnePDF(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{pages: map[string]string{
		"https://example.test/a":     pageHTML("Page A", "https://example.test/a.pdf"),
		"https://example.test/a.pdf": pageHTML("Raw PDF"),
	}}
	sink := &fakeSink{}
	acquired := 0

	engine, err := New(Options{
		Seeds:     []string{"https://example.test/a"},
		BatchSize: 10,
	}, Deps{
		NewRenderer: factoryFor(renderer, &acquired),
		Sink:        sink,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))

	require.Len(t, sink.batches, 1)
	require.Equal(t, []string{"https://example.test/a", "https://example.test/a.pdf"}, sink.ids())
	require.Equal(t, "Page A", sink.batches[0][0].SemanticIdentifier)
	require.Equal(t, connector.SourceWeb, sink.batches[0][0].Source)
	require.Equal(t, 1, acquired)
	require.Equal(t, 1, renderer.closed)
}

func TestRun_NoURLRenderedTwice(t *testing.T) {
	t.Parallel()

	// Both pages link the same PDF, and page A links it twice. The frontier
	// accumulates duplicates; pop-time dedup must still render it only once.
	renderer := &fakeRenderer{pages: map[string]string{
		"https://example.test/a":       pageHTML("Page A", "https://example.test/dup.pdf", "https://example.test/dup.pdf", "https://example.test/b.pdf"),
		"https://example.test/b.pdf":   pageHTML("B", "https://example.test/dup.pdf"),
		"https://example.test/dup.pdf": pageHTML("Dup"),
	}}
	sink := &fakeSink{}

	engine, err := New(Options{
		Seeds:     []string{"https://example.test/a"},
		BatchSize: 10,
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        sink,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))

	seen := make(map[string]int)
	for _, url := range renderer.calls {
		seen[url]++
	}
	for url, count := range seen {
		require.Equalf(t, 1, count, "url %s rendered %d times", url, count)
	}
	require.Len(t, renderer.calls, 3)
}

func TestRun_PageBudgetStopsTraversal(t *testing.T) {
	t.Parallel()

	pages := map[string]string{}
	links := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		url := fmt.Sprintf("https://example.test/doc-%d.pdf", i)
		links = append(links, url)
		pages[url] = pageHTML("Doc")
	}
	pages["https://example.test/a"] = pageHTML("Page A", links...)

	renderer := &fakeRenderer{pages: pages}
	sink := &fakeSink{}

	engine, err := New(Options{
		Seeds:      []string{"https://example.test/a"},
		BatchSize:  50,
		PageBudget: 5,
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        sink,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))

	// At most 5 pop/process iterations regardless of frontier size, and the
	// documents produced before the cutoff are still flushed.
	require.LessOrEqual(t, len(renderer.calls), 5)
	require.Len(t, sink.batches, 1)
	require.Equal(t, len(renderer.calls), len(sink.ids()))
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{
		pages: map[string]string{
			"https://example.test/a":        pageHTML("Page A", "https://example.test/good.pdf", "https://example.test/bad.pdf"),
			"https://example.test/good.pdf": pageHTML("Good"),
		},
		fail: map[string]error{
			"https://example.test/bad.pdf": errors.New("navigation timeout"),
		},
	}
	sink := &fakeSink{}
	runs := store.NewMemory()

	engine, err := New(Options{
		Seeds:     []string{"https://example.test/a"},
		BatchSize: 10,
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        sink,
		Runs:        runs,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))

	require.ElementsMatch(t,
		[]string{"https://example.test/a", "https://example.test/good.pdf"},
		sink.ids(),
	)

	var failed int
	for _, rec := range runs.Pages() {
		if rec.Outcome == store.OutcomeFailed {
			failed++
			require.Contains(t, rec.ErrorText, "navigation timeout")
		}
	}
	require.Equal(t, 1, failed)

	summaries := runs.Runs()
	require.Len(t, summaries, 1)
	require.True(t, summaries[0].Succeeded)
	require.Equal(t, 1, summaries[0].PageFailures)
}

func TestRun_AllPagesFailSurfacesLastError(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{
		fail: map[string]error{
			"https://example.test/a": errors.New("connection refused"),
		},
	}
	sink := &fakeSink{}

	engine, err := New(Options{
		Seeds: []string{"https://example.test/a"},
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        sink,
	})
	require.NoError(t, err)

	err = engine.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
	require.Contains(t, err.Error(), "https://example.test/a")
	require.Empty(t, sink.batches)
	require.Equal(t, 1, renderer.closed)
}

func TestRun_BatchBoundaries(t *testing.T) {
	t.Parallel()

	pages := map[string]string{}
	links := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		url := fmt.Sprintf("https://example.test/doc-%d.pdf", i)
		links = append(links, url)
		pages[url] = pageHTML("Doc")
	}
	pages["https://example.test/a"] = pageHTML("Page A", links...)

	renderer := &fakeRenderer{pages: pages}
	sink := &fakeSink{}

	engine, err := New(Options{
		Seeds:     []string{"https://example.test/a"},
		BatchSize: 3,
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        sink,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))

	// 7 documents at batch size 3: batches of 3, 3, 1.
	require.Len(t, sink.batches, 3)
	require.Len(t, sink.batches[0], 3)
	require.Len(t, sink.batches[1], 3)
	require.Len(t, sink.batches[2], 1)

	// Concatenation reproduces the full production (render-completion) order.
	require.Equal(t, renderer.calls, sink.ids())
}

func TestRun_SinkFailureIsFatalButReleasesSession(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{pages: map[string]string{
		"https://example.test/a": pageHTML("Page A"),
	}}
	sink := &fakeSink{err: errors.New("sink unavailable")}
	acquired := 0

	engine, err := New(Options{
		Seeds:     []string{"https://example.test/a"},
		BatchSize: 1,
	}, Deps{
		NewRenderer: factoryFor(renderer, &acquired),
		Sink:        sink,
	})
	require.NoError(t, err)

	err = engine.Run(context.Background())
	require.ErrorContains(t, err, "sink unavailable")
	require.Equal(t, 1, acquired)
	require.Equal(t, 1, renderer.closed)
}

func TestRun_CancellationStopsBetweenIterations(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{pages: map[string]string{
		"https://example.test/a": pageHTML("Page A"),
	}}
	engine, err := New(Options{
		Seeds: []string{"https://example.test/a"},
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        &fakeSink{},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, renderer.calls)
	require.Equal(t, 1, renderer.closed)
}

func TestRun_DownloadStrategyRoutesPDFsAroundRenderer(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{pages: map[string]string{
		"https://example.test/a": pageHTML("Page A", "https://example.test/report.pdf"),
	}}
	fetcher := &fakeFetcher{responses: map[string]fetch.Response{
		"https://example.test/report.pdf": {
			URL:         "https://example.test/report.pdf",
			StatusCode:  200,
			ContentType: "application/pdf",
			Body:        []byte("%PDF-1.7 payload"),
		},
	}}
	blobs := memory.New()
	sink := &fakeSink{}

	engine, err := New(Options{
		Seeds:       []string{"https://example.test/a"},
		BatchSize:   10,
		PDFStrategy: PDFStrategyDownload,
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        sink,
		Fetcher:     fetcher,
		Blobs:       blobs,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))

	require.Equal(t, []string{"https://example.test/a"}, renderer.calls)
	require.Equal(t, []string{"https://example.test/report.pdf"}, fetcher.calls)
	require.Equal(t, 1, blobs.Len())

	require.Equal(t, []string{"https://example.test/a", "https://example.test/report.pdf"}, sink.ids())
	pdfDoc := sink.batches[0][1]
	require.Equal(t, "report.pdf", pdfDoc.SemanticIdentifier)
	require.Equal(t, "application/pdf", pdfDoc.Metadata["content_type"])
	require.Contains(t, pdfDoc.Metadata["blob_uri"], "mem://pdfs/")
	require.Empty(t, pdfDoc.Sections[0].Text)
}

func TestNew_DownloadStrategyRequiresFetcher(t *testing.T) {
	t.Parallel()

	_, err := New(Options{
		Seeds:       []string{"https://example.test/"},
		PDFStrategy: PDFStrategyDownload,
	}, Deps{
		NewRenderer: factoryFor(&fakeRenderer{}, new(int)),
		Sink:        &fakeSink{},
	})
	require.ErrorContains(t, err, "fetcher is required")
}

func TestRun_TitleFallsBackToURL(t *testing.T) {
	t.Parallel()

	renderer := &fakeRenderer{pages: map[string]string{
		"https://example.test/untitled": `<html><head></head><body><p>no title here</p></body></html>`,
	}}
	sink := &fakeSink{}

	engine, err := New(Options{
		Seeds: []string{"https://example.test/untitled"},
	}, Deps{
		NewRenderer: factoryFor(renderer, new(int)),
		Sink:        sink,
	})
	require.NoError(t, err)
	require.NoError(t, engine.Run(context.Background()))

	require.Equal(t, "https://example.test/untitled", sink.batches[0][0].SemanticIdentifier)
}
