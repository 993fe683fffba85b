// Package preview renders the first page of each plot PDF to a PNG preview,
// using headless Chrome. A preview for plots/X.pdf is written to
// <out>/X.pdf.png, which is the name the dashboard looks up.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/errgroup"

	"apedash/internal/logging"
)

// DefaultTimeout bounds a single PDF render.
const DefaultTimeout = 30 * time.Second

// Renderer converts plot PDFs to PNG previews.
type Renderer struct {
	PlotsDir string
	OutDir   string
	Workers  int           // concurrent tabs; <1 means 1
	Scale    float64       // device scale factor; <=0 means 2.0 (~150 dpi)
	Timeout  time.Duration // per-PDF; 0 means DefaultTimeout
	Force    bool          // re-render even when the PNG already exists

	// newAllocator starts the shared browser session for one RenderAll pass.
	// render produces PNG bytes for one PDF; its ctx descends from the
	// allocator. Tests replace both; the defaults drive headless Chrome.
	newAllocator func(ctx context.Context) (context.Context, context.CancelFunc)
	render       func(ctx context.Context, pdfPath string) ([]byte, error)

	log *slog.Logger
}

// Failure records one PDF that could not be rendered.
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a RenderAll pass.
type Report struct {
	Rendered []string
	Skipped  []string
	Failed   []Failure
}

// NewRenderer builds a Renderer with the chromedp backend.
func NewRenderer(plotsDir, outDir string) *Renderer {
	r := &Renderer{
		PlotsDir:     plotsDir,
		OutDir:       outDir,
		Workers:      1,
		newAllocator: chromeAllocator,
		log:          logging.New("preview"),
	}
	r.render = r.renderTab
	return r
}

// RenderAll renders every plots/*.pdf that has no preview yet (all of them
// with Force). One browser is launched for the whole pass; each PDF gets its
// own tab. Failures are collected per file, not fatal.
func (r *Renderer) RenderAll(ctx context.Context) (*Report, error) {
	pdfs, err := filepath.Glob(filepath.Join(r.PlotsDir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	sort.Strings(pdfs)

	if err := os.MkdirAll(r.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("create preview dir: %w", err)
	}

	report := &Report{}
	var pending []string
	for _, pdf := range pdfs {
		name := filepath.Base(pdf)
		if !r.Force {
			if _, err := os.Stat(filepath.Join(r.OutDir, name+".png")); err == nil {
				report.Skipped = append(report.Skipped, name)
				continue
			}
		}
		pending = append(pending, pdf)
	}

	if len(pending) > 0 {
		if err := r.renderPending(ctx, pending, report); err != nil {
			return report, err
		}
	}

	sort.Strings(report.Rendered)
	sort.Strings(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Name < report.Failed[j].Name })
	return report, nil
}

func (r *Renderer) renderPending(ctx context.Context, pending []string, report *Report) error {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	timeout := r.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	allocCtx, allocCancel := r.newAllocator(ctx)
	defer allocCancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(allocCtx)
	g.SetLimit(workers)

	for _, pdf := range pending {
		name := filepath.Base(pdf)
		out := filepath.Join(r.OutDir, name+".png")

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			renderCtx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			png, err := r.render(renderCtx, pdf)
			if err == nil {
				err = os.WriteFile(out, png, 0644)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.Warn("render failed", slog.String("pdf", name), slog.Any("err", err))
				report.Failed = append(report.Failed, Failure{Name: name, Err: err})
				return nil
			}
			r.log.Info("rendered", slog.String("pdf", name), slog.String("png", filepath.Base(out)))
			report.Rendered = append(report.Rendered, name)
			return nil
		})
	}
	return g.Wait()
}

// chromeAllocator launches one headless Chrome process that all tabs of a
// RenderAll pass share.
func chromeAllocator(ctx context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	return chromedp.NewExecAllocator(ctx, opts...)
}

// renderTab opens the PDF in a new tab of the shared browser and screenshots
// the viewport. Chrome's built-in viewer renders the first page at the top of
// the document.
func (r *Renderer) renderTab(ctx context.Context, pdfPath string) ([]byte, error) {
	abs, err := filepath.Abs(pdfPath)
	if err != nil {
		return nil, err
	}
	fileURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	scale := r.Scale
	if scale <= 0 {
		scale = 2.0
	}

	tabCtx, tabCancel := chromedp.NewContext(ctx)
	defer tabCancel()

	var png []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(1240, 1754, chromedp.EmulateScale(scale)),
		chromedp.Navigate(fileURL.String()),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.CaptureScreenshot(&png),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp render %s: %w", filepath.Base(pdfPath), err)
	}
	return png, nil
}

// SetRenderFunc replaces the render backend, for tests. The browser
// allocator is bypassed along with it.
func (r *Renderer) SetRenderFunc(fn func(ctx context.Context, pdfPath string) ([]byte, error)) {
	r.render = fn
	r.newAllocator = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithCancel(ctx)
	}
}
