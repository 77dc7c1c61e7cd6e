package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/bookingest/internal/core/domain"
	"github.com/custodia-labs/bookingest/internal/core/ports/driven"
	"github.com/custodia-labs/bookingest/internal/core/ports/driving"
	"github.com/custodia-labs/bookingest/internal/logger"
)

// Ensure OCREngine implements the interface.
var _ driving.OCRService = (*OCREngine)(nil)

// OCREngine fetches, parses and stores OCR for pages. Errors on one page
// become warnings and never stop the pass.
type OCREngine struct {
	catalog     driven.Catalog
	registry    driven.OCRRegistry
	sidecars    driven.SidecarReader
	remote      driven.RemoteOCR
	index       driven.IndexTrigger
	metrics     driven.Metrics
	parallelism int
}

// OCROption configures an OCREngine.
type OCROption func(*OCREngine)

// WithParallelism sets how many pages are processed at once. Values below 1 mean 1.
func WithParallelism(n int) OCROption {
	return func(e *OCREngine) {
		e.parallelism = max(n, 1)
	}
}

// WithRemoteOCR enables the remote line and positional OCR services.
func WithRemoteOCR(remote driven.RemoteOCR) OCROption {
	return func(e *OCREngine) { e.remote = remote }
}

// WithIndexTrigger enables page reindexing after words are stored.
func WithIndexTrigger(index driven.IndexTrigger) OCROption {
	return func(e *OCREngine) { e.index = index }
}

// WithOCRMetrics records per-page outcomes.
func WithOCRMetrics(m driven.Metrics) OCROption {
	return func(e *OCREngine) { e.metrics = metricsOrNop(m) }
}

// NewOCREngine creates an OCR engine.
func NewOCREngine(
	catalog driven.Catalog,
	registry driven.OCRRegistry,
	sidecars driven.SidecarReader,
	opts ...OCROption,
) *OCREngine {
	e := &OCREngine{
		catalog:     catalog,
		registry:    registry,
		sidecars:    sidecars,
		metrics:     nopMetrics{},
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// pageOutcome is the result of one page of a pass.
type pageOutcome struct {
	status  string
	words   int
	warning string
}

// AddOCR runs the pass over every page of a volume.
func (e *OCREngine) AddOCR(ctx context.Context, volumePID string) (*driving.OCRReport, error) {
	vol, err := e.catalog.Volumes().Get(ctx, volumePID)
	if err != nil {
		return nil, fmt.Errorf("get volume %s: %w", volumePID, err)
	}
	pages, err := e.catalog.Pages().ListByVolume(ctx, volumePID)
	if err != nil {
		return nil, fmt.Errorf("list pages of %s: %w", volumePID, err)
	}
	return e.Run(ctx, vol, pages)
}

// AddOCRToPage runs the pass for a single page.
func (e *OCREngine) AddOCRToPage(ctx context.Context, pagePID string) (*driving.OCRReport, error) {
	page, err := e.catalog.Pages().Get(ctx, pagePID)
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", pagePID, err)
	}
	vol, err := e.catalog.Volumes().Get(ctx, page.VolumePID)
	if err != nil {
		return nil, fmt.Errorf("get volume %s: %w", page.VolumePID, err)
	}
	return e.Run(ctx, vol, []domain.Page{*page})
}

// Run processes pages of vol. Warnings are reported in page order
// regardless of parallelism.
func (e *OCREngine) Run(ctx context.Context, vol *domain.Volume, pages []domain.Page) (*driving.OCRReport, error) {
	server := e.imageServer(ctx, vol)
	outcomes := make([]pageOutcome, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = e.processPage(gctx, vol, &pages[i], server)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ocr pass for %s: %w", vol.PID, err)
	}

	report := &driving.OCRReport{Pages: len(pages)}
	for _, o := range outcomes {
		switch o.status {
		case driven.OCRPersisted:
			report.Persisted++
			report.Words += o.words
		case driven.OCRSkipped:
			report.Skipped++
		case driven.OCRWarned:
			report.Warnings = append(report.Warnings, o.warning)
		}
		e.metrics.OCRPage(o.status, o.words)
	}
	logger.Info("OCR for %s: %d pages, %d with words, %d skipped, %d warnings",
		vol.PID, report.Pages, report.Persisted, report.Skipped, len(report.Warnings))
	return report, nil
}

func (e *OCREngine) processPage(ctx context.Context, vol *domain.Volume, page *domain.Page, server *domain.ImageServer) pageOutcome {
	warn := func(err error) pageOutcome {
		w := Warning(page.PID, err)
		logger.Warn("%s", w)
		return pageOutcome{status: driven.OCRWarned, warning: w}
	}

	// 1. Fetch
	payload, err := e.fetch(ctx, vol, page, server)
	if errors.Is(err, domain.ErrNoOCR) {
		return pageOutcome{status: driven.OCRSkipped}
	}
	if err != nil {
		return warn(err)
	}

	// 2. Parse
	words, err := e.registry.Parse(payload)
	if err != nil {
		return warn(err)
	}
	words = Finalize(page.PID, words)
	if len(words) == 0 {
		// Words from an earlier run must not outlive an empty re-parse.
		if err := e.catalog.Words().ReplaceForPage(ctx, page.PID, nil); err != nil {
			return warn(fmt.Errorf("clear words: %w", err))
		}
		return pageOutcome{status: driven.OCRSkipped}
	}

	// 3. Persist, replacing any earlier run
	if err := e.catalog.Words().ReplaceForPage(ctx, page.PID, words); err != nil {
		return warn(fmt.Errorf("store words: %w", err))
	}

	// 4. Reindex
	if e.index != nil {
		if err := e.index.ReindexPage(ctx, page.PID); err != nil {
			logger.Warn("Reindex page %s: %v", page.PID, err)
		}
	}
	return pageOutcome{status: driven.OCRPersisted, words: len(words)}
}

// fetch reads the page's sidecar, or asks the remote services: the line
// service for line-granularity pages, then the positional service.
func (e *OCREngine) fetch(
	ctx context.Context,
	vol *domain.Volume,
	page *domain.Page,
	server *domain.ImageServer,
) (*driven.OCRPayload, error) {
	if page.HasSidecar() {
		content, err := e.sidecars.ReadSidecar(ctx, server, *page.OCRPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrOCRFetch, *page.OCRPath, err)
		}
		return &driven.OCRPayload{Content: content, Path: *page.OCRPath}, nil
	}

	if e.remote == nil {
		return nil, domain.ErrNoOCR
	}

	if page.DefaultOCR == domain.OCRLine {
		content, err := e.remote.FetchLines(ctx, page, server)
		switch {
		case err == nil:
			return &driven.OCRPayload{Content: content, Line: true}, nil
		case !errors.Is(err, domain.ErrNoOCR):
			return nil, err
		}
	}

	content, err := e.remote.FetchPositional(ctx, vol, page, server)
	if err != nil {
		return nil, err
	}
	return &driven.OCRPayload{Content: content}, nil
}

func (e *OCREngine) imageServer(ctx context.Context, vol *domain.Volume) *domain.ImageServer {
	if vol.ImageServerID == 0 {
		return nil
	}
	server, err := e.catalog.ImageServers().Get(ctx, vol.ImageServerID)
	if err != nil {
		logger.Warn("Image server %d for %s: %v", vol.ImageServerID, vol.PID, err)
		return nil
	}
	return server
}

// Finalize prepares parsed words for storage: blank content becomes a single
// space, negative coordinates clamp to zero, and order is assigned from 1 in
// parse order.
func Finalize(pagePID string, words []domain.Word) []domain.Word {
	out := make([]domain.Word, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Content) == "" {
			w.Content = " "
		}
		w.X, w.Y, w.W, w.H = max(w.X, 0), max(w.Y, 0), max(w.W, 0), max(w.H, 0)
		if w.ResourceType == "" {
			w.ResourceType = domain.ResourceWord
		}
		w.PagePID = pagePID
		w.Order = len(out) + 1
		out = append(out, w)
	}
	return out
}

// Warning renders a page failure as "Canvas {pid} - {Kind}: {message}".
func Warning(pagePID string, err error) string {
	return fmt.Sprintf("Canvas %s - %s: %v", pagePID, warningKind(err), err)
}

func warningKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrOCRValidation):
		return "OcrValidationError"
	case errors.Is(err, domain.ErrOCRParse):
		return "OcrParseError"
	case errors.Is(err, domain.ErrOCRFetch):
		return "OcrFetchFailure"
	case errors.Is(err, domain.ErrUnsupportedType):
		return "UnsupportedOcrFormat"
	}
	return "Error"
}
