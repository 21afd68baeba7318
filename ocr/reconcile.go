package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
	"github.com/wudi/annokit/pagesource"
	"github.com/wudi/annokit/store"
)

// ErrBatchRunning reports that a full-document sweep is already in flight.
var ErrBatchRunning = errors.New("ocr: batch already running")

// DefaultWorkers is the recognition pool size.
const DefaultWorkers = 3

// DefaultOversample scales page rasters before OCR for better small-glyph
// accuracy; word boxes are divided back out during normalization.
const DefaultOversample = 3.0

// Word is one token in a page's uniform text layer, with its bounding box
// normalized to [0,1] page space.
type Word struct {
	Text       string
	Rect       geo.Rect
	Confidence float64
	Font       string
}

// PageText is the reconciled text layer for one page, regardless of whether
// it came from native extraction or OCR.
type PageText struct {
	PageNumber   int
	Words        []Word
	PlainText    string
	IsNativeText bool
	Confidence   float64
	Failed       bool
}

// Reconciler decides, per page, whether native extractable text exists or OCR
// must run, and maintains the resulting page text layers. It owns its worker
// pool explicitly; there are no package-level singletons.
type Reconciler struct {
	provider   pagesource.Provider
	engine     Engine
	logger     observability.Logger
	workers    int
	oversample float64
	languages  []string

	mu      sync.Mutex
	pages   map[int]PageText
	running bool
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithWorkers sets the pool size for full-document sweeps.
func WithWorkers(n int) ReconcilerOption {
	return func(r *Reconciler) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithOversample sets the raster scale factor used for OCR input.
func WithOversample(factor float64) ReconcilerOption {
	return func(r *Reconciler) {
		if factor > 0 {
			r.oversample = factor
		}
	}
}

// WithReconcilerLanguages sets language hints passed to the engine.
func WithReconcilerLanguages(langs ...string) ReconcilerOption {
	return func(r *Reconciler) { r.languages = append([]string(nil), langs...) }
}

// WithReconcilerLogger injects a logger.
func WithReconcilerLogger(l observability.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewReconciler builds a reconciler over the page provider and OCR engine.
// The engine may be nil when only native text is needed.
func NewReconciler(provider pagesource.Provider, engine Engine, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		provider:   provider,
		engine:     engine,
		logger:     observability.NopLogger{},
		workers:    DefaultWorkers,
		oversample: DefaultOversample,
		pages:      make(map[int]PageText),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PageText returns the reconciled layer for a page, if processed.
func (r *Reconciler) PageText(pageNumber int) (PageText, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pt, ok := r.pages[pageNumber]
	return pt, ok
}

// ProcessAll reconciles every page using the worker pool. Per-page failures
// are recorded and do not abort the sweep; the returned error covers only
// re-entrancy and context cancelation.
func (r *Reconciler) ProcessAll(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrBatchRunning
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	total := r.provider.PageCount()
	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				pt := r.processPage(ctx, page)
				r.mu.Lock()
				// Last write per page wins; completion order is irrelevant.
				r.pages[page] = pt
				r.mu.Unlock()
			}
		}()
	}

	var err error
	for page := 1; page <= total; page++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
			break
		}
		jobs <- page
	}
	close(jobs)
	wg.Wait()

	r.logger.Info("page sweep finished",
		observability.Int(observability.MetricOCRBatchPages, total),
		observability.Bool("canceled", err != nil))
	return err
}

// processPage builds one page's text layer. Failures are isolated to the
// page.
func (r *Reconciler) processPage(ctx context.Context, pageNumber int) PageText {
	start := time.Now()
	items, err := r.provider.TextItems(pageNumber)
	if err == nil {
		raw := pagesource.PlainText(items)
		if HasRealText(raw) {
			words := make([]Word, 0, len(items))
			for _, it := range items {
				words = append(words, Word{Text: it.Text, Rect: it.Rect, Confidence: 1, Font: it.Font})
			}
			return PageText{
				PageNumber:   pageNumber,
				Words:        words,
				PlainText:    raw,
				IsNativeText: true,
				Confidence:   1,
			}
		}
	}

	pt, ocrErr := r.recognizePage(ctx, pageNumber)
	if ocrErr != nil {
		r.logger.Warn("page recognition failed",
			observability.Int("page", pageNumber),
			observability.Error("error", ocrErr))
		return PageText{PageNumber: pageNumber, Failed: true}
	}
	r.logger.Debug("page recognized",
		observability.Int("page", pageNumber),
		observability.Int64(observability.MetricOCRPageTime, time.Since(start).Milliseconds()))
	return pt
}

func (r *Reconciler) recognizePage(ctx context.Context, pageNumber int) (PageText, error) {
	if r.engine == nil {
		return PageText{}, errors.New("no ocr engine configured")
	}
	img, err := r.provider.RenderPage(pageNumber, r.oversample)
	if err != nil {
		return PageText{}, fmt.Errorf("render page %d: %w", pageNumber, err)
	}
	in, err := InputFromImage(pageNumber, img, WithLanguages(r.languages...))
	if err != nil {
		return PageText{}, err
	}
	res, err := r.engine.Recognize(ctx, in)
	if err != nil {
		return PageText{}, fmt.Errorf("recognize page %d: %w", pageNumber, err)
	}

	bounds := img.Bounds()
	rasterW := float64(bounds.Dx())
	rasterH := float64(bounds.Dy())
	var words []Word
	for _, tw := range res.Words() {
		if rasterW <= 0 || rasterH <= 0 {
			break
		}
		words = append(words, Word{
			Text: tw.Text,
			Rect: geo.Rect{
				X:      tw.Bounds.X / rasterW,
				Y:      tw.Bounds.Y / rasterH,
				Width:  tw.Bounds.Width / rasterW,
				Height: tw.Bounds.Height / rasterH,
			},
			Confidence: tw.Confidence,
			Font:       tw.Font,
		})
	}
	return PageText{
		PageNumber: pageNumber,
		Words:      words,
		PlainText:  res.PlainText,
		Confidence: res.Confidence(),
	}, nil
}

// ExtractClip lifts text out of a rectangular page region, preferring the
// native layer and falling back to OCR over a cropped raster. It satisfies
// the gesture package's clip extractor contract.
func (r *Reconciler) ExtractClip(pageNumber int, region geo.Rect) (store.Clipping, error) {
	items, err := r.provider.TextItems(pageNumber)
	if err == nil && HasRealText(pagesource.PlainText(items)) {
		var parts []string
		for _, it := range items {
			if region.Contains(it.Rect.Center()) {
				parts = append(parts, it.Text)
			}
		}
		if len(parts) > 0 {
			return store.Clipping{
				Content:    strings.Join(parts, " "),
				Source:     store.SourcePDF,
				Confidence: 1,
			}, nil
		}
	}

	if r.engine == nil {
		return store.Clipping{}, errors.New("ocr: no engine for clip extraction")
	}
	img, err := r.provider.RenderPage(pageNumber, r.oversample)
	if err != nil {
		return store.Clipping{}, fmt.Errorf("render page %d: %w", pageNumber, err)
	}
	cropped, err := pagesource.CropNormalized(img, region)
	if err != nil {
		return store.Clipping{}, err
	}
	in, err := InputFromImage(pageNumber, cropped, WithLanguages(r.languages...))
	if err != nil {
		return store.Clipping{}, err
	}
	res, err := r.engine.Recognize(context.Background(), in)
	if err != nil {
		return store.Clipping{}, fmt.Errorf("recognize clip on page %d: %w", pageNumber, err)
	}
	if strings.TrimSpace(res.PlainText) == "" {
		return store.Clipping{}, errors.New("ocr: no text found in clip region")
	}
	return store.Clipping{
		Content:    res.PlainText,
		Source:     store.SourceOCR,
		Confidence: res.Confidence(),
	}, nil
}
