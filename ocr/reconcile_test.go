package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/pagesource"
	"github.com/wudi/annokit/store"
)

const realText = "The sediment cores recovered from the northern basin show distinct laminations throughout."

type fakeProvider struct {
	pages    int
	native   map[int][]pagesource.TextItem
	raster   map[int]image.Image
	renderFn func(page int) (image.Image, error)
}

func (f *fakeProvider) PageCount() int { return f.pages }

func (f *fakeProvider) PageSize(pageNumber int) (geo.Size, error) {
	return geo.Size{Width: 612, Height: 792}, nil
}

func (f *fakeProvider) TextItems(pageNumber int) ([]pagesource.TextItem, error) {
	return f.native[pageNumber], nil
}

func (f *fakeProvider) RenderPage(pageNumber int, scale float64) (image.Image, error) {
	if f.renderFn != nil {
		return f.renderFn(pageNumber)
	}
	if img, ok := f.raster[pageNumber]; ok {
		return img, nil
	}
	return nil, pagesource.ErrRasterUnsupported
}

type fakeEngine struct {
	mu      sync.Mutex
	calls   []int
	results map[int]Result
	errs    map[int]error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in.PageIndex)
	f.mu.Unlock()
	if err, ok := f.errs[in.PageIndex]; ok {
		return Result{}, err
	}
	if res, ok := f.results[in.PageIndex]; ok {
		return res, nil
	}
	return Result{InputID: in.ID, PlainText: "ocr text"}, nil
}

func (f *fakeEngine) pagesSeen() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

func nativeItems(text string) []pagesource.TextItem {
	var items []pagesource.TextItem
	for i, w := range strings.Fields(text) {
		items = append(items, pagesource.TextItem{
			Text: w,
			Rect: geo.Rect{X: 0.1 + float64(i)*0.05, Y: 0.2, Width: 0.04, Height: 0.02},
		})
	}
	return items
}

func TestHasRealText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"real paragraph", realText, true},
		{"too short", "Page 4", false},
		{"digits only", strings.Repeat("0123456789 ", 10), false},
		{"few words", "Somelongenoughword andanother athird afourth", false},
		{"no long word", strings.Repeat("as it is so we do go up ", 5), false},
	}
	for _, tc := range cases {
		if got := HasRealText(tc.in); got != tc.want {
			t.Fatalf("%s: HasRealText = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNativePageSkipsOCR(t *testing.T) {
	provider := &fakeProvider{pages: 1, native: map[int][]pagesource.TextItem{1: nativeItems(realText)}}
	engine := &fakeEngine{}
	r := NewReconciler(provider, engine)

	if err := r.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	pt, ok := r.PageText(1)
	if !ok || !pt.IsNativeText {
		t.Fatalf("page text = %+v, want native", pt)
	}
	if len(engine.pagesSeen()) != 0 {
		t.Fatalf("OCR ran on a native-text page: %v", engine.pagesSeen())
	}
	if pt.Confidence != 1 {
		t.Fatalf("native confidence = %v, want 1", pt.Confidence)
	}
}

func TestScannedPageRunsOCRWithNormalizedBoxes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 2000))
	provider := &fakeProvider{pages: 1, raster: map[int]image.Image{1: img}}
	engine := &fakeEngine{results: map[int]Result{
		1: {
			PlainText: "scanned word",
			Blocks: []TextBlock{{
				Lines: []TextLine{{
					Words: []TextWord{{
						Text:       "scanned",
						Bounds:     Region{X: 100, Y: 400, Width: 300, Height: 50},
						Confidence: 0.9,
					}},
				}},
			}},
		},
	}}
	r := NewReconciler(provider, engine)

	if err := r.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	pt, ok := r.PageText(1)
	if !ok || pt.IsNativeText || pt.Failed {
		t.Fatalf("page text = %+v", pt)
	}
	if len(pt.Words) != 1 {
		t.Fatalf("words = %d", len(pt.Words))
	}
	w := pt.Words[0]
	if w.Rect.X != 0.1 || w.Rect.Y != 0.2 || w.Rect.Width != 0.3 || w.Rect.Height != 0.025 {
		t.Fatalf("normalized rect = %+v", w.Rect)
	}
}

func TestPerPageFailureIsolation(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	provider := &fakeProvider{
		pages:  3,
		raster: map[int]image.Image{1: img, 2: img, 3: img},
	}
	engine := &fakeEngine{
		errs:    map[int]error{2: errors.New("engine crashed")},
		results: map[int]Result{},
	}
	r := NewReconciler(provider, engine, WithWorkers(2))

	if err := r.ProcessAll(context.Background()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if pt, _ := r.PageText(2); !pt.Failed {
		t.Fatalf("page 2 should be marked failed")
	}
	for _, page := range []int{1, 3} {
		if pt, ok := r.PageText(page); !ok || pt.Failed {
			t.Fatalf("page %d should have succeeded: %+v", page, pt)
		}
	}
}

func TestBatchReentrancyGuard(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	provider := &fakeProvider{pages: 2}
	provider.renderFn = func(page int) (image.Image, error) {
		once.Do(func() { close(started) })
		<-block
		return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
	}
	r := NewReconciler(provider, &fakeEngine{}, WithWorkers(1))

	done := make(chan error, 1)
	go func() { done <- r.ProcessAll(context.Background()) }()
	<-started

	if err := r.ProcessAll(context.Background()); err != ErrBatchRunning {
		t.Fatalf("second sweep err = %v, want ErrBatchRunning", err)
	}
	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first sweep: %v", err)
	}
}

func TestExtractClipFromNativeText(t *testing.T) {
	provider := &fakeProvider{pages: 1, native: map[int][]pagesource.TextItem{1: nativeItems(realText)}}
	r := NewReconciler(provider, nil)

	clip, err := r.ExtractClip(1, geo.Rect{X: 0, Y: 0.1, Width: 1, Height: 0.3})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if clip.Source != store.SourcePDF {
		t.Fatalf("source = %q, want PDF", clip.Source)
	}
	if !strings.Contains(clip.Content, "sediment") {
		t.Fatalf("content = %q", clip.Content)
	}
}

func TestExtractClipFallsBackToOCR(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 400))
	provider := &fakeProvider{pages: 1, raster: map[int]image.Image{1: img}}
	engine := &fakeEngine{results: map[int]Result{
		1: {PlainText: "recognized snippet", Blocks: []TextBlock{{
			Lines: []TextLine{{Words: []TextWord{{Text: "snippet", Confidence: 0.8, Bounds: Region{X: 1, Y: 1, Width: 5, Height: 5}}}}},
		}}},
	}}
	r := NewReconciler(provider, engine)

	clip, err := r.ExtractClip(1, geo.Rect{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if clip.Source != store.SourceOCR || clip.Content != "recognized snippet" {
		t.Fatalf("clip = %+v", clip)
	}
	if clip.Confidence != 0.8 {
		t.Fatalf("confidence = %v", clip.Confidence)
	}
}

func TestInputFromImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	meta := map[string]string{"psm": "6"}
	in, err := InputFromImage(3, img,
		WithLanguages("eng", "spa"),
		WithRegion(Region{X: 0, Y: 0, Width: 4, Height: 4}),
		WithDPI(300),
		WithMetadata(meta),
	)
	if err != nil {
		t.Fatalf("InputFromImage: %v", err)
	}
	if in.ID != "page-3" || in.Format != ImageFormatPNG || in.PageIndex != 3 {
		t.Fatalf("input identity = %+v", in)
	}
	if len(in.Image) == 0 {
		t.Fatalf("missing encoded payload")
	}
	if fmt.Sprint(in.Languages) != "[eng spa]" {
		t.Fatalf("languages = %v", in.Languages)
	}
	meta["psm"] = "7"
	if in.Metadata["psm"] != "6" {
		t.Fatalf("metadata not copied: %v", in.Metadata)
	}
}

func TestWithRegionClearsEmpty(t *testing.T) {
	in := Input{Region: &Region{X: 1, Y: 1, Width: 2, Height: 2}}
	WithRegion(Region{})(&in)
	if in.Region != nil {
		t.Fatalf("expected nil region for empty input, got %#v", in.Region)
	}
}

func TestTesseractTuningVariables(t *testing.T) {
	var in Input
	WithPageSegmentation(6)(&in)
	if got := in.Metadata["tessedit_pageseg_mode"]; got != "6" {
		t.Fatalf("pageseg mode = %q, want 6", got)
	}
	WithCharWhitelist("0123456789")(&in)
	if got := in.Metadata["tessedit_char_whitelist"]; got != "0123456789" {
		t.Fatalf("whitelist = %q", got)
	}
	// Variables accumulate; setting one must not clear the other.
	if got := in.Metadata["tessedit_pageseg_mode"]; got != "6" {
		t.Fatalf("pageseg mode lost after whitelist, got %q", got)
	}
}
