// Package search scans page text, native text layers first and OCR word lists
// as fallback, for a query substring and produces normalized match rectangles.
// Scans are cancelable: a newer query invalidates an older, still-running one
// through a generation counter, and stale results are dropped rather than
// published.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/cases"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
)

// ErrStale reports that a newer query superseded this scan; its results were
// discarded.
var ErrStale = errors.New("search: superseded by a newer query")

// Span is one native text-layer fragment with its normalized rectangle.
type Span struct {
	Text string
	Rect geo.Rect
}

// SpanMeasurer returns the normalized rectangle covering byte range
// [start,end) of the span at spanIndex, measured against the span's
// case-folded text. ok=false skips the span, used for spans with zero
// rendered size.
type SpanMeasurer func(spanIndex, start, end int) (geo.Rect, bool)

// NativeLayer is a page's extracted text layer. When Measure is nil, sub-span
// rectangles are estimated proportionally from each span's rectangle.
type NativeLayer struct {
	Spans   []Span
	Measure SpanMeasurer
}

// Word is one recognized word with its normalized bounding box.
type Word struct {
	Text string
	Rect geo.Rect
}

// Source supplies per-page text in priority order: a native layer when the
// page has real extractable text, an OCR word list otherwise.
type Source interface {
	PageCount() int
	NativeLayer(pageNumber int) (*NativeLayer, bool)
	OCRWords(pageNumber int) ([]Word, bool)
}

// Match is one query occurrence. Start is the character offset within the
// page's concatenated text.
type Match struct {
	ID         string
	PageNumber int
	Start      int
	Rects      []geo.Rect
}

// Engine runs scans and tracks the active match for navigation.
type Engine struct {
	source     Source
	logger     observability.Logger
	generation atomic.Int64

	mu      sync.Mutex
	query   string
	matches []Match
	active  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger injects a logger.
func WithLogger(l observability.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine over src.
func New(src Source, opts ...Option) *Engine {
	e := &Engine{source: src, logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run scans every page for query and publishes the match list. An empty query
// clears state. Run may be called concurrently; only the most recent call's
// results are published, earlier in-flight runs return ErrStale.
func (e *Engine) Run(ctx context.Context, query string) ([]Match, error) {
	gen := e.generation.Add(1)
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		e.publish(gen, "", nil)
		return nil, nil
	}

	folded := cases.Fold().String(query)
	var matches []Match
	for page := 1; page <= e.source.PageCount(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.generation.Load() != gen {
			return nil, ErrStale
		}
		matches = append(matches, e.scanPage(page, folded)...)
	}

	if !e.publish(gen, query, matches) {
		return nil, ErrStale
	}
	e.logger.Info("search finished",
		observability.String("query", query),
		observability.Int("matches", len(matches)),
		observability.Int64(observability.MetricSearchTime, time.Since(start).Milliseconds()))
	return matches, nil
}

// publish installs results only when gen is still current.
func (e *Engine) publish(gen int64, query string, matches []Match) bool {
	if e.generation.Load() != gen {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generation.Load() != gen {
		return false
	}
	e.query = query
	e.matches = matches
	e.active = 0
	return true
}

func (e *Engine) scanPage(pageNumber int, foldedQuery string) []Match {
	if layer, ok := e.source.NativeLayer(pageNumber); ok && layer != nil && len(layer.Spans) > 0 {
		return matchNativeLayer(pageNumber, layer, foldedQuery)
	}
	if words, ok := e.source.OCRWords(pageNumber); ok && len(words) > 0 {
		return matchOCRWords(pageNumber, words, foldedQuery)
	}
	return nil
}

// Matches returns the published match list.
func (e *Engine) Matches() []Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Match, len(e.matches))
	copy(out, e.matches)
	return out
}

// Active returns the current match index, -1 when there are no matches.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.matches) == 0 {
		return -1
	}
	return e.active
}

// ActiveMatch returns the emphasized match.
func (e *Engine) ActiveMatch() (Match, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.matches) == 0 {
		return Match{}, false
	}
	return e.matches[e.active], true
}

// Next advances the active match with wraparound and returns it.
func (e *Engine) Next() (Match, bool) { return e.step(1) }

// Prev steps the active match backwards with wraparound and returns it.
func (e *Engine) Prev() (Match, bool) { return e.step(-1) }

func (e *Engine) step(delta int) (Match, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.matches)
	if n == 0 {
		return Match{}, false
	}
	e.active = (e.active + delta + n) % n
	return e.matches[e.active], true
}

// findAll returns the start offsets of every non-overlapping occurrence of
// needle in haystack. Both must already be case-folded.
func findAll(haystack, needle string) []int {
	var offsets []int
	for from := 0; ; {
		i := strings.Index(haystack[from:], needle)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, from+i)
		from += i + len(needle)
	}
}

func matchID(pageNumber, start int) string {
	return fmt.Sprintf("match-%d-%d", pageNumber, start)
}
