package scripting

import (
	"context"
	"time"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
	"github.com/wudi/annokit/search"
	"github.com/wudi/annokit/store"
)

const (
	pulseTTL          = 2 * time.Second
	defaultScriptTint = "#fde047"
)

// StoreDOM adapts the annotation store (and optionally a search engine) to
// the script-facing surface.
type StoreDOM struct {
	store  *store.Store
	search *search.Engine
	logger observability.Logger
}

// NewStoreDOM builds a DOM over the store. The search engine may be nil, in
// which case doc.search returns no hits.
func NewStoreDOM(s *store.Store, se *search.Engine, logger observability.Logger) *StoreDOM {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &StoreDOM{store: s, search: se, logger: logger}
}

func (d *StoreDOM) Annotations() []AnnotationInfo {
	anns := d.store.Annotations()
	out := make([]AnnotationInfo, 0, len(anns))
	for _, a := range anns {
		out = append(out, AnnotationInfo{
			ID:         a.ID,
			Kind:       string(a.Kind),
			PageNumber: a.PageNumber,
			Color:      a.Color,
			Text:       a.Text,
		})
	}
	return out
}

func (d *StoreDOM) AddHighlight(pageNumber int, x, y, width, height float64, color string) string {
	if color == "" {
		color = defaultScriptTint
	}
	added := d.store.AddAnnotation(store.Annotation{
		Kind:       store.KindHighlight,
		Subtype:    store.SubtypeArea,
		PageNumber: pageNumber,
		Color:      color,
		Position:   &geo.Rect{X: x, Y: y, Width: width, Height: height},
	})
	return added.ID
}

func (d *StoreDOM) RemoveAnnotation(id string) {
	d.store.DeleteAnnotation(id)
}

func (d *StoreDOM) Pulse(pageNumber int, x, y, width, height float64) {
	d.store.AddPulseHighlight(pageNumber, geo.Rect{X: x, Y: y, Width: width, Height: height}, "", pulseTTL)
}

func (d *StoreDOM) Search(query string) ([]SearchHit, error) {
	if d.search == nil {
		return nil, nil
	}
	matches, err := d.search.Run(context.Background(), query)
	if err != nil {
		return nil, err
	}
	hits := make([]SearchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, SearchHit{PageNumber: m.PageNumber, Start: m.Start})
	}
	return hits, nil
}

func (d *StoreDOM) Log(message string) {
	d.logger.Info("script", observability.String("message", message))
}
