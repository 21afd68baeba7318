// Package workspace computes the connector curves linking workspace cards
// back to their source locations on document pages. Page positions come from
// a Viewport provider so the geometry is testable without a rendering
// surface.
package workspace

import (
	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
	"github.com/wudi/annokit/store"
)

// Viewport measures where pages currently sit within the scrollable document
// pane, in the same normalized overlay space the workspace canvas uses.
// Connectors to pages that are not visible are suppressed entirely.
type Viewport interface {
	MeasurePageRect(pageNumber int) (geo.Rect, bool)
	IsPageVisible(pageNumber int) bool
}

// Connector is one curve from a source anchor to a workspace card. Combined
// clippings produce one connector per segment, all converging on the card.
type Connector struct {
	ItemID    string
	SegmentID string
	From      geo.Point
	To        geo.Point
	// Control points sit at the horizontal midpoint, pinned to each
	// endpoint's y, giving the S-curve shape.
	C0 geo.Point
	C1 geo.Point
}

// Geometry derives connectors and jump targets from store state.
type Geometry struct {
	store    *store.Store
	viewport Viewport
	logger   observability.Logger
}

// Option configures a Geometry.
type Option func(*Geometry)

// WithLogger injects a logger.
func WithLogger(l observability.Logger) Option {
	return func(g *Geometry) {
		if l != nil {
			g.logger = l
		}
	}
}

// New builds connector geometry over st and vp.
func New(st *store.Store, vp Viewport, opts ...Option) *Geometry {
	g := &Geometry{store: st, viewport: vp, logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Connectors computes every drawable connector for the current store state.
func (g *Geometry) Connectors() []Connector {
	var out []Connector
	for _, item := range g.store.WorkspaceItems() {
		to := geo.Point{X: item.X, Y: item.Y}
		switch item.Type {
		case store.ItemClip:
			clip, ok := g.store.ClippingByID(item.SourceID)
			if !ok {
				continue
			}
			if clip.Combined {
				for _, seg := range clip.Segments {
					if c, ok := g.connectorFrom(item.ID, seg.ID, store.PrimaryPageFromSource(seg.SourcePage), seg.SourceRect, to); ok {
						out = append(out, c)
					}
				}
			} else {
				page := store.PrimaryPageFromSource(clip.SourcePage)
				if c, ok := g.connectorFrom(item.ID, "", page, clip.SourceRect, to); ok {
					out = append(out, c)
				}
			}
		case store.ItemComment:
			wc, ok := g.findComment(item.SourceID)
			if !ok {
				continue
			}
			rect := wc.SourceRect
			if c, ok := g.connectorFrom(item.ID, "", wc.PageNumber, &rect, to); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

func (g *Geometry) findComment(id string) (store.WorkspaceComment, bool) {
	for _, wc := range g.store.WorkspaceComments() {
		if wc.ID == id {
			return wc, true
		}
	}
	return store.WorkspaceComment{}, false
}

// connectorFrom anchors a curve at the source rect's center projected into
// overlay space. Off-screen pages yield no connector at all rather than a
// curve to an off-canvas point.
func (g *Geometry) connectorFrom(itemID, segmentID string, pageNumber int, sourceRect *geo.Rect, to geo.Point) (Connector, bool) {
	if sourceRect == nil || !g.viewport.IsPageVisible(pageNumber) {
		return Connector{}, false
	}
	pageRect, ok := g.viewport.MeasurePageRect(pageNumber)
	if !ok {
		return Connector{}, false
	}
	center := sourceRect.Center()
	from := geo.Point{
		X: pageRect.X + center.X*pageRect.Width,
		Y: pageRect.Y + center.Y*pageRect.Height,
	}
	midX := (from.X + to.X) / 2
	return Connector{
		ItemID:    itemID,
		SegmentID: segmentID,
		From:      from,
		To:        to,
		C0:        geo.Point{X: midX, Y: from.Y},
		C1:        geo.Point{X: midX, Y: to.Y},
	}, true
}

// SamplePath evaluates the connector's Bezier at n+1 evenly spaced parameters
// for renderers that cannot draw curves natively.
func SamplePath(c Connector, n int) []geo.Point {
	if n < 1 {
		n = 1
	}
	pts := make([]geo.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		pts = append(pts, geo.CubicBezierPoint(c.From, c.C0, c.C1, c.To, t))
	}
	return pts
}

// JumpTarget resolves where clicking a workspace card should scroll to: the
// source page and the rect to pulse-highlight there.
func (g *Geometry) JumpTarget(itemID string) (pageNumber int, rect geo.Rect, ok bool) {
	for _, item := range g.store.WorkspaceItems() {
		if item.ID != itemID {
			continue
		}
		switch item.Type {
		case store.ItemClip:
			clip, found := g.store.ClippingByID(item.SourceID)
			if !found || clip.SourceRect == nil {
				return 0, geo.Rect{}, false
			}
			return store.PrimaryPageFromSource(clip.SourcePage), *clip.SourceRect, true
		case store.ItemComment:
			wc, found := g.findComment(item.SourceID)
			if !found {
				return 0, geo.Rect{}, false
			}
			return wc.PageNumber, wc.SourceRect, true
		}
	}
	return 0, geo.Rect{}, false
}
