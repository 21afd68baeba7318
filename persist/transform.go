package persist

import (
	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/store"
)

// Wire type names. Underline and strike serialize their lines as point
// pairs.
const (
	typeHighlight = "highlight"
	typeUnderline = "underline"
	typeStrike    = "strike"
	typeFreehand  = "freehand"
	typeComment   = "comment"
)

// ToShape converts an internal annotation to its wire form. ok=false means
// the kind has no wire representation.
func ToShape(a store.Annotation) (Shape, bool) {
	switch a.Kind {
	case store.KindHighlight:
		s := Shape{ID: a.ID, Type: typeHighlight, Color: a.Color, Text: a.Text}
		if a.Position != nil {
			s.X = a.Position.X
			s.Y = a.Position.Y
			s.Width = a.Position.Width
			s.Height = a.Position.Height
		} else if len(a.Rects) > 0 {
			// Text highlights flatten to their bounding rect plus the rect
			// list as corner points.
			u := a.Rects[0]
			for _, r := range a.Rects[1:] {
				u = u.Union(r)
			}
			s.X, s.Y, s.Width, s.Height = u.X, u.Y, u.Width, u.Height
			for _, r := range a.Rects {
				s.Points = append(s.Points,
					WirePoint{X: r.X, Y: r.Y},
					WirePoint{X: r.X + r.Width, Y: r.Y + r.Height})
			}
		}
		return s, true
	case store.KindUnderline, store.KindStrike:
		s := Shape{ID: a.ID, Type: typeUnderline, Color: a.Color, Text: a.Text}
		if a.Kind == store.KindStrike {
			s.Type = typeStrike
		}
		for _, l := range a.Lines {
			s.Points = append(s.Points,
				WirePoint{X: l.X1, Y: l.Y1},
				WirePoint{X: l.X2, Y: l.Y2})
		}
		return s, true
	case store.KindFreehand:
		s := Shape{ID: a.ID, Type: typeFreehand, Color: a.Color, StrokeWidth: a.StrokeWidth}
		for _, p := range a.Points {
			s.Points = append(s.Points, WirePoint{X: p.X, Y: p.Y})
		}
		return s, true
	case store.KindComment:
		s := Shape{ID: a.ID, Type: typeComment, Color: a.Color, Text: a.LinkedText}
		if a.Position != nil {
			s.X = a.Position.X
			s.Y = a.Position.Y
		}
		if a.Content != "" {
			s.Comments = []WireComment{{Text: a.Content}}
		}
		return s, true
	}
	return Shape{}, false
}

// FromShape converts a wire shape back to an internal annotation. ok=false
// flags an unknown or malformed type; callers log and skip it.
func FromShape(pageNumber int, s Shape) (store.Annotation, bool) {
	a := store.Annotation{
		ID:         s.ID,
		PageNumber: pageNumber,
		Color:      s.Color,
	}
	switch s.Type {
	case typeHighlight:
		a.Kind = store.KindHighlight
		a.Subtype = store.SubtypeArea
		a.Text = s.Text
		a.Position = &geo.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
		if len(s.Points) >= 2 && len(s.Points)%2 == 0 {
			a.Subtype = store.SubtypeText
			a.Position = nil
			for i := 0; i < len(s.Points); i += 2 {
				a.Rects = append(a.Rects, geo.RectFromCorners(
					geo.Point{X: s.Points[i].X, Y: s.Points[i].Y},
					geo.Point{X: s.Points[i+1].X, Y: s.Points[i+1].Y},
				))
			}
		}
	case typeUnderline, typeStrike:
		a.Kind = store.KindUnderline
		if s.Type == typeStrike {
			a.Kind = store.KindStrike
		}
		a.Text = s.Text
		if len(s.Points) < 2 || len(s.Points)%2 != 0 {
			return store.Annotation{}, false
		}
		for i := 0; i < len(s.Points); i += 2 {
			a.Lines = append(a.Lines, geo.Line{
				X1: s.Points[i].X, Y1: s.Points[i].Y,
				X2: s.Points[i+1].X, Y2: s.Points[i+1].Y,
			})
		}
	case typeFreehand:
		a.Kind = store.KindFreehand
		a.StrokeWidth = s.StrokeWidth
		a.BrushSize = s.StrokeWidth
		a.Mode = store.FreehandModeFree
		if len(s.Points) < 2 {
			return store.Annotation{}, false
		}
		for _, p := range s.Points {
			a.Points = append(a.Points, geo.Point{X: p.X, Y: p.Y})
		}
	case typeComment:
		a.Kind = store.KindComment
		a.LinkedText = s.Text
		a.Position = &geo.Rect{X: s.X, Y: s.Y}
		if len(s.Comments) > 0 {
			a.Content = s.Comments[0].Text
		}
	default:
		return store.Annotation{}, false
	}
	return a, true
}
