package gesture

import (
	"errors"
	"fmt"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
	"github.com/wudi/annokit/store"
)

// ErrEmptySelection reports that a selection-dependent tool was invoked with
// no text selected. Callers surface it as a lightweight user message.
var ErrEmptySelection = errors.New("gesture: no text selected")

// Eraser removes at most one entity near the given normalized point. The
// overlay size converts device-independent stroke widths into normalized
// hit-test thresholds.
type Eraser interface {
	EraseAt(pageNumber int, p geo.Point, overlay geo.Size) (id string, erased bool)
}

// ClipExtractor lifts text out of a rectangular page region, via the native
// text layer or OCR. It runs off the gesture path; errors abort the clip
// without creating entities.
type ClipExtractor interface {
	ExtractClip(pageNumber int, region geo.Rect) (store.Clipping, error)
}

// Prompter collects free-form text from the user. ok=false means cancel.
type Prompter interface {
	PromptComment(linkedText string) (body string, ok bool)
	PromptBookmarkNote() (note string, ok bool)
}

// Selection describes the host's current text selection on a page.
type Selection struct {
	PageNumber int
	Text       string
	Rects      []geo.Rect
}

// Machine interprets pointer events against the active tool. It is not safe
// for concurrent use; pointer gestures are inherently sequential.
type Machine struct {
	store     *store.Store
	logger    observability.Logger
	eraser    Eraser
	extractor ClipExtractor
	prompter  Prompter

	tool        Tool
	brush       BrushSettings
	color       string
	paletteOpen bool

	drawing   *DrawingState
	selection *Selection

	// freehandComment opens a workspace note for each finished stroke.
	freehandComment bool

	// dragID is the entity currently captured by a drag; any pointer-down
	// clears a stale value so a lost pointer-up cannot wedge the machine.
	dragID string

	placed int
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

func WithEraser(e Eraser) MachineOption {
	return func(m *Machine) { m.eraser = e }
}

func WithClipExtractor(e ClipExtractor) MachineOption {
	return func(m *Machine) { m.extractor = e }
}

func WithPrompter(p Prompter) MachineOption {
	return func(m *Machine) { m.prompter = p }
}

func WithMachineLogger(l observability.Logger) MachineOption {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewMachine builds a state machine committing into st.
func NewMachine(st *store.Store, opts ...MachineOption) *Machine {
	m := &Machine{
		store:  st,
		logger: observability.NopLogger{},
		tool:   ToolSelect,
		color:  "#fde047",
		brush: BrushSettings{
			Size:    DefaultBrushSize,
			Opacity: 1.0,
			Color:   "#1d4ed8",
			Mode:    string(store.FreehandModeFree),
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tool returns the active tool.
func (m *Machine) Tool() Tool { return m.tool }

// PaletteOpen reports whether the floating brush palette is showing.
func (m *Machine) PaletteOpen() bool { return m.paletteOpen }

// Drawing returns the live drawing state, nil when idle.
func (m *Machine) Drawing() *DrawingState { return m.drawing }

// SetColor changes the commit color for highlight/comment/bookmark tools.
func (m *Machine) SetColor(c string) { m.color = c }

// SetBrush updates the freehand brush settings and pushes them into an
// in-flight stroke.
func (m *Machine) SetBrush(b BrushSettings) {
	m.brush = b
	if m.drawing != nil {
		m.drawing.SyncBrush(b)
	}
}

// SetFreehandCommentMode toggles opening a workspace note per finished stroke.
func (m *Machine) SetFreehandCommentMode(on bool) { m.freehandComment = on }

// SetSelection tells the machine about the host's current text selection.
// Pass nil when the selection collapses.
func (m *Machine) SetSelection(sel *Selection) { m.selection = sel }

// SelectTool switches the active tool. Re-selecting freehand toggles the
// brush palette; selecting anything else dismisses it and abandons any
// in-flight drawing.
func (m *Machine) SelectTool(t Tool) {
	if t == ToolFreehand && m.tool == ToolFreehand {
		m.paletteOpen = !m.paletteOpen
		return
	}
	m.paletteOpen = false
	if t != m.tool {
		m.drawing = nil
	}
	m.tool = t
}

// PointerDown begins a gesture on a page surface. pressure is the raw stylus
// sample (0 for mouse input); overlay is the page overlay's pixel size, used
// by eraser thresholds.
func (m *Machine) PointerDown(pageNumber int, p geo.Point, pressure float64, overlay geo.Size) {
	m.dragID = "" // recover from a lost pointer-up

	switch m.tool {
	case ToolAreaHighlight:
		m.drawing = &DrawingState{Kind: DrawHighlight, PageNumber: pageNumber, Start: p, Last: p}

	case ToolClip:
		m.drawing = &DrawingState{Kind: DrawClip, PageNumber: pageNumber, Start: p, Last: p}

	case ToolFreehand:
		d := &DrawingState{
			Kind:       DrawFreehand,
			PageNumber: pageNumber,
			Brush:      m.brush,
			Mode:       store.FreehandMode(m.brush.Mode),
			pressure:   1,
		}
		if d.Brush.PressureEnabled {
			d.pressure = clampPressure(pressure)
		}
		if d.Mode == store.FreehandModeStraight {
			// Anchor plus live head so a line renders immediately.
			d.Points = []geo.Point{p, p}
		} else {
			d.Points = []geo.Point{p}
		}
		m.drawing = d

	case ToolEraser:
		m.drawing = &DrawingState{Kind: DrawEraser, PageNumber: pageNumber, Start: p, Last: p}
		m.eraseAt(pageNumber, p, overlay)

	case ToolBookmark:
		m.commitBookmark(pageNumber, p)

	case ToolComment:
		m.commitComment(pageNumber, p)
	}
}

// PointerMove advances the live gesture. Moves on a different page than the
// gesture started on are ignored.
func (m *Machine) PointerMove(pageNumber int, p geo.Point, pressure float64, overlay geo.Size) {
	d := m.drawing
	if d == nil || d.PageNumber != pageNumber {
		return
	}
	switch d.Kind {
	case DrawHighlight, DrawClip:
		d.Last = p
	case DrawFreehand:
		if d.Mode == store.FreehandModeStraight {
			d.Points[len(d.Points)-1] = p
		} else {
			d.Points = append(d.Points, p)
		}
		if d.Brush.PressureEnabled {
			d.pressure = clampPressure(pressure)
		}
	case DrawEraser:
		d.Last = p
		m.eraseAt(pageNumber, p, overlay)
	}
}

// PointerUp finalizes the live gesture.
func (m *Machine) PointerUp(pageNumber int, p geo.Point, overlay geo.Size) {
	d := m.drawing
	if d == nil {
		return
	}
	m.drawing = nil
	if d.PageNumber != pageNumber {
		return
	}

	switch d.Kind {
	case DrawHighlight:
		d.Last = p
		rect := d.PreviewRect()
		if rect.Width < minGestureSize || rect.Height < minGestureSize {
			return // accidental click
		}
		m.store.AddAnnotation(store.Annotation{
			Kind:       store.KindHighlight,
			Subtype:    store.SubtypeArea,
			PageNumber: pageNumber,
			Color:      m.color,
			Position:   &rect,
		})

	case DrawClip:
		d.Last = p
		rect := d.PreviewRect()
		if rect.Width < minGestureSize || rect.Height < minGestureSize {
			return
		}
		m.finishClip(pageNumber, rect)

	case DrawFreehand:
		if d.Mode == store.FreehandModeStraight {
			d.Points[len(d.Points)-1] = p
		} else {
			d.Points = append(d.Points, p)
		}
		if len(d.Points) < 2 {
			return
		}
		m.store.AddAnnotation(store.Annotation{
			Kind:            store.KindFreehand,
			PageNumber:      pageNumber,
			Color:           d.Brush.Color,
			Points:          d.Points,
			StrokeWidth:     d.strokeWidth(),
			BrushSize:       d.Brush.Size,
			Mode:            d.Mode,
			PressureEnabled: d.Brush.PressureEnabled,
			Opacity:         d.Brush.Opacity,
		})
		if m.freehandComment {
			m.openStrokeComment(pageNumber, d.Points)
		}

	case DrawEraser:
		m.eraseAt(pageNumber, p, overlay)
	}
}

func (m *Machine) eraseAt(pageNumber int, p geo.Point, overlay geo.Size) {
	if m.eraser == nil {
		return
	}
	if id, ok := m.eraser.EraseAt(pageNumber, p, overlay); ok {
		m.logger.Debug("erased annotation", observability.String("id", id))
	}
}

func (m *Machine) commitBookmark(pageNumber int, p geo.Point) {
	note := ""
	if m.prompter != nil {
		n, ok := m.prompter.PromptBookmarkNote()
		if !ok {
			m.tool = ToolSelect
			return
		}
		note = n
	}
	m.store.AddBookmark(pageNumber, p, m.color, note)
	m.tool = ToolSelect // one bookmark per tool activation
}

func (m *Machine) commitComment(pageNumber int, p geo.Point) {
	anchor := p
	linked := ""
	if sel := m.selection; sel != nil && sel.Text != "" && len(sel.Rects) > 0 && sel.PageNumber == pageNumber {
		var u geo.Rect
		for i, r := range sel.Rects {
			if i == 0 {
				u = r
			} else {
				u = u.Union(r)
			}
		}
		anchor = u.Center()
		linked = sel.Text
	}
	if m.prompter == nil {
		return
	}
	body, ok := m.prompter.PromptComment(linked)
	if !ok || body == "" {
		return
	}
	m.store.AddAnnotation(store.Annotation{
		Kind:       store.KindComment,
		PageNumber: pageNumber,
		Color:      m.color,
		Position:   &geo.Rect{X: anchor.X, Y: anchor.Y},
		Content:    body,
		LinkedText: linked,
	})
}

func (m *Machine) openStrokeComment(pageNumber int, points []geo.Point) {
	if m.prompter == nil {
		return
	}
	body, ok := m.prompter.PromptComment("")
	if !ok || body == "" {
		return
	}
	bounds, ok := geo.BoundingRectFromPoints(points)
	if !ok {
		return
	}
	wc := m.store.AddWorkspaceComment(store.WorkspaceComment{
		Content:    body,
		PageNumber: pageNumber,
		SourceRect: bounds,
		SourceType: "freehand",
		Color:      m.brush.Color,
	})
	x, y := m.nextPlacement()
	m.store.AddWorkspaceItem(store.ItemComment, wc.ID, x, y)
}

// finishClip hands the region to the extractor off the gesture path; a
// successful extraction lands a clipping plus a workspace card.
func (m *Machine) finishClip(pageNumber int, region geo.Rect) {
	if m.extractor == nil {
		return
	}
	go func() {
		clip, err := m.extractor.ExtractClip(pageNumber, region)
		if err != nil {
			m.logger.Warn("clip extraction failed",
				observability.Int("page", pageNumber),
				observability.Error("error", err))
			return
		}
		clip.SourcePage = fmt.Sprintf("%d", pageNumber)
		clip.SourceRect = &region
		added := m.store.AddClipping(clip)
		x, y := m.nextPlacement()
		m.store.AddWorkspaceItem(store.ItemClip, added.ID, x, y)
	}()
}

// nextPlacement stacks new workspace cards down the left edge, cycling with a
// slight horizontal spread so cards never land exactly on top of each other.
func (m *Machine) nextPlacement() (x, y float64) {
	n := m.placed
	m.placed++
	return 0.08 + 0.015*float64(n%5), 0.10 + 0.16*float64(n%5)
}

// ApplyTextHighlight commits a text-selection highlight from the toolbar.
func (m *Machine) ApplyTextHighlight() error {
	sel := m.selection
	if sel == nil || sel.Text == "" || len(sel.Rects) == 0 {
		return ErrEmptySelection
	}
	m.store.AddAnnotation(store.Annotation{
		Kind:       store.KindHighlight,
		Subtype:    store.SubtypeText,
		PageNumber: sel.PageNumber,
		Color:      m.color,
		Rects:      append([]geo.Rect(nil), sel.Rects...),
		Text:       sel.Text,
	})
	return nil
}

// ApplyUnderline commits an underline across the selection's rects, one line
// per rect sitting near the text baseline.
func (m *Machine) ApplyUnderline() error {
	return m.applyLineAnnotation(store.KindUnderline, 0.9)
}

// ApplyStrike commits a strike-through across the selection's rects, one line
// per rect through the vertical middle.
func (m *Machine) ApplyStrike() error {
	return m.applyLineAnnotation(store.KindStrike, 0.5)
}

func (m *Machine) applyLineAnnotation(kind store.Kind, yFraction float64) error {
	sel := m.selection
	if sel == nil || sel.Text == "" || len(sel.Rects) == 0 {
		return ErrEmptySelection
	}
	lines := make([]geo.Line, 0, len(sel.Rects))
	for _, r := range sel.Rects {
		y := r.Y + r.Height*yFraction
		lines = append(lines, geo.Line{X1: r.X, Y1: y, X2: r.X + r.Width, Y2: y})
	}
	m.store.AddAnnotation(store.Annotation{
		Kind:       kind,
		PageNumber: sel.PageNumber,
		Color:      m.color,
		Lines:      lines,
		Text:       sel.Text,
	})
	return nil
}
