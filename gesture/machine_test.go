package gesture

import (
	"testing"
	"time"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/store"
)

type fakePrompter struct {
	comment   string
	commentOK bool
	note      string
	noteOK    bool
	lastLink  string
}

func (f *fakePrompter) PromptComment(linkedText string) (string, bool) {
	f.lastLink = linkedText
	return f.comment, f.commentOK
}

func (f *fakePrompter) PromptBookmarkNote() (string, bool) {
	return f.note, f.noteOK
}

type fakeExtractor struct {
	clip store.Clipping
	err  error
}

func (f *fakeExtractor) ExtractClip(pageNumber int, region geo.Rect) (store.Clipping, error) {
	return f.clip, f.err
}

type recordingEraser struct{ calls []geo.Point }

func (r *recordingEraser) EraseAt(pageNumber int, p geo.Point, overlay geo.Size) (string, bool) {
	r.calls = append(r.calls, p)
	return "", false
}

func newMachine(t *testing.T, opts ...MachineOption) (*Machine, *store.Store) {
	t.Helper()
	s := store.New()
	return NewMachine(s, opts...), s
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func rectNear(a, b geo.Rect) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Width, b.Width) && near(a.Height, b.Height)
}

func TestHighlightGestureCommitsRect(t *testing.T) {
	m, s := newMachine(t)
	m.SelectTool(ToolAreaHighlight)

	overlay := geo.Size{Width: 800, Height: 1000}
	m.PointerDown(1, geo.Point{X: 0.1, Y: 0.1}, 0, overlay)
	m.PointerMove(1, geo.Point{X: 0.2, Y: 0.15}, 0, overlay)
	m.PointerUp(1, geo.Point{X: 0.3, Y: 0.2}, overlay)

	anns := s.Annotations()
	if len(anns) != 1 {
		t.Fatalf("annotations = %d, want 1", len(anns))
	}
	got := *anns[0].Position
	want := geo.Rect{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1}
	if !rectNear(got, want) {
		t.Fatalf("position = %+v, want %+v", got, want)
	}
	if anns[0].Subtype != store.SubtypeArea {
		t.Fatalf("subtype = %q", anns[0].Subtype)
	}
}

func TestZeroSizeDragDiscarded(t *testing.T) {
	m, s := newMachine(t)
	overlay := geo.Size{Width: 800, Height: 1000}

	for _, tool := range []Tool{ToolAreaHighlight, ToolClip} {
		m.SelectTool(tool)
		m.PointerDown(1, geo.Point{X: 0.5, Y: 0.5}, 0, overlay)
		m.PointerUp(1, geo.Point{X: 0.505, Y: 0.505}, overlay)
	}
	if got := len(s.Annotations()); got != 0 {
		t.Fatalf("annotations = %d, want 0", got)
	}
	if got := len(s.Clippings()); got != 0 {
		t.Fatalf("clippings = %d, want 0", got)
	}
}

func TestStraightModeTwoPointInvariant(t *testing.T) {
	m, _ := newMachine(t)
	m.SetBrush(BrushSettings{Size: DefaultBrushSize, Opacity: 1, Mode: string(store.FreehandModeStraight)})
	m.SelectTool(ToolFreehand)

	overlay := geo.Size{Width: 800, Height: 1000}
	m.PointerDown(1, geo.Point{X: 0.1, Y: 0.1}, 0, overlay)
	for i := 0; i < 20; i++ {
		m.PointerMove(1, geo.Point{X: 0.1 + float64(i)*0.01, Y: 0.2}, 0, overlay)
		if n := len(m.Drawing().Points); n != 2 {
			t.Fatalf("straight mode points = %d after move %d, want 2", n, i)
		}
	}
	if m.Drawing().Points[0] != (geo.Point{X: 0.1, Y: 0.1}) {
		t.Fatalf("anchor moved: %+v", m.Drawing().Points[0])
	}
}

func TestFreeModeMonotonicGrowth(t *testing.T) {
	m, s := newMachine(t)
	m.SetBrush(BrushSettings{Size: DefaultBrushSize, Opacity: 1, Mode: string(store.FreehandModeFree)})
	m.SelectTool(ToolFreehand)

	overlay := geo.Size{Width: 800, Height: 1000}
	m.PointerDown(1, geo.Point{X: 0.1, Y: 0.1}, 0, overlay)
	prev := len(m.Drawing().Points)
	for i := 0; i < 10; i++ {
		m.PointerMove(1, geo.Point{X: 0.1 + float64(i)*0.02, Y: 0.1}, 0, overlay)
		n := len(m.Drawing().Points)
		if n < prev {
			t.Fatalf("points shrank: %d -> %d", prev, n)
		}
		prev = n
	}
	m.PointerUp(1, geo.Point{X: 0.4, Y: 0.1}, overlay)

	anns := s.Annotations()
	if len(anns) != 1 || anns[0].Kind != store.KindFreehand {
		t.Fatalf("annotations = %+v", anns)
	}
	if anns[0].StrokeWidth != DefaultBrushSize {
		t.Fatalf("stroke width = %v, want %v", anns[0].StrokeWidth, DefaultBrushSize)
	}
}

func TestPressureClamped(t *testing.T) {
	m, s := newMachine(t)
	m.SetBrush(BrushSettings{Size: 10, Opacity: 1, Mode: string(store.FreehandModeFree), PressureEnabled: true})
	m.SelectTool(ToolFreehand)

	overlay := geo.Size{Width: 800, Height: 1000}
	m.PointerDown(1, geo.Point{X: 0.1, Y: 0.1}, 9.0, overlay)
	m.PointerMove(1, geo.Point{X: 0.2, Y: 0.1}, 9.0, overlay)
	m.PointerUp(1, geo.Point{X: 0.3, Y: 0.1}, overlay)

	anns := s.Annotations()
	if len(anns) != 1 {
		t.Fatalf("annotations = %d, want 1", len(anns))
	}
	if got := anns[0].StrokeWidth; got != 10*1.35 {
		t.Fatalf("stroke width = %v, want %v", got, 10*1.35)
	}
}

func TestEraserPaintsPerMove(t *testing.T) {
	er := &recordingEraser{}
	m, _ := newMachine(t, WithEraser(er))
	m.SelectTool(ToolEraser)

	overlay := geo.Size{Width: 800, Height: 1000}
	m.PointerDown(1, geo.Point{X: 0.1, Y: 0.1}, 0, overlay)
	m.PointerMove(1, geo.Point{X: 0.2, Y: 0.1}, 0, overlay)
	m.PointerMove(1, geo.Point{X: 0.3, Y: 0.1}, 0, overlay)
	m.PointerUp(1, geo.Point{X: 0.4, Y: 0.1}, overlay)

	if got := len(er.calls); got != 4 {
		t.Fatalf("hit-test calls = %d, want 4 (down + 2 moves + up)", got)
	}
}

func TestBookmarkAutoRevertsToSelect(t *testing.T) {
	p := &fakePrompter{note: "revisit", noteOK: true}
	m, s := newMachine(t, WithPrompter(p))
	m.SelectTool(ToolBookmark)

	m.PointerDown(2, geo.Point{X: 0.5, Y: 0.5}, 0, geo.Size{Width: 800, Height: 1000})

	if got := len(s.Bookmarks()); got != 1 {
		t.Fatalf("bookmarks = %d, want 1", got)
	}
	if s.Bookmarks()[0].Note != "revisit" {
		t.Fatalf("note = %q", s.Bookmarks()[0].Note)
	}
	if m.Tool() != ToolSelect {
		t.Fatalf("tool = %q, want select", m.Tool())
	}
}

func TestCommentCancelCreatesNothing(t *testing.T) {
	p := &fakePrompter{commentOK: false}
	m, s := newMachine(t, WithPrompter(p))
	m.SelectTool(ToolComment)

	m.PointerDown(1, geo.Point{X: 0.4, Y: 0.4}, 0, geo.Size{Width: 800, Height: 1000})
	if got := len(s.Annotations()); got != 0 {
		t.Fatalf("annotations = %d, want 0", got)
	}
}

func TestCommentAnchorsAtSelectionMidpoint(t *testing.T) {
	p := &fakePrompter{comment: "interesting", commentOK: true}
	m, s := newMachine(t, WithPrompter(p))
	m.SetSelection(&Selection{
		PageNumber: 1,
		Text:       "quoted passage",
		Rects:      []geo.Rect{{X: 0.2, Y: 0.3, Width: 0.4, Height: 0.02}},
	})
	m.SelectTool(ToolComment)

	m.PointerDown(1, geo.Point{X: 0.9, Y: 0.9}, 0, geo.Size{Width: 800, Height: 1000})

	anns := s.Annotations()
	if len(anns) != 1 {
		t.Fatalf("annotations = %d, want 1", len(anns))
	}
	a := anns[0]
	if a.LinkedText != "quoted passage" {
		t.Fatalf("linked text = %q", a.LinkedText)
	}
	if !near(a.Position.X, 0.4) || !near(a.Position.Y, 0.31) {
		t.Fatalf("anchor = (%v,%v), want selection midpoint (0.4,0.31)", a.Position.X, a.Position.Y)
	}
	if p.lastLink != "quoted passage" {
		t.Fatalf("prompter saw link %q", p.lastLink)
	}
}

func TestSelectionDependentToolsRequireSelection(t *testing.T) {
	m, _ := newMachine(t)
	if err := m.ApplyTextHighlight(); err != ErrEmptySelection {
		t.Fatalf("text highlight err = %v", err)
	}
	if err := m.ApplyUnderline(); err != ErrEmptySelection {
		t.Fatalf("underline err = %v", err)
	}
	if err := m.ApplyStrike(); err != ErrEmptySelection {
		t.Fatalf("strike err = %v", err)
	}
}

func TestUnderlineAndStrikeLinePlacement(t *testing.T) {
	m, s := newMachine(t)
	m.SetSelection(&Selection{
		PageNumber: 1,
		Text:       "a line of text",
		Rects:      []geo.Rect{{X: 0.1, Y: 0.2, Width: 0.5, Height: 0.1}},
	})
	if err := m.ApplyUnderline(); err != nil {
		t.Fatalf("underline: %v", err)
	}
	if err := m.ApplyStrike(); err != nil {
		t.Fatalf("strike: %v", err)
	}

	anns := s.Annotations()
	if len(anns) != 2 {
		t.Fatalf("annotations = %d, want 2", len(anns))
	}
	for _, a := range anns {
		if len(a.Lines) != 1 {
			t.Fatalf("%s lines = %d", a.Kind, len(a.Lines))
		}
		l := a.Lines[0]
		if !near(l.X1, 0.1) || !near(l.X2, 0.6) {
			t.Fatalf("%s line must span the rect horizontally: %+v", a.Kind, l)
		}
		if l.Y1 != l.Y2 {
			t.Fatalf("%s line must be horizontal: %+v", a.Kind, l)
		}
		y := l.Y1
		switch a.Kind {
		case store.KindUnderline:
			if !near(y, 0.29) {
				t.Fatalf("underline y = %v, want 0.29", y)
			}
		case store.KindStrike:
			if !near(y, 0.25) {
				t.Fatalf("strike y = %v, want 0.25", y)
			}
		}
	}
}

func TestClipGestureCreatesClippingAndCard(t *testing.T) {
	ex := &fakeExtractor{clip: store.Clipping{Content: "lifted text", Source: store.SourceOCR, Confidence: 0.9}}
	m, s := newMachine(t, WithClipExtractor(ex))

	notified := make(chan struct{}, 8)
	s.Subscribe(func() { notified <- struct{}{} })

	m.SelectTool(ToolClip)
	overlay := geo.Size{Width: 800, Height: 1000}
	m.PointerDown(2, geo.Point{X: 0.1, Y: 0.1}, 0, overlay)
	m.PointerUp(2, geo.Point{X: 0.5, Y: 0.3}, overlay)

	// Extraction runs off the gesture path; wait for clipping + card commits.
	for i := 0; i < 2; i++ {
		select {
		case <-notified:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for clip commit %d", i)
		}
	}

	clips := s.Clippings()
	if len(clips) != 1 {
		t.Fatalf("clippings = %d, want 1", len(clips))
	}
	if clips[0].SourcePage != "2" || clips[0].Content != "lifted text" {
		t.Fatalf("clipping = %+v", clips[0])
	}
	items := s.WorkspaceItems()
	if len(items) != 1 || items[0].SourceID != clips[0].ID {
		t.Fatalf("items = %+v", items)
	}
}

func TestFreehandPaletteToggle(t *testing.T) {
	m, _ := newMachine(t)
	m.SelectTool(ToolFreehand)
	if m.PaletteOpen() {
		t.Fatalf("palette should start closed")
	}
	m.SelectTool(ToolFreehand)
	if !m.PaletteOpen() {
		t.Fatalf("re-selecting freehand should open palette")
	}
	m.SelectTool(ToolEraser)
	if m.PaletteOpen() {
		t.Fatalf("other tool should dismiss palette")
	}
}

func TestPointerDownClearsStaleDrag(t *testing.T) {
	m, _ := newMachine(t)
	m.dragID = "ws-stale"
	m.SelectTool(ToolSelect)
	m.PointerDown(1, geo.Point{X: 0.1, Y: 0.1}, 0, geo.Size{Width: 800, Height: 1000})
	if m.dragID != "" {
		t.Fatalf("stale drag ref survived pointer-down")
	}
}
