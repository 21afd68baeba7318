// Package gesture interprets pointer events against the active tool and
// commits finished gestures to the store. One drawing state is live at a time;
// all coordinates entering the package are already normalized to [0,1] page
// space by the caller.
package gesture

// Tool is the mutually exclusive active tool.
type Tool string

const (
	ToolSelect        Tool = "select"
	ToolAreaHighlight Tool = "highlight"
	ToolTextHighlight Tool = "textHighlight"
	ToolUnderline     Tool = "underline"
	ToolStrike        Tool = "strike"
	ToolFreehand      Tool = "freehand"
	ToolEraser        Tool = "eraser"
	ToolComment       Tool = "comment"
	ToolBookmark      Tool = "bookmark"
	ToolClip          Tool = "clip"
)

const (
	// Drags smaller than this in either normalized dimension are accidental
	// clicks, not annotations.
	minGestureSize = 0.01

	minPressure = 0.25
	maxPressure = 1.35

	// DefaultBrushSize matches the tool panel's initial brush setting.
	DefaultBrushSize = 25.6
)

// BrushSettings are the freehand tool parameters snapshotted at gesture start.
type BrushSettings struct {
	Size            float64
	Opacity         float64
	Color           string
	Mode            string // "straight" or "freehand"
	PressureEnabled bool
}

// clampPressure keeps stylus pressure samples in a sane range; zero (mouse
// input) maps to 1.
func clampPressure(p float64) float64 {
	if p == 0 {
		return 1
	}
	if p < minPressure {
		return minPressure
	}
	if p > maxPressure {
		return maxPressure
	}
	return p
}
