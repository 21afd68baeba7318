// Package report builds per-page summaries of a document's annotations,
// bookmarks and clippings, in markdown, HTML and PDF.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wudi/annokit/store"
)

// Report is one document's annotation summary, grouped by page.
type Report struct {
	Title string
	Pages []PageSection
}

// PageSection holds everything recorded on one page.
type PageSection struct {
	PageNumber  int
	Annotations []store.Annotation
	Bookmarks   []store.Bookmark
	Clippings   []store.Clipping
}

// Build snapshots the store into a report. Temporary annotations (pulse
// highlights) are excluded; pages come out in ascending order.
func Build(title string, s *store.Store) Report {
	sections := map[int]*PageSection{}
	section := func(page int) *PageSection {
		sec, ok := sections[page]
		if !ok {
			sec = &PageSection{PageNumber: page}
			sections[page] = sec
		}
		return sec
	}

	for _, a := range s.Annotations() {
		if a.IsTemporary {
			continue
		}
		sec := section(a.PageNumber)
		sec.Annotations = append(sec.Annotations, a)
	}
	for _, b := range s.Bookmarks() {
		sec := section(b.PageNumber)
		sec.Bookmarks = append(sec.Bookmarks, b)
	}
	for _, c := range s.Clippings() {
		page := store.PrimaryPageFromSource(c.SourcePage)
		sec := section(page)
		sec.Clippings = append(sec.Clippings, c)
	}

	r := Report{Title: title}
	pages := make([]int, 0, len(sections))
	for p := range sections {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	for _, p := range pages {
		r.Pages = append(r.Pages, *sections[p])
	}
	return r
}

// Markdown renders the report as a markdown document.
func (r Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Title)
	if len(r.Pages) == 0 {
		b.WriteString("_No annotations._\n")
		return b.String()
	}
	for _, sec := range r.Pages {
		fmt.Fprintf(&b, "## Page %d\n\n", sec.PageNumber)
		for _, a := range sec.Annotations {
			b.WriteString(annotationLine(a))
		}
		for _, bm := range sec.Bookmarks {
			if bm.Note != "" {
				fmt.Fprintf(&b, "- **Bookmark:** %s\n", bm.Note)
			} else {
				b.WriteString("- **Bookmark**\n")
			}
		}
		for _, c := range sec.Clippings {
			fmt.Fprintf(&b, "- **Clipping:** %s\n", firstLine(c.Content))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func annotationLine(a store.Annotation) string {
	switch a.Kind {
	case store.KindHighlight:
		if a.Text != "" {
			return fmt.Sprintf("- **Highlight:** %q\n", a.Text)
		}
		return "- **Highlight** (area)\n"
	case store.KindUnderline:
		return fmt.Sprintf("- **Underline:** %q\n", a.Text)
	case store.KindStrike:
		return fmt.Sprintf("- **Strikethrough:** %q\n", a.Text)
	case store.KindFreehand:
		return "- **Freehand stroke**\n"
	case store.KindComment:
		if a.LinkedText != "" {
			return fmt.Sprintf("- **Comment** on %q: %s\n", a.LinkedText, a.Content)
		}
		return fmt.Sprintf("- **Comment:** %s\n", a.Content)
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
