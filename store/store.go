package store

import (
	"sort"
	"sync"
	"time"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
)

// Store owns all annotation, bookmark, clipping and workspace state for one
// open document. Mutations are atomic at single-entity granularity; after
// every mutation batch dependent workspace items are swept and subscribers are
// notified so derived views can recompute.
type Store struct {
	mu      sync.Mutex
	clock   Clock
	logger  observability.Logger
	counter int64

	annotations []Annotation
	bookmarks   []Bookmark
	clippings   []Clipping
	items       []WorkspaceItem
	comments    []WorkspaceComment

	filters  map[Kind]bool
	selected []string // clipping ids in selection order

	subMu       sync.Mutex
	subscribers map[int]func()
	nextSubID   int
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects a clock, used by tests to control timestamps and pulse
// expiry.
func WithClock(c Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger injects a logger.
func WithLogger(l observability.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs an empty store with all annotation filters enabled.
func New(opts ...Option) *Store {
	s := &Store{
		clock:       SystemClock(),
		logger:      observability.NopLogger{},
		filters:     make(map[Kind]bool, len(Kinds)),
		subscribers: make(map[int]func()),
	}
	for _, k := range Kinds {
		s.filters[k] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to run after every mutation batch. The returned
// function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

// notify runs outside the state lock so subscribers may read the store.
func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Now exposes the store's clock.
func (s *Store) Now() time.Time { return s.clock.Now() }

// ---------- annotations ----------

// AddAnnotation inserts a new annotation, assigning ID and CreatedAt when
// unset, and keeps the collection sorted by page number.
func (s *Store) AddAnnotation(a Annotation) Annotation {
	s.mu.Lock()
	if a.ID == "" {
		a.ID = s.newAnnotationID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.clock.Now()
	}
	s.annotations = append(s.annotations, a)
	sort.SliceStable(s.annotations, func(i, j int) bool {
		return s.annotations[i].PageNumber < s.annotations[j].PageNumber
	})
	s.mu.Unlock()
	s.notify()
	return a
}

// DeleteAnnotation removes the annotation with the given id. Deleting an
// already-removed id is a no-op, which makes pulse expiry idempotent.
func (s *Store) DeleteAnnotation(id string) bool {
	s.mu.Lock()
	removed := false
	for i, a := range s.annotations {
		if a.ID == id {
			s.annotations = append(s.annotations[:i], s.annotations[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
	return removed
}

// Annotations returns a snapshot of every annotation, including temporary
// pulses and filtered-out kinds.
func (s *Store) Annotations() []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Annotation, len(s.annotations))
	copy(out, s.annotations)
	return out
}

// Visible returns the annotations that pass the kind filters, excluding
// temporary pulse highlights. Filters hide, they never delete.
func (s *Store) Visible() []Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Annotation, 0, len(s.annotations))
	for _, a := range s.annotations {
		if a.IsTemporary || !s.filters[a.Kind] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// AnnotationByID looks up a single annotation.
func (s *Store) AnnotationByID(id string) (Annotation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.annotations {
		if a.ID == id {
			return a, true
		}
	}
	return Annotation{}, false
}

// ToggleFilter flips visibility for one annotation kind.
func (s *Store) ToggleFilter(kind Kind) {
	s.mu.Lock()
	s.filters[kind] = !s.filters[kind]
	s.mu.Unlock()
	s.notify()
}

// FilterEnabled reports whether a kind currently passes the filter.
func (s *Store) FilterEnabled(kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters[kind]
}

// UpdateCommentPosition moves a comment annotation's anchor, clamped so the
// marker stays on the page.
func (s *Store) UpdateCommentPosition(id string, p geo.Point) bool {
	s.mu.Lock()
	updated := false
	for i := range s.annotations {
		a := &s.annotations[i]
		if a.ID == id && a.Kind == KindComment && a.Position != nil {
			a.Position.X = geo.Clamp(p.X, 0.02, 0.92)
			a.Position.Y = geo.Clamp(p.Y, 0.02, 0.92)
			updated = true
			break
		}
	}
	s.mu.Unlock()
	if updated {
		s.notify()
	}
	return updated
}

// UpdateCommentContent edits a comment annotation's body.
func (s *Store) UpdateCommentContent(id, content string) bool {
	s.mu.Lock()
	updated := false
	for i := range s.annotations {
		if s.annotations[i].ID == id && s.annotations[i].Kind == KindComment {
			s.annotations[i].Content = content
			updated = true
			break
		}
	}
	s.mu.Unlock()
	if updated {
		s.notify()
	}
	return updated
}

// AddPulseHighlight creates a temporary area highlight used to draw attention
// to a jump target. It expires on the next ExpirePulses call at or after
// now+ttl; deleting it earlier makes expiry a no-op.
func (s *Store) AddPulseHighlight(pageNumber int, position geo.Rect, color string, ttl time.Duration) Annotation {
	if color == "" {
		color = "#bef264"
	}
	pos := position
	return s.AddAnnotation(Annotation{
		Kind:        KindHighlight,
		Subtype:     SubtypeArea,
		PageNumber:  pageNumber,
		Color:       color,
		Position:    &pos,
		IsTemporary: true,
		ExpiresAt:   s.clock.Now().Add(ttl),
	})
}

// ExpirePulses removes every temporary highlight whose deadline has passed.
func (s *Store) ExpirePulses(now time.Time) int {
	s.mu.Lock()
	kept := s.annotations[:0]
	expired := 0
	for _, a := range s.annotations {
		if a.IsTemporary && !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt) {
			expired++
			continue
		}
		kept = append(kept, a)
	}
	s.annotations = kept
	s.mu.Unlock()
	if expired > 0 {
		s.notify()
	}
	return expired
}

// ---------- bookmarks ----------

// AddBookmark creates a bookmark at the given (clamped) position.
func (s *Store) AddBookmark(pageNumber int, position geo.Point, color, note string) Bookmark {
	s.mu.Lock()
	bm := Bookmark{
		ID:         s.newBookmarkID(),
		PageNumber: pageNumber,
		Position: geo.Point{
			X: geo.Clamp(position.X, 0.05, 0.95),
			Y: geo.Clamp(position.Y, 0.1, 0.9),
		},
		Color:     color,
		Note:      note,
		CreatedAt: s.clock.Now(),
	}
	s.bookmarks = append(s.bookmarks, bm)
	s.mu.Unlock()
	s.notify()
	return bm
}

// MoveBookmark repositions a bookmark during a drag.
func (s *Store) MoveBookmark(id string, p geo.Point) bool {
	s.mu.Lock()
	updated := false
	for i := range s.bookmarks {
		if s.bookmarks[i].ID == id {
			s.bookmarks[i].Position = geo.Point{
				X: geo.Clamp(p.X, 0.05, 0.95),
				Y: geo.Clamp(p.Y, 0.05, 0.95),
			}
			updated = true
			break
		}
	}
	s.mu.Unlock()
	if updated {
		s.notify()
	}
	return updated
}

// RemoveBookmark deletes a bookmark.
func (s *Store) RemoveBookmark(id string) bool {
	s.mu.Lock()
	removed := false
	for i, bm := range s.bookmarks {
		if bm.ID == id {
			s.bookmarks = append(s.bookmarks[:i], s.bookmarks[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
	return removed
}

// Bookmarks returns a snapshot of all bookmarks.
func (s *Store) Bookmarks() []Bookmark {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Bookmark, len(s.bookmarks))
	copy(out, s.bookmarks)
	return out
}
