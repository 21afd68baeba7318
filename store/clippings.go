package store

import (
	"fmt"
	"strings"

	"github.com/wudi/annokit/geo"
	"github.com/wudi/annokit/observability"
)

// AddClipping stores a new excerpt, normalizing its text and assigning
// identity when unset.
func (s *Store) AddClipping(c Clipping) Clipping {
	s.mu.Lock()
	if c.ID == "" {
		c.ID = s.newClippingID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.clock.Now()
	}
	c.Content = NormalizeClippingText(c.Content)
	s.clippings = append(s.clippings, c)
	s.mu.Unlock()
	s.notify()
	return c
}

// RemoveClipping deletes a clipping, drops it from the selection, and sweeps
// workspace items that pointed at it.
func (s *Store) RemoveClipping(id string) bool {
	s.mu.Lock()
	removed := false
	for i, c := range s.clippings {
		if c.ID == id {
			s.clippings = append(s.clippings[:i], s.clippings[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		s.dropSelectionLocked(id)
		s.sweepLocked()
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
	return removed
}

// Clippings returns a snapshot of all clippings in creation order.
func (s *Store) Clippings() []Clipping {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Clipping, len(s.clippings))
	copy(out, s.clippings)
	return out
}

// ClippingByID looks up a single clipping.
func (s *Store) ClippingByID(id string) (Clipping, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clippings {
		if c.ID == id {
			return c, true
		}
	}
	return Clipping{}, false
}

// ReorderClipping moves the clipping at index from to index to.
func (s *Store) ReorderClipping(from, to int) bool {
	s.mu.Lock()
	ok := from >= 0 && from < len(s.clippings) && to >= 0 && to < len(s.clippings)
	if ok && from != to {
		c := s.clippings[from]
		s.clippings = append(s.clippings[:from], s.clippings[from+1:]...)
		rest := append([]Clipping{}, s.clippings[to:]...)
		s.clippings = append(append(s.clippings[:to:to], c), rest...)
	}
	s.mu.Unlock()
	if ok {
		s.notify()
	}
	return ok
}

// ToggleClippingSelection adds the clipping to the selection, or removes it if
// already selected. Selection order is insertion order and drives combining.
func (s *Store) ToggleClippingSelection(id string) {
	s.mu.Lock()
	found := false
	for i, sel := range s.selected {
		if sel == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.selected = append(s.selected, id)
	}
	s.mu.Unlock()
	s.notify()
}

// SelectedClippings returns the selected ids in selection order.
func (s *Store) SelectedClippings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.selected))
	copy(out, s.selected)
	return out
}

// ClearClippingSelection empties the selection.
func (s *Store) ClearClippingSelection() {
	s.mu.Lock()
	s.selected = s.selected[:0]
	s.mu.Unlock()
	s.notify()
}

func (s *Store) dropSelectionLocked(id string) {
	for i, sel := range s.selected {
		if sel == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return
		}
	}
}

// CombineClippings merges the currently selected clippings, in selection
// order, into one combined clipping. The originals are removed; the combined
// clipping carries them as segments so UncombineClipping can restore them.
// The first selected clipping anchors the result's source rect, and any
// workspace item that referenced a constituent is retargeted to the combined
// clipping (duplicates collapse to the first).
func (s *Store) CombineClippings() (Clipping, error) {
	s.mu.Lock()
	if len(s.selected) < 2 {
		n := len(s.selected)
		s.mu.Unlock()
		return Clipping{}, fmt.Errorf("combine requires at least 2 selected clippings, have %d", n)
	}

	var parts []Clipping
	for _, id := range s.selected {
		for _, c := range s.clippings {
			if c.ID == id {
				parts = append(parts, c)
				break
			}
		}
	}
	if len(parts) < 2 {
		s.mu.Unlock()
		return Clipping{}, fmt.Errorf("combine: selection references missing clippings")
	}

	segments := make([]Segment, 0, len(parts))
	contents := make([]string, 0, len(parts))
	pages := make([]string, 0, len(parts))
	seenPage := map[string]bool{}
	for i, p := range parts {
		label := fmt.Sprintf("Segment %d", i+1)
		segments = append(segments, Segment{
			ID:         p.ID,
			Label:      label,
			Content:    p.Content,
			SourcePage: p.SourcePage,
			SourceRect: p.SourceRect,
		})
		contents = append(contents, fmt.Sprintf("%s: %s", label, p.Content))
		if !seenPage[p.SourcePage] {
			seenPage[p.SourcePage] = true
			pages = append(pages, p.SourcePage)
		}
	}

	combined := Clipping{
		ID:         s.newClippingID(),
		Content:    strings.Join(contents, "\n"),
		CreatedAt:  s.clock.Now(),
		SourcePage: strings.Join(pages, ", "),
		SourceRect: parts[0].SourceRect,
		Source:     parts[0].Source,
		Combined:   true,
		Segments:   segments,
	}

	memberSet := map[string]bool{}
	for _, p := range parts {
		memberSet[p.ID] = true
	}
	kept := s.clippings[:0]
	for _, c := range s.clippings {
		if !memberSet[c.ID] {
			kept = append(kept, c)
		}
	}
	s.clippings = append(kept, combined)

	// Retarget workspace references to the combined clipping.
	retargeted := false
	keptItems := s.items[:0]
	for _, it := range s.items {
		if it.Type == ItemClip && memberSet[it.SourceID] {
			if retargeted {
				continue
			}
			it.SourceID = combined.ID
			retargeted = true
		}
		keptItems = append(keptItems, it)
	}
	s.items = keptItems

	s.selected = s.selected[:0]
	s.logger.Info("clippings combined",
		observability.Int("segments", len(segments)),
		observability.String("id", combined.ID))
	s.mu.Unlock()
	s.notify()
	return combined, nil
}

// UncombineClipping splits a combined clipping back into its segments,
// restoring each original clipping with its identity and source. Workspace
// items referencing the combined clipping follow the first restored segment.
func (s *Store) UncombineClipping(id string) ([]Clipping, error) {
	s.mu.Lock()
	idx := -1
	for i, c := range s.clippings {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("uncombine: clipping %s not found", id)
	}
	combined := s.clippings[idx]
	if !combined.Combined || len(combined.Segments) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("uncombine: clipping %s is not combined", id)
	}

	restored := make([]Clipping, 0, len(combined.Segments))
	for _, seg := range combined.Segments {
		restored = append(restored, Clipping{
			ID:         seg.ID,
			Content:    seg.Content,
			CreatedAt:  combined.CreatedAt,
			SourcePage: seg.SourcePage,
			SourceRect: seg.SourceRect,
			Source:     combined.Source,
		})
	}

	s.clippings = append(s.clippings[:idx], s.clippings[idx+1:]...)
	s.clippings = append(s.clippings, restored...)

	firstID := restored[0].ID
	for i := range s.items {
		if s.items[i].Type == ItemClip && s.items[i].SourceID == id {
			s.items[i].SourceID = firstID
		}
	}
	s.dropSelectionLocked(id)
	s.mu.Unlock()
	s.notify()
	return restored, nil
}

// ---------- workspace items ----------

// AddWorkspaceItem places a reference to a clipping or workspace comment on
// the canvas. Placement is clamped to keep the card inside the canvas. The
// reference is non-owning; a dangling source makes the item eligible for the
// next sweep.
func (s *Store) AddWorkspaceItem(itemType WorkspaceItemType, sourceID string, x, y float64) WorkspaceItem {
	s.mu.Lock()
	it := WorkspaceItem{
		ID:        s.newWorkspaceItemID(),
		Type:      itemType,
		SourceID:  sourceID,
		X:         geo.Clamp(x, 0.02, 0.98),
		Y:         geo.Clamp(y, 0.02, 0.98),
		CreatedAt: s.clock.Now(),
	}
	s.items = append(s.items, it)
	s.mu.Unlock()
	s.notify()
	return it
}

// MoveWorkspaceItem drags an item to a new canvas position.
func (s *Store) MoveWorkspaceItem(id string, x, y float64) bool {
	s.mu.Lock()
	moved := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].X = geo.Clamp(x, 0.02, 0.98)
			s.items[i].Y = geo.Clamp(y, 0.02, 0.98)
			moved = true
			break
		}
	}
	s.mu.Unlock()
	if moved {
		s.notify()
	}
	return moved
}

// RemoveWorkspaceItem removes a canvas reference without touching its source.
func (s *Store) RemoveWorkspaceItem(id string) bool {
	s.mu.Lock()
	removed := false
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
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

// WorkspaceItems returns a snapshot of canvas items.
func (s *Store) WorkspaceItems() []WorkspaceItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WorkspaceItem, len(s.items))
	copy(out, s.items)
	return out
}

// SweepWorkspace removes items whose source no longer exists and returns how
// many were dropped.
func (s *Store) SweepWorkspace() int {
	s.mu.Lock()
	dropped := s.sweepLocked()
	s.mu.Unlock()
	if dropped > 0 {
		s.notify()
	}
	return dropped
}

func (s *Store) sweepLocked() int {
	clipIDs := map[string]bool{}
	for _, c := range s.clippings {
		clipIDs[c.ID] = true
	}
	commentIDs := map[string]bool{}
	for _, c := range s.comments {
		commentIDs[c.ID] = true
	}
	kept := s.items[:0]
	dropped := 0
	for _, it := range s.items {
		alive := false
		switch it.Type {
		case ItemClip:
			alive = clipIDs[it.SourceID]
		case ItemComment:
			alive = commentIDs[it.SourceID]
		}
		if alive {
			kept = append(kept, it)
		} else {
			dropped++
		}
	}
	s.items = kept
	return dropped
}

// ---------- workspace comments ----------

// AddWorkspaceComment creates a canvas note anchored to a document region.
func (s *Store) AddWorkspaceComment(c WorkspaceComment) WorkspaceComment {
	s.mu.Lock()
	if c.ID == "" {
		c.ID = s.newCommentID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.clock.Now()
	}
	s.comments = append(s.comments, c)
	s.mu.Unlock()
	s.notify()
	return c
}

// UpdateWorkspaceComment edits a canvas note's body.
func (s *Store) UpdateWorkspaceComment(id, content string) bool {
	s.mu.Lock()
	updated := false
	for i := range s.comments {
		if s.comments[i].ID == id {
			s.comments[i].Content = content
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

// RemoveWorkspaceComment deletes a canvas note and sweeps items referencing
// it.
func (s *Store) RemoveWorkspaceComment(id string) bool {
	s.mu.Lock()
	removed := false
	for i, c := range s.comments {
		if c.ID == id {
			s.comments = append(s.comments[:i], s.comments[i+1:]...)
			removed = true
			break
		}
	}
	if removed {
		s.sweepLocked()
	}
	s.mu.Unlock()
	if removed {
		s.notify()
	}
	return removed
}

// WorkspaceComments returns a snapshot of canvas notes.
func (s *Store) WorkspaceComments() []WorkspaceComment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WorkspaceComment, len(s.comments))
	copy(out, s.comments)
	return out
}
