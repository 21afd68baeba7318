package store

import "fmt"

// ID generation combines a millisecond timestamp with a per-store counter.
// Uniqueness within a session is the only contract; ids are not stable across
// reloads.

func (s *Store) nextID(prefix string) string {
	s.counter++
	return fmt.Sprintf("%s-%d-%d", prefix, s.clock.Now().UnixMilli(), s.counter)
}

func (s *Store) newAnnotationID() string    { return s.nextID("ann") }
func (s *Store) newClippingID() string      { return s.nextID("clip") }
func (s *Store) newBookmarkID() string      { return s.nextID("bm") }
func (s *Store) newWorkspaceItemID() string { return s.nextID("ws") }
func (s *Store) newCommentID() string       { return s.nextID("comment") }
