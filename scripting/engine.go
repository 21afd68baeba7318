// Package scripting runs user automation scripts against a guarded view of
// the annotation state. Scripts get a small DOM: list, add and remove
// annotations, fire pulse highlights, and run searches. They never touch the
// store types directly.
package scripting

import (
	"context"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a script; the context interrupts long-running scripts.
	Execute(ctx context.Context, script string) (interface{}, error)

	// RegisterDOM wires the document model into the engine's global scope.
	RegisterDOM(dom DocumentDOM) error
}

// AnnotationInfo is the read-only annotation view handed to scripts.
type AnnotationInfo struct {
	ID         string
	Kind       string
	PageNumber int
	Color      string
	Text       string
}

// SearchHit is one search result exposed to scripts.
type SearchHit struct {
	PageNumber int
	Start      int
}

// DocumentDOM exposes the annotated document to scripts. Implementations
// guard the underlying state; scripts only see this surface.
type DocumentDOM interface {
	// Annotations lists the current annotations.
	Annotations() []AnnotationInfo

	// AddHighlight creates an area highlight and returns its id.
	AddHighlight(pageNumber int, x, y, width, height float64, color string) string

	// RemoveAnnotation deletes an annotation by id. Unknown ids are no-ops.
	RemoveAnnotation(id string)

	// Pulse fires a temporary pulse highlight on the given rect.
	Pulse(pageNumber int, x, y, width, height float64)

	// Search runs a document search and returns the hits.
	Search(query string) ([]SearchHit, error)

	// Log emits a message through the host's logger.
	Log(message string)
}
