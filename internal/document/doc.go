// Package document defines the document collaborator consumed by the
// evaluation coordinator, plus an in-memory reference implementation.
//
// The coordinator never recomputes offsets itself: a document exposes live
// Position handles that survive edits, a classifier for "is this still a
// source block", a replace-result primitive, and an inline-artifact refresh
// hook. Editors integrate by satisfying these interfaces; Buffer exists so
// the coordinator can be exercised without an editor attached.
package document

// Position is a live marker into a document. Its offset is maintained by the
// owning document as text before it is inserted or deleted.
type Position interface {
	Offset() int
}

// Document is the mutable target an evaluation result is applied to.
type Document interface {
	// Key identifies the document for queue-context bookkeeping.
	Key() string

	// NewPosition returns a live marker at the given byte offset.
	NewPosition(offset int) Position

	// IsSourceBlockAt reports whether the element at p still is a source
	// block. Returns false for stale or collapsed positions.
	IsSourceBlockAt(p Position) bool

	// ReplaceResultAt writes text as the result of the block delimited by
	// start and end, overwriting a prior result if one exists.
	ReplaceResultAt(start, end Position, text string) error

	// RefreshInlineArtifacts re-renders file-type artifacts (e.g. images)
	// referenced by the document.
	RefreshInlineArtifacts()
}
