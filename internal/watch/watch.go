// Package watch turns writes to sentinel files into callbacks. It is the
// completion signal for dispatched evaluations: the interpreter's only
// acknowledgment is the sentinel write, observed here.
//
// Callbacks may fire more than once per logical write (rename/create/write
// sequences, slow writers). Callers must be idempotent; the coordinator
// guards on queue-head identity.
package watch

// Handle identifies an active watch. Zero is never a valid handle.
type Handle int

// Notifier registers callbacks against sentinel paths.
type Notifier interface {
	// Watch invokes fn whenever path is created or written. fn runs on the
	// notifier's own goroutine.
	Watch(path string, fn func()) (Handle, error)

	// Unwatch cancels a watch. Unknown handles are a no-op.
	Unwatch(h Handle) error
}
