// Package validation binds a declarative rule suite to a form tree.
//
// The Orchestrator hands out path-scoped async validators. Every call clones
// the last known form value, writes the incoming value at its path and
// buffers the clone in a per-path slot; a per-path debounce then runs the
// suite once with the latest buffered model, off the loop goroutine, and
// resolves every waiter with {"error": first, "errors": all} or nil.
//
// Form-level streams (Pending, Idle, ValueChanges, ErrorsChanges,
// DirtyChanges, ValidChanges) derive from the root control events.
// MergeValuesAndRawValues and AllFormErrors are the value and error
// aggregations those streams publish.
package validation
