// Package loop provides the single-threaded cooperative scheduler the field
// and form packages run on. UI callbacks, timer callbacks and deferred
// follow-ups are all tasks on one goroutine, so the packages built on top can
// keep plain mutable state without locks. Timers and debouncers post back to
// the loop rather than running on the runtime timer goroutine.
package loop
