// Package forms is the form-binding layer widgets and the validation
// orchestrator plug into: a tree of controls (Control, Group, Array) that
// tracks value, status, errors, pristine and touched state and publishes
// changes on per-control event streams.
//
// Every control belongs to a single loop. Async validators run their wait
// on a goroutine and deliver the result back to the loop attached with
// SetLoop; a newer run supersedes an older one. Without a loop the wait is
// synchronous, which is convenient for tests.
//
// Paths are dotted strings ("passwords.confirm", "items.0.name"). ControlPath
// and GroupPath derive them by identity search; GetPath, SetPath and Clone
// operate on the plain map values the tree produces.
package forms
