// Package decorator wraps a field with its surrounding chrome: label, prefix,
// suffix, hint and error line. A Decorator forwards the wrapped field's value
// and focus streams so consumers can treat it as the field itself, and keeps
// state classes (focused, filled, floating, invalid) in sync for rendering.
package decorator
