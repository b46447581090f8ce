// Package field implements the state machine shared by every form widget:
// focus and fill tracking, the value-change and focus-change streams, the
// binding callbacks (change and touched) and the document-level listeners.
//
// A widget embeds *State and passes itself as Hooks, supplying only its value
// storage and widget-specific reactions. Keyboard events reach a widget only
// while it is focused, enabled, targeted and the key is on its allow-list.
// Pointer events outside every element the widget owns trigger its outside
// click handler. Resize and scroll are debounced by LayoutDebounce.
//
// The capability interfaces (Field, OptionField, PanelField) let consumers
// such as decorators accept only the narrow surface they need.
package field
