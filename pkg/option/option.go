// Package option holds the option entity shared by every option-bearing
// widget and the stateless list algorithms they navigate with: wrap-around
// index stepping that skips unavailable entries, inline/projected list
// combination, highlight reconciliation after list changes and label
// filtering.
package option

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Option is a single selectable value. Value must be unique within a field.
type Option struct {
	Value       string
	Label       string
	Disabled    bool
	Readonly    bool
	Selected    bool
	Highlighted bool

	// Match overrides the default label filter for autocomplete widgets.
	Match func(query string) bool
	// Select runs when the option is committed.
	Select func()
}

// DisplayLabel returns Label, falling back to Value.
func (o Option) DisplayLabel() string {
	if o.Label != "" {
		return o.Label
	}
	return o.Value
}

// Available reports whether the option can be highlighted or selected.
func (o Option) Available() bool {
	return !o.Disabled && !o.Readonly
}

// Direction is the stepping direction for keyboard navigation.
type Direction int

const (
	Down Direction = 1
	Up   Direction = -1
)

// Highlight is the keyboard-focused entry of an open list. Index -1 means
// nothing is highlighted and Value is then meaningless.
type Highlight struct {
	Index int
	Value string
}

// None is the empty highlight.
var None = Highlight{Index: -1}

// Active reports whether something is highlighted.
func (h Highlight) Active() bool {
	return h.Index >= 0
}

// NextAvailableIndex steps from current in dir, wrapping around, and returns
// the first available index. The scan visits each entry at most once; -1 is
// returned when nothing qualifies. A negative current starts before the first
// entry (Down) or after the last one (Up).
func NextAvailableIndex(current int, options []Option, dir Direction) int {
	n := len(options)
	if n == 0 {
		return -1
	}
	step := 1
	if dir == Up {
		step = -1
	}
	idx := current
	if idx < 0 || idx >= n {
		if step > 0 {
			idx = -1
		} else {
			idx = n
		}
	}
	for i := 0; i < n; i++ {
		idx = ((idx+step)%n + n) % n
		if options[idx].Available() {
			return idx
		}
	}
	return -1
}

// Combine returns inline options followed by projected ones, then applies the
// optional comparator with a stable sort.
func Combine(inline, projected []Option, less func(a, b Option) int) []Option {
	out := make([]Option, 0, len(inline)+len(projected))
	out = append(out, inline...)
	out = append(out, projected...)
	if less != nil {
		slices.SortStableFunc(out, less)
	}
	return out
}

// IndexOf returns the index of the option holding value, or -1.
func IndexOf(options []Option, value string) int {
	for i, o := range options {
		if o.Value == value {
			return i
		}
	}
	return -1
}

// Reconcile recomputes the highlight after the list changed. A selected value
// that is still available wins, then the previously highlighted value, then
// the previous index clamped into range. When the clamped entry is
// unavailable the nearest available entry below it is used, then above it.
func Reconcile(options []Option, prev Highlight, selected ...string) Highlight {
	for _, value := range selected {
		if idx := IndexOf(options, value); idx >= 0 && options[idx].Available() {
			return Highlight{Index: idx, Value: value}
		}
	}
	if !prev.Active() || len(options) == 0 {
		return None
	}
	if idx := IndexOf(options, prev.Value); idx >= 0 && options[idx].Available() {
		return Highlight{Index: idx, Value: prev.Value}
	}

	idx := min(prev.Index, len(options)-1)
	if options[idx].Available() {
		return Highlight{Index: idx, Value: options[idx].Value}
	}
	for i := idx + 1; i < len(options); i++ {
		if options[i].Available() {
			return Highlight{Index: i, Value: options[i].Value}
		}
	}
	for i := idx - 1; i >= 0; i-- {
		if options[i].Available() {
			return Highlight{Index: i, Value: options[i].Value}
		}
	}
	return None
}

// Matches applies the option's Match predicate or, without one, a
// case-insensitive substring test on the display label.
func Matches(o Option, query string) bool {
	if o.Match != nil {
		return o.Match(query)
	}
	if query == "" {
		return true
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(o.DisplayLabel()), fold.String(query))
}

// Filter keeps the options matching query, preserving order.
func Filter(options []Option, query string) []Option {
	out := make([]Option, 0, len(options))
	for _, o := range options {
		if Matches(o, query) {
			out = append(out, o)
		}
	}
	return out
}

// ExactLabel returns the option whose display label equals text, if any.
func ExactLabel(options []Option, text string) (Option, bool) {
	for _, o := range options {
		if o.DisplayLabel() == text {
			return o, true
		}
	}
	return Option{}, false
}

// Values extracts option values in order.
func Values(options []Option) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Value
	}
	return out
}
