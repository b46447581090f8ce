package widgets

import (
	"errors"
	"reflect"
	"slices"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/option"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// ErrMissingParent is returned when an OptionChild is created without the
// option-bearing widget it belongs to.
var ErrMissingParent = errors.New("widgets: option requires a parent option field")

// OptionHost is implemented by widgets that accept projected options.
type OptionHost interface {
	Project(c *OptionChild)
	Unproject(c *OptionChild)
	Refresh()
}

// OptionChild is an option declared outside its widget's inline list. The
// widget recombines its options one loop tick after children change.
type OptionChild struct {
	parent OptionHost
	opt    option.Option
}

// NewOptionChild attaches opt to parent.
func NewOptionChild(parent OptionHost, opt option.Option) (*OptionChild, error) {
	if isNil(parent) {
		return nil, ErrMissingParent
	}
	c := &OptionChild{parent: parent, opt: opt}
	parent.Project(c)
	return c, nil
}

// MustOptionChild is NewOptionChild for init-time wiring.
func MustOptionChild(parent OptionHost, opt option.Option) *OptionChild {
	c, err := NewOptionChild(parent, opt)
	if err != nil {
		panic(err)
	}
	return c
}

// Option returns the declared option.
func (c *OptionChild) Option() option.Option { return c.opt }

// Update mutates the option and schedules the parent refresh.
func (c *OptionChild) Update(fn func(o *option.Option)) {
	fn(&c.opt)
	c.parent.Refresh()
}

// Remove detaches the option from its parent.
func (c *OptionChild) Remove() {
	c.parent.Unproject(c)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// optionList is the option state shared by option-bearing widgets: inline
// and projected options, the combined and filtered views and the highlight.
type optionList struct {
	state     *field.State
	inline    []option.Option
	projected []*OptionChild
	combined  []option.Option
	shown     []option.Option
	query     string
	filtering bool
	sortFn    func(a, b option.Option) int
	highlight option.Highlight
	scheduled bool

	// selection reports the selected values; hidden reports whether the list
	// is currently out of view (closed panel), in which case an inactive
	// highlight is left alone.
	selection func() []string
	hidden    func() bool

	changes *stream.Stream[[]option.Option]
}

func newOptionList(state *field.State, selection func() []string) *optionList {
	return &optionList{
		state:     state,
		highlight: option.None,
		selection: selection,
		hidden:    func() bool { return false },
		changes:   stream.New[[]option.Option](),
	}
}

// SetOptions replaces the inline options.
func (l *optionList) SetOptions(opts ...option.Option) {
	l.inline = append([]option.Option(nil), opts...)
	l.recombine()
}

// SetSortFn installs a stable comparator over the combined options.
func (l *optionList) SetSortFn(fn func(a, b option.Option) int) {
	l.sortFn = fn
	l.recombine()
}

// Project implements OptionHost.
func (l *optionList) Project(c *OptionChild) {
	l.projected = append(l.projected, c)
	l.Refresh()
}

// Unproject implements OptionHost.
func (l *optionList) Unproject(c *OptionChild) {
	l.projected = slices.DeleteFunc(l.projected, func(p *OptionChild) bool { return p == c })
	l.Refresh()
}

// Refresh implements OptionHost. Bursts of child changes recombine once on
// the next loop tick.
func (l *optionList) Refresh() {
	if l.scheduled {
		return
	}
	l.scheduled = true
	l.state.Defer(func() {
		l.scheduled = false
		l.recombine()
	})
}

// Options returns the visible options with Selected and Highlighted set.
func (l *optionList) Options() []option.Option {
	selected := l.selection()
	out := make([]option.Option, len(l.shown))
	for i, o := range l.shown {
		o.Selected = slices.Contains(selected, o.Value)
		o.Highlighted = i == l.highlight.Index
		out[i] = o
	}
	return out
}

// AllOptions returns the combined options ignoring any filter.
func (l *optionList) AllOptions() []option.Option {
	return append([]option.Option(nil), l.combined...)
}

// Highlight returns the keyboard-focused option.
func (l *optionList) Highlight() option.Highlight { return l.highlight }

// OptionChanges emits the visible options after every list change.
func (l *optionList) OptionChanges() *stream.Stream[[]option.Option] { return l.changes }

func (l *optionList) recombine() {
	projected := make([]option.Option, 0, len(l.projected))
	for _, c := range l.projected {
		projected = append(projected, c.opt)
	}
	l.combined = option.Combine(l.inline, projected, l.sortFn)
	l.refilter()
}

func (l *optionList) refilter() {
	if l.filtering {
		l.shown = option.Filter(l.combined, l.query)
	} else {
		l.shown = l.combined
	}
	if l.highlight.Active() || !l.hidden() {
		l.highlight = option.Reconcile(l.shown, l.highlight, l.selection()...)
	}
	l.changes.Emit(l.Options())
}

func (l *optionList) highlightSelection() {
	l.highlight = option.Reconcile(l.shown, option.None, l.selection()...)
}

func (l *optionList) clearHighlight() {
	l.highlight = option.None
}

func (l *optionList) move(dir option.Direction) bool {
	idx := option.NextAvailableIndex(l.highlight.Index, l.shown, dir)
	if idx < 0 {
		return false
	}
	l.highlight = option.Highlight{Index: idx, Value: l.shown[idx].Value}
	return true
}

func (l *optionList) highlighted() (option.Option, bool) {
	if !l.highlight.Active() || l.highlight.Index >= len(l.shown) {
		return option.Option{}, false
	}
	return l.shown[l.highlight.Index], true
}

func (l *optionList) find(value string) (option.Option, bool) {
	if idx := option.IndexOf(l.combined, value); idx >= 0 {
		return l.combined[idx], true
	}
	return option.Option{}, false
}

func (l *optionList) label(value string) string {
	if o, ok := l.find(value); ok {
		return o.DisplayLabel()
	}
	return value
}

func (l *optionList) destroy() {
	l.changes.Close()
}

// selectable looks value up and reports whether it may be committed.
func (l *optionList) selectable(value string) (option.Option, bool) {
	o, ok := l.find(value)
	if !ok || !o.Available() {
		return option.Option{}, false
	}
	return o, true
}

func commit(o option.Option) {
	if o.Select != nil {
		o.Select()
	}
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return "", false
}
