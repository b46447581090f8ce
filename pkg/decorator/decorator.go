package decorator

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/presenter"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// Chrome is the content drawn around a field.
type Chrome struct {
	Label    string
	Hint     string
	Prefix   string
	Suffix   string
	Required bool
}

// Displayer is implemented by widgets that render their value as text.
type Displayer interface {
	Display() string
}

// Option configures a Decorator.
type Option func(*Decorator)

// WithStyles replaces the default styles.
func WithStyles(styles Styles) Option {
	return func(d *Decorator) {
		d.styles = styles
	}
}

// WithErrors shows the presenter's visible errors below the field.
func WithErrors(p *presenter.Presenter) Option {
	return func(d *Decorator) {
		d.errors = p
	}
}

// WithWidth sets the rendered width of the field box. Zero lets the content
// decide.
func WithWidth(width int) Option {
	return func(d *Decorator) {
		if width > 0 {
			d.width = width
		}
	}
}

// Decorator wraps a field. It implements field.Field by delegation; value and
// focus changes are re-published on its own streams after the chrome state
// has been updated.
type Decorator struct {
	field  field.Field
	chrome Chrome
	styles Styles
	layout Layout
	errors *presenter.Presenter
	width  int

	focused bool
	filled  bool
	invalid bool

	valueChanges *stream.Stream[any]
	focusChanges *stream.Stream[bool]
	changes      *stream.Stream[[]string]
	bag          stream.Bag
}

var _ field.Field = (*Decorator)(nil)

// New wraps f.
func New(f field.Field, chrome Chrome, opts ...Option) *Decorator {
	d := &Decorator{
		field:        f,
		chrome:       chrome,
		styles:       DefaultStyles(),
		layout:       LayoutFor(f.DecoratorLayout()),
		focused:      f.Focused(),
		filled:       f.Filled(),
		valueChanges: stream.New[any](),
		focusChanges: stream.New[bool](),
		changes:      stream.New[[]string](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	d.bag.Add(f.ValueChanges().Subscribe(func(v any) {
		d.filled = field.IsFilled(v)
		d.update()
		d.valueChanges.Emit(v)
	}))
	d.bag.Add(f.FocusChanges().Subscribe(func(focused bool) {
		d.focused = focused
		d.update()
		d.focusChanges.Emit(focused)
	}))
	if d.errors != nil {
		d.invalid = len(d.errors.Errors()) > 0
		d.bag.Add(d.errors.Changes().Subscribe(func(msgs []string) {
			d.invalid = len(msgs) > 0
			d.update()
		}))
	}
	return d
}

// Field returns the wrapped field.
func (d *Decorator) Field() field.Field { return d.field }

// Chrome returns the decoration content.
func (d *Decorator) Chrome() Chrome { return d.chrome }

// Layout returns the chrome arrangement derived from the field.
func (d *Decorator) Layout() Layout { return d.layout }

func (d *Decorator) ID() string                         { return d.field.ID() }
func (d *Decorator) Value() any                         { return d.field.Value() }
func (d *Decorator) Focused() bool                      { return d.focused }
func (d *Decorator) Filled() bool                       { return d.filled }
func (d *Decorator) Disabled() bool                     { return d.field.Disabled() }
func (d *Decorator) Readonly() bool                     { return d.field.Readonly() }
func (d *Decorator) ValueChanges() *stream.Stream[any]  { return d.valueChanges }
func (d *Decorator) FocusChanges() *stream.Stream[bool] { return d.focusChanges }
func (d *Decorator) DecoratorLayout() field.Layout      { return d.layout.Kind }

// IsLabelFloating reports whether the label sits above the value. Layouts
// without a placeholder label always float it.
func (d *Decorator) IsLabelFloating() bool {
	return !d.layout.PlaceholderLabel || d.focused || d.filled
}

// Changes emits the state classes whenever they change.
func (d *Decorator) Changes() *stream.Stream[[]string] { return d.changes }

// Classes returns the state classes applied to the chrome.
func (d *Decorator) Classes() []string {
	classes := []string{"field", "field-" + string(d.layout.Kind)}
	if d.focused {
		classes = append(classes, "focused")
	}
	if d.filled {
		classes = append(classes, "filled")
	}
	if d.IsLabelFloating() {
		classes = append(classes, "floating")
	}
	if d.field.Disabled() {
		classes = append(classes, "disabled")
	}
	if d.invalid {
		classes = append(classes, "invalid")
	}
	if d.chrome.Required {
		classes = append(classes, "required")
	}
	return classes
}

// Display returns the wrapped field's text.
func (d *Decorator) Display() string {
	if disp, ok := d.field.(Displayer); ok {
		return disp.Display()
	}
	v := d.field.Value()
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Render draws the field and its chrome.
func (d *Decorator) Render() string {
	label := d.chrome.Label
	if label != "" && d.chrome.Required {
		label += " *"
	}
	value := d.Display()
	floating := d.IsLabelFloating()

	var lines []string
	switch {
	case d.layout.InlineLabel:
		box := d.box(d.affix(value))
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Center, box, " ", d.styles.Label.Render(label)))
	default:
		body := d.affix(value)
		if !floating && label != "" {
			body = d.affix(d.styles.Placeholder.Render(label))
		}
		if floating && label != "" {
			lines = append(lines, d.styles.Label.Render(label))
		}
		lines = append(lines, d.box(body))
	}

	if msg := d.message(); msg != "" {
		lines = append(lines, msg)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Close stops forwarding and closes the decorator streams.
func (d *Decorator) Close() {
	if d.bag.Released() {
		return
	}
	d.bag.Release()
	d.valueChanges.Close()
	d.focusChanges.Close()
	d.changes.Close()
}

func (d *Decorator) affix(s string) string {
	if d.chrome.Prefix != "" {
		s = d.styles.Affix.Render(d.chrome.Prefix) + " " + s
	}
	if d.chrome.Suffix != "" {
		s = s + " " + d.styles.Affix.Render(d.chrome.Suffix)
	}
	return s
}

func (d *Decorator) box(content string) string {
	style := d.styles.Blurred
	switch {
	case d.field.Disabled():
		style = d.styles.Disabled
	case d.invalid:
		style = d.styles.Invalid
	case d.focused:
		style = d.styles.Focused
	}
	if !d.layout.Bordered {
		style = style.UnsetBorderStyle()
	}
	if d.width > 0 {
		style = style.Width(d.width)
	}
	return style.Render(content)
}

// message is the first visible error, or the hint when there is none.
func (d *Decorator) message() string {
	if d.errors != nil {
		if errs := d.errors.Errors(); len(errs) > 0 {
			return d.styles.Error.Render(errs[0])
		}
	}
	if d.chrome.Hint != "" {
		return d.styles.Hint.Render(d.chrome.Hint)
	}
	return ""
}

func (d *Decorator) update() {
	d.changes.Emit(d.Classes())
}

// HasClass reports whether class is currently applied.
func (d *Decorator) HasClass(class string) bool {
	return slices.Contains(d.Classes(), class)
}
