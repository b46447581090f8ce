package widgets

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/option"
)

// SelectConfig configures a Select or Dropdown.
type SelectConfig struct {
	ID      string
	Options []option.Option
	// EmptyOption labels a leading choice that clears the selection.
	EmptyOption string
	SortFn      func(a, b option.Option) int
	Placeholder string
	// Placement feeds the panel flip decision of a Dropdown.
	Placement Placement
}

// Select is an inline single choice: arrow keys move the selection itself.
type Select struct {
	*field.State
	*optionList
	cfg SelectConfig
	sel single
}

var _ field.OptionField = (*Select)(nil)

// NewSelect creates and initialises a select.
func NewSelect(host *field.Host, cfg SelectConfig) *Select {
	w := &Select{cfg: cfg, sel: single{empty: cfg.EmptyOption}}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("select")),
		field.WithKeys(tea.KeyUp, tea.KeyDown),
	)
	w.optionList = newOptionList(w.State, w.sel.selection)
	w.sortFn = cfg.SortFn
	w.SetOptions(cfg.Options...)
	w.Init()
	return w
}

// SetOptions replaces the inline options, keeping the empty option first.
func (w *Select) SetOptions(opts ...option.Option) {
	w.optionList.SetOptions(withEmpty(w.cfg.EmptyOption, opts)...)
}

// SelectOption selects value. Unknown and unavailable values are refused.
func (w *Select) SelectOption(value string) bool {
	if w.Disabled() || w.Readonly() {
		return false
	}
	o, ok := w.selectable(value)
	if !ok {
		return false
	}
	w.sel.set(value)
	w.highlightSelection()
	commit(o)
	w.OnValueChange()
	return true
}

// HandleKey steps the selection over available options.
func (w *Select) HandleKey(ev *field.KeyEvent) {
	dir := option.Down
	if ev.Msg.Type == tea.KeyUp {
		dir = option.Up
	}
	if w.move(dir) {
		w.SelectOption(w.highlight.Value)
	}
}

func (w *Select) Value() any                    { return w.sel.get() }
func (w *Select) Display() string               { return displaySingle(w.optionList, &w.sel, w.cfg.Placeholder) }
func (w *Select) NoOptionsText() string         { return "" }
func (w *Select) DoOnValueChange(any)           {}
func (w *Select) DoOnFocusChange(bool)          {}
func (w *Select) DecoratorLayout() field.Layout { return field.LayoutDefault }

// DoWriteValue implements field.Hooks.
func (w *Select) DoWriteValue(value any) {
	w.sel.write(value)
	w.highlightSelection()
}

// Destroy tears the widget down.
func (w *Select) Destroy() {
	w.optionList.destroy()
	w.State.Destroy()
}

func displaySingle(l *optionList, s *single, placeholder string) string {
	if s.value == nil {
		return placeholder
	}
	return l.label(*s.value)
}
