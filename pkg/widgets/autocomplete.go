package widgets

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/option"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// FilterDebounce is the quiet window between typing and filtering.
const FilterDebounce = 200 * time.Millisecond

// DefaultNoOptionsText is shown when an autocomplete filter matches nothing.
const DefaultNoOptionsText = "No options"

// AutocompleteConfig configures an Autocomplete.
type AutocompleteConfig struct {
	ID            string
	Options       []option.Option
	SortFn        func(a, b option.Option) int
	Placeholder   string
	NoOptionsText string
	Placement     Placement
}

// Autocomplete is a text input filtering a popup option list. Its value is
// the selected option value; the typed text only drives the filter.
type Autocomplete struct {
	*field.State
	*optionList
	cfg   AutocompleteConfig
	sel   single
	panel *panel
	text  string

	lastQuery string
	queried   bool
	filter    *loop.Debouncer[string]
}

var (
	_ field.OptionField = (*Autocomplete)(nil)
	_ field.PanelField  = (*Autocomplete)(nil)
)

// NewAutocomplete creates and initialises an autocomplete.
func NewAutocomplete(host *field.Host, cfg AutocompleteConfig) *Autocomplete {
	if cfg.NoOptionsText == "" {
		cfg.NoOptionsText = DefaultNoOptionsText
	}
	w := &Autocomplete{cfg: cfg}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("autocomplete")),
		field.WithKeys(tea.KeyUp, tea.KeyDown, tea.KeyEnter, tea.KeyEsc, tea.KeyTab),
	)
	w.panel = newPanel(w.State, "autocomplete")
	w.panel.place = cfg.Placement
	w.optionList = newOptionList(w.State, w.sel.selection)
	w.hidden = func() bool { return !w.panel.open }
	w.sortFn = cfg.SortFn
	if host != nil && host.Loop != nil {
		w.filter = loop.NewDebouncer[string](host.Loop, FilterDebounce)
	}
	w.SetOptions(cfg.Options...)
	w.Init()
	return w
}

func (w *Autocomplete) Text() string                       { return w.text }
func (w *Autocomplete) Display() string                    { return w.text }
func (w *Autocomplete) Value() any                         { return w.sel.get() }
func (w *Autocomplete) NoOptionsText() string              { return w.cfg.NoOptionsText }
func (w *Autocomplete) PanelOpen() bool                    { return w.panel.open }
func (w *Autocomplete) PanelPosition() field.PanelPosition { return w.panel.position }
func (w *Autocomplete) PanelElement() *field.Element       { return w.panel.element }
func (w *Autocomplete) PanelChanges() *stream.Stream[bool] { return w.panel.changes }
func (w *Autocomplete) ScrollIndex() int                   { return w.panel.scrolled }
func (w *Autocomplete) DoOnValueChange(any)                {}
func (w *Autocomplete) DecoratorLayout() field.Layout      { return field.LayoutDefault }

// Input applies typed text. Filtering runs FilterDebounce after the last
// keystroke, only for a query that differs from the previous one and only
// while the field is still focused.
func (w *Autocomplete) Input(text string) {
	if w.Disabled() || w.Readonly() {
		return
	}
	w.text = text
	if w.filter == nil {
		w.applyFilter(text)
		return
	}
	w.filter.Trigger("filter", func() { w.applyFilter(text) })
}

func (w *Autocomplete) applyFilter(query string) {
	if w.Destroyed() || (w.queried && query == w.lastQuery) {
		return
	}
	w.lastQuery, w.queried = query, true
	if !w.Focused() {
		return
	}

	if w.sel.value != nil {
		w.sel.clear()
		w.OnValueChange()
	}
	w.filtering, w.query = true, query
	w.refilter()

	if o, ok := option.ExactLabel(w.shown, query); ok && o.Available() {
		w.sel.set(o.Value)
		commit(o)
		w.OnValueChange()
	}

	if !w.panel.open {
		w.OpenPanel()
		return
	}
	w.highlightSelection()
	w.panel.reposition()
}

// TogglePanel opens a closed panel and closes an open one.
func (w *Autocomplete) TogglePanel() {
	if w.panel.open {
		w.ClosePanel()
		return
	}
	w.OpenPanel()
}

// OpenPanel opens the panel highlighting the selected option.
func (w *Autocomplete) OpenPanel() {
	if w.Disabled() || w.Readonly() || !w.panel.setOpen(true) {
		return
	}
	w.highlightSelection()
	if w.highlight.Active() {
		w.panel.scrollTo(w.highlight.Index)
	}
}

// ClosePanel closes the panel and drops the highlight.
func (w *Autocomplete) ClosePanel() {
	if w.panel.setOpen(false) {
		w.clearHighlight()
	}
}

// SelectOption commits value, shows its label and resets the filter.
func (w *Autocomplete) SelectOption(value string) bool {
	if w.Disabled() || w.Readonly() {
		return false
	}
	o, ok := w.selectable(value)
	if !ok {
		return false
	}
	if w.filter != nil {
		w.filter.Cancel("filter")
	}
	w.sel.set(value)
	w.text = o.DisplayLabel()
	w.lastQuery, w.queried = w.text, true
	commit(o)
	w.ClosePanel()
	w.resetFilter()
	w.OnValueChange()
	return true
}

func (w *Autocomplete) resetFilter() {
	if !w.filtering {
		return
	}
	w.filtering, w.query = false, ""
	w.refilter()
}

// HandleKey implements field.KeyHandler.
func (w *Autocomplete) HandleKey(ev *field.KeyEvent) {
	switch ev.Msg.Type {
	case tea.KeyDown:
		if !w.panel.open {
			w.OpenPanel()
			return
		}
		if w.move(option.Down) {
			w.panel.scrollTo(w.highlight.Index)
		}
	case tea.KeyUp:
		if w.panel.open && w.move(option.Up) {
			w.panel.scrollTo(w.highlight.Index)
		}
	case tea.KeyEnter:
		if h, ok := w.highlighted(); ok && w.panel.open {
			w.SelectOption(h.Value)
		}
	case tea.KeyEsc, tea.KeyTab:
		w.ClosePanel()
	}
}

// HandleOutsideClick implements field.OutsideClickHandler.
func (w *Autocomplete) HandleOutsideClick() { w.ClosePanel() }

// HandleLayout implements field.LayoutHandler.
func (w *Autocomplete) HandleLayout() {
	if w.panel.open {
		w.panel.reposition()
	}
}

// DoWriteValue shows the label of the written value.
func (w *Autocomplete) DoWriteValue(value any) {
	w.sel.write(value)
	w.text = ""
	if w.sel.value != nil {
		w.text = w.label(*w.sel.value)
	}
	w.lastQuery, w.queried = w.text, true
	w.resetFilter()
}

// DoOnFocusChange drops pending filtering and closes the panel on blur.
func (w *Autocomplete) DoOnFocusChange(focused bool) {
	if focused {
		return
	}
	if w.filter != nil {
		w.filter.Cancel("filter")
	}
	w.ClosePanel()
}

// Destroy tears the widget down.
func (w *Autocomplete) Destroy() {
	if w.filter != nil {
		w.filter.Stop()
	}
	w.panel.destroy()
	w.optionList.destroy()
	w.State.Destroy()
}
