package widgets

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/option"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// Dropdown is a single choice presented in a popup panel.
type Dropdown struct {
	*field.State
	*optionList
	cfg   SelectConfig
	sel   single
	panel *panel
}

var (
	_ field.OptionField = (*Dropdown)(nil)
	_ field.PanelField  = (*Dropdown)(nil)
)

// NewDropdown creates and initialises a dropdown.
func NewDropdown(host *field.Host, cfg SelectConfig) *Dropdown {
	w := &Dropdown{cfg: cfg, sel: single{empty: cfg.EmptyOption}}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("dropdown")),
		field.WithKeys(tea.KeyUp, tea.KeyDown, tea.KeyEnter, tea.KeySpace, tea.KeyEsc, tea.KeyTab),
	)
	w.panel = newPanel(w.State, "dropdown")
	w.panel.place = cfg.Placement
	w.optionList = newOptionList(w.State, w.sel.selection)
	w.hidden = func() bool { return !w.panel.open }
	w.sortFn = cfg.SortFn
	w.SetOptions(cfg.Options...)
	w.Init()
	return w
}

// SetOptions replaces the inline options, keeping the empty option first.
func (w *Dropdown) SetOptions(opts ...option.Option) {
	w.optionList.SetOptions(withEmpty(w.cfg.EmptyOption, opts)...)
}

func (w *Dropdown) PanelOpen() bool                    { return w.panel.open }
func (w *Dropdown) PanelPosition() field.PanelPosition { return w.panel.position }
func (w *Dropdown) PanelElement() *field.Element       { return w.panel.element }
func (w *Dropdown) PanelChanges() *stream.Stream[bool] { return w.panel.changes }
func (w *Dropdown) ScrollIndex() int                   { return w.panel.scrolled }
func (w *Dropdown) NoOptionsText() string              { return "" }

// TogglePanel opens a closed panel and closes an open one.
func (w *Dropdown) TogglePanel() {
	if w.panel.open {
		w.ClosePanel()
		return
	}
	w.OpenPanel()
}

// OpenPanel opens the panel highlighting the selected option.
func (w *Dropdown) OpenPanel() {
	if w.Disabled() || w.Readonly() || !w.panel.setOpen(true) {
		return
	}
	w.highlightSelection()
	if w.highlight.Active() {
		w.panel.scrollTo(w.highlight.Index)
	}
}

// ClosePanel closes the panel and drops the highlight.
func (w *Dropdown) ClosePanel() {
	if w.panel.setOpen(false) {
		w.clearHighlight()
	}
}

// SelectOption commits value and closes the panel.
func (w *Dropdown) SelectOption(value string) bool {
	if w.Disabled() || w.Readonly() {
		return false
	}
	o, ok := w.selectable(value)
	if !ok {
		return false
	}
	w.sel.set(value)
	commit(o)
	w.ClosePanel()
	w.OnValueChange()
	return true
}

// HandleKey implements field.KeyHandler.
func (w *Dropdown) HandleKey(ev *field.KeyEvent) {
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
	case tea.KeyEnter, tea.KeySpace:
		if !w.panel.open {
			w.OpenPanel()
			return
		}
		if h, ok := w.highlighted(); ok {
			w.SelectOption(h.Value)
		}
	case tea.KeyEsc, tea.KeyTab:
		w.ClosePanel()
	}
}

// HandleOutsideClick implements field.OutsideClickHandler.
func (w *Dropdown) HandleOutsideClick() { w.ClosePanel() }

// HandleLayout implements field.LayoutHandler.
func (w *Dropdown) HandleLayout() {
	if w.panel.open {
		w.panel.reposition()
	}
}

func (w *Dropdown) Value() any                    { return w.sel.get() }
func (w *Dropdown) Display() string               { return displaySingle(w.optionList, &w.sel, w.cfg.Placeholder) }
func (w *Dropdown) DoOnValueChange(any)           {}
func (w *Dropdown) DoWriteValue(value any)        { w.sel.write(value) }
func (w *Dropdown) DecoratorLayout() field.Layout { return field.LayoutDefault }

// DoOnFocusChange closes the panel on blur.
func (w *Dropdown) DoOnFocusChange(focused bool) {
	if !focused {
		w.ClosePanel()
	}
}

// Destroy tears the widget down.
func (w *Dropdown) Destroy() {
	w.panel.destroy()
	w.optionList.destroy()
	w.State.Destroy()
}
