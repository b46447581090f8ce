package widgets

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/option"
)

// ChoiceConfig configures a RadioGroup or CheckboxGroup.
type ChoiceConfig struct {
	ID      string
	Options []option.Option
	SortFn  func(a, b option.Option) int
}

var choiceKeys = []tea.KeyType{tea.KeyUp, tea.KeyDown, tea.KeyEnter, tea.KeySpace}

// RadioGroup selects exactly one option out of a visible list.
type RadioGroup struct {
	*field.State
	*optionList
	sel single
}

var _ field.OptionField = (*RadioGroup)(nil)

// NewRadioGroup creates and initialises a radio group.
func NewRadioGroup(host *field.Host, cfg ChoiceConfig) *RadioGroup {
	w := &RadioGroup{}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("radio-group")),
		field.WithKeys(choiceKeys...),
	)
	w.optionList = newOptionList(w.State, w.sel.selection)
	w.sortFn = cfg.SortFn
	w.SetOptions(cfg.Options...)
	w.Init()
	return w
}

// SelectOption replaces the selection with value.
func (w *RadioGroup) SelectOption(value string) bool {
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

// HandleKey moves the highlight with Up and Down and commits it with Enter
// or Space.
func (w *RadioGroup) HandleKey(ev *field.KeyEvent) {
	handleChoiceKey(w.optionList, ev, w.SelectOption)
}

func (w *RadioGroup) Value() any                    { return w.sel.get() }
func (w *RadioGroup) Display() string               { return displaySingle(w.optionList, &w.sel, "") }
func (w *RadioGroup) NoOptionsText() string         { return "" }
func (w *RadioGroup) DoOnValueChange(any)           {}
func (w *RadioGroup) DecoratorLayout() field.Layout { return field.LayoutGroup }

// DoWriteValue implements field.Hooks.
func (w *RadioGroup) DoWriteValue(value any) {
	w.sel.write(value)
	w.highlightSelection()
}

// DoOnFocusChange highlights the selection when focus arrives.
func (w *RadioGroup) DoOnFocusChange(focused bool) {
	if focused && !w.highlight.Active() {
		w.highlightSelection()
	}
}

// Destroy tears the widget down.
func (w *RadioGroup) Destroy() {
	w.optionList.destroy()
	w.State.Destroy()
}

// CheckboxGroup toggles membership of options in a list value.
type CheckboxGroup struct {
	*field.State
	*optionList
	selected []string
}

var _ field.OptionField = (*CheckboxGroup)(nil)

// NewCheckboxGroup creates and initialises a checkbox group.
func NewCheckboxGroup(host *field.Host, cfg ChoiceConfig) *CheckboxGroup {
	w := &CheckboxGroup{selected: []string{}}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("checkbox-group")),
		field.WithKeys(choiceKeys...),
	)
	w.optionList = newOptionList(w.State, w.selection)
	w.sortFn = cfg.SortFn
	w.SetOptions(cfg.Options...)
	w.Init()
	return w
}

func (w *CheckboxGroup) selection() []string { return w.selected }

// SelectOption toggles value in the selection.
func (w *CheckboxGroup) SelectOption(value string) bool {
	if w.Disabled() || w.Readonly() {
		return false
	}
	o, ok := w.selectable(value)
	if !ok {
		return false
	}
	if idx := slices.Index(w.selected, value); idx >= 0 {
		w.selected = slices.Delete(slices.Clone(w.selected), idx, idx+1)
	} else {
		w.selected = append(slices.Clone(w.selected), value)
		commit(o)
	}
	w.OnValueChange()
	return true
}

// Checked reports whether value is selected.
func (w *CheckboxGroup) Checked(value string) bool {
	return slices.Contains(w.selected, value)
}

// HandleKey moves the highlight with Up and Down and toggles it with Enter
// or Space.
func (w *CheckboxGroup) HandleKey(ev *field.KeyEvent) {
	handleChoiceKey(w.optionList, ev, w.SelectOption)
}

// Value returns the selected values in option order; values unknown to the
// option list follow in selection order.
func (w *CheckboxGroup) Value() any {
	out := make([]string, 0, len(w.selected))
	for _, o := range w.combined {
		if slices.Contains(w.selected, o.Value) {
			out = append(out, o.Value)
		}
	}
	for _, v := range w.selected {
		if option.IndexOf(w.combined, v) < 0 {
			out = append(out, v)
		}
	}
	return out
}

func (w *CheckboxGroup) NoOptionsText() string         { return "" }
func (w *CheckboxGroup) DoOnValueChange(any)           {}
func (w *CheckboxGroup) DecoratorLayout() field.Layout { return field.LayoutGroup }

// DoWriteValue accepts []string, []any or a single string.
func (w *CheckboxGroup) DoWriteValue(value any) {
	w.selected = []string{}
	switch v := value.(type) {
	case []string:
		w.selected = append(w.selected, v...)
	case []any:
		for _, item := range v {
			if s, ok := asString(item); ok {
				w.selected = append(w.selected, s)
			}
		}
	case string:
		if v != "" {
			w.selected = append(w.selected, v)
		}
	}
}

// DoOnFocusChange highlights the first available option when focus arrives.
func (w *CheckboxGroup) DoOnFocusChange(focused bool) {
	if focused && !w.highlight.Active() {
		w.move(option.Down)
	}
}

// Destroy tears the widget down.
func (w *CheckboxGroup) Destroy() {
	w.optionList.destroy()
	w.State.Destroy()
}

func handleChoiceKey(l *optionList, ev *field.KeyEvent, pick func(string) bool) {
	switch ev.Msg.Type {
	case tea.KeyDown:
		l.move(option.Down)
	case tea.KeyUp:
		l.move(option.Up)
	case tea.KeyEnter, tea.KeySpace:
		if h, ok := l.highlighted(); ok {
			pick(h.Value)
		}
	}
}
