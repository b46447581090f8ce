package widgets

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/mask"
)

// masked is the text and parsed value of a date or time field.
type masked struct {
	format  string
	mask    string
	text    string
	value   *time.Time
	// written is the text rendered from the last programmatic value.
	written string
}

func newMasked(format string, tokens mask.TokenSet) (masked, error) {
	if err := mask.ValidateFormat(format, tokens); err != nil {
		return masked{}, fmt.Errorf("widgets: %w", err)
	}
	return masked{format: format, mask: mask.FormatToMask(format, mask.DefaultChar)}, nil
}

func (m *masked) input(raw string) {
	m.text = mask.Apply(m.mask, raw, mask.DefaultChar)
}

// parse resolves the text. Incomplete or invalid text yields no value. Text
// still equal to the last written value keeps that value, so formats that drop
// information such as yy do not shift it.
func (m *masked) parse() {
	if m.value != nil && m.written != "" && m.text == m.written {
		return
	}
	m.written = ""
	m.value = nil
	if !mask.Complete(m.mask, m.text) {
		return
	}
	if t, ok := mask.Parse(m.format, m.text); ok {
		m.value = &t
	}
}

func (m *masked) get() any {
	if m.value == nil {
		return nil
	}
	return *m.value
}

func (m *masked) write(value any) {
	m.value, m.written = nil, ""
	switch v := value.(type) {
	case time.Time:
		if !v.IsZero() {
			m.value = &v
		}
	case *time.Time:
		if v != nil && !v.IsZero() {
			t := *v
			m.value = &t
		}
	case string:
		m.input(v)
		m.parse()
		if m.value == nil {
			m.text = ""
		}
		return
	}
	m.text = ""
	if m.value != nil {
		m.text = mask.Format(m.format, *m.value)
		m.written = m.text
	}
}

// TemporalConfig configures a DateField or TimeField.
type TemporalConfig struct {
	ID     string
	Format string
	// Picker configures the calendar popup of a DateField.
	Picker PickerConfig
}

// DateField is a masked date input with an optional calendar picker. Text
// that does not parse when the field is committed (blur or Enter) resolves to
// a nil value.
type DateField struct {
	*field.State
	masked
	picker *Picker
}

var _ field.PanelField = (*DateField)(nil)

// DefaultDateFormat is used when TemporalConfig.Format is empty.
const DefaultDateFormat = "yyyy-MM-dd"

// NewDateField creates and initialises a date field. The format may only use
// date tokens.
func NewDateField(host *field.Host, cfg TemporalConfig) (*DateField, error) {
	if cfg.Format == "" {
		cfg.Format = DefaultDateFormat
	}
	m, err := newMasked(cfg.Format, mask.DateTokens)
	if err != nil {
		return nil, err
	}
	w := &DateField{masked: m}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("date")),
		field.WithKeys(tea.KeyEnter, tea.KeyEsc, tea.KeyDown),
	)
	w.picker = newPicker(cfg.Picker, w.pick)
	w.Own(w.picker.element)
	w.Init()
	return w, nil
}

func (w *DateField) Mask() string                       { return w.mask }
func (w *DateField) Text() string                       { return w.text }
func (w *DateField) Display() string                    { return w.text }
func (w *DateField) Value() any                         { return w.get() }
func (w *DateField) Picker() *Picker                    { return w.picker }
func (w *DateField) PanelOpen() bool                    { return w.picker.open }
func (w *DateField) PanelPosition() field.PanelPosition { return field.PanelBelow }
func (w *DateField) DoOnValueChange(any)                {}
func (w *DateField) DoWriteValue(value any)             { w.write(value) }
func (w *DateField) DecoratorLayout() field.Layout      { return field.LayoutDefault }

// Input applies typed text through the mask.
func (w *DateField) Input(raw string) {
	if w.Disabled() || w.Readonly() {
		return
	}
	w.input(raw)
}

// Commit parses the text and publishes the resulting value.
func (w *DateField) Commit() {
	w.parse()
	w.OnValueChange()
}

// TogglePanel opens or closes the picker on the selected month.
func (w *DateField) TogglePanel() {
	if w.picker.open {
		w.picker.open = false
		return
	}
	if w.Disabled() || w.Readonly() {
		return
	}
	w.picker.open = true
	if w.value != nil {
		w.picker.Show(*w.value)
	} else {
		w.picker.Show(time.Now())
	}
}

// HandleKey implements field.KeyHandler.
func (w *DateField) HandleKey(ev *field.KeyEvent) {
	switch ev.Msg.Type {
	case tea.KeyEnter:
		w.Commit()
	case tea.KeyDown:
		if !w.picker.open {
			w.TogglePanel()
		}
	case tea.KeyEsc:
		w.picker.open = false
	}
}

// HandleOutsideClick implements field.OutsideClickHandler.
func (w *DateField) HandleOutsideClick() { w.picker.open = false }

// DoOnFocusChange commits on blur.
func (w *DateField) DoOnFocusChange(focused bool) {
	if !focused {
		w.Commit()
	}
}

// pick is the picker selection callback: the chosen day replaces the value
// and text, then a blur is simulated, which commits and publishes it.
func (w *DateField) pick(t time.Time) bool {
	if w.Disabled() || w.Readonly() {
		return false
	}
	w.write(t)
	w.picker.open = false
	w.OnFocusChange(false)
	return true
}

// TimeField is a masked time input.
type TimeField struct {
	*field.State
	masked
}

// DefaultTimeFormat is used when TemporalConfig.Format is empty.
const DefaultTimeFormat = "HH:mm"

// NewTimeField creates and initialises a time field. The format may only use
// time tokens.
func NewTimeField(host *field.Host, cfg TemporalConfig) (*TimeField, error) {
	if cfg.Format == "" {
		cfg.Format = DefaultTimeFormat
	}
	m, err := newMasked(cfg.Format, mask.TimeTokens)
	if err != nil {
		return nil, err
	}
	w := &TimeField{masked: m}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("time")),
		field.WithKeys(tea.KeyEnter),
	)
	w.Init()
	return w, nil
}

func (w *TimeField) Mask() string                  { return w.mask }
func (w *TimeField) Text() string                  { return w.text }
func (w *TimeField) Display() string               { return w.text }
func (w *TimeField) Value() any                    { return w.get() }
func (w *TimeField) DoOnValueChange(any)           {}
func (w *TimeField) DoWriteValue(value any)        { w.write(value) }
func (w *TimeField) DecoratorLayout() field.Layout { return field.LayoutDefault }

// Input applies typed text through the mask.
func (w *TimeField) Input(raw string) {
	if w.Disabled() || w.Readonly() {
		return
	}
	w.input(raw)
}

// Commit parses the text and publishes the resulting value.
func (w *TimeField) Commit() {
	w.parse()
	w.OnValueChange()
}

// HandleKey commits on Enter.
func (w *TimeField) HandleKey(*field.KeyEvent) { w.Commit() }

// DoOnFocusChange commits on blur.
func (w *TimeField) DoOnFocusChange(focused bool) {
	if !focused {
		w.Commit()
	}
}
