package widgets

import (
	"math"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/goliatone/go-formfields/pkg/field"
)

// SliderConfig configures a Slider. Step defaults to 1 and Max to Min+100.
type SliderConfig struct {
	ID   string
	Min  float64
	Max  float64
	Step float64
}

// Slider holds a number clamped to [Min, Max] and snapped to Min plus a
// multiple of Step.
type Slider struct {
	*field.State
	cfg        SliderConfig
	value      float64
	correcting bool
}

// NewSlider creates and initialises a slider at its minimum.
func NewSlider(host *field.Host, cfg SliderConfig) *Slider {
	if cfg.Step <= 0 {
		cfg.Step = 1
	}
	if cfg.Max <= cfg.Min {
		cfg.Max = cfg.Min + 100
	}
	w := &Slider{cfg: cfg, value: cfg.Min}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("slider")),
		field.WithKeys(tea.KeyLeft, tea.KeyRight, tea.KeyUp, tea.KeyDown, tea.KeyHome, tea.KeyEnd),
	)
	w.Init()
	return w
}

func (w *Slider) Min() float64                  { return w.cfg.Min }
func (w *Slider) Max() float64                  { return w.cfg.Max }
func (w *Slider) Step() float64                 { return w.cfg.Step }
func (w *Slider) Value() any                    { return w.value }
func (w *Slider) DoOnValueChange(any)           {}
func (w *Slider) DoOnFocusChange(bool)          {}
func (w *Slider) DecoratorLayout() field.Layout { return field.LayoutInline }

// Display renders the value without trailing zeros.
func (w *Slider) Display() string {
	return strconv.FormatFloat(w.value, 'f', -1, 64)
}

// Normalize clamps v into range, then rounds it to the nearest step from Min.
func (w *Slider) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return w.cfg.Min
	}
	v = math.Max(w.cfg.Min, math.Min(w.cfg.Max, v))
	steps := math.Round((v - w.cfg.Min) / w.cfg.Step)
	out := w.cfg.Min + steps*w.cfg.Step
	if out > w.cfg.Max {
		out -= w.cfg.Step
	}
	// drop float noise such as 0.30000000000000004
	return math.Round(out*1e9) / 1e9
}

// SetValue applies user input.
func (w *Slider) SetValue(v float64) {
	if w.Disabled() || w.Readonly() {
		return
	}
	w.value = w.Normalize(v)
	w.OnValueChange()
}

// HandleKey steps the value.
func (w *Slider) HandleKey(ev *field.KeyEvent) {
	switch ev.Msg.Type {
	case tea.KeyRight, tea.KeyUp:
		w.SetValue(w.value + w.cfg.Step)
	case tea.KeyLeft, tea.KeyDown:
		w.SetValue(w.value - w.cfg.Step)
	case tea.KeyHome:
		w.SetValue(w.cfg.Min)
	case tea.KeyEnd:
		w.SetValue(w.cfg.Max)
	}
}

// DoWriteValue stores the normalised value. When the written value had to be
// corrected, or was not already a float64, the stored value is pushed back to
// the binding layer on the next loop tick rather than from inside the write.
// Writes within one tick share a single push.
func (w *Slider) DoWriteValue(value any) {
	raw, ok := number(value)
	if !ok {
		raw = w.cfg.Min
	}
	w.value = w.Normalize(raw)
	_, exact := value.(float64)
	if value == nil || (exact && w.value == raw) || w.correcting {
		return
	}
	w.correcting = true
	w.Defer(func() {
		w.correcting = false
		w.Propagate()
	})
}

func number(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Toggle is an on/off switch.
type Toggle struct {
	*field.State
	on bool
}

// NewToggle creates and initialises a toggle.
func NewToggle(host *field.Host, id string) *Toggle {
	w := &Toggle{}
	w.State = field.NewState(host, w,
		field.WithID(id),
		field.WithElement(field.NewElement("toggle")),
		field.WithKeys(tea.KeySpace, tea.KeyEnter),
	)
	w.Init()
	return w
}

func (w *Toggle) On() bool                      { return w.on }
func (w *Toggle) Value() any                    { return w.on }
func (w *Toggle) DoOnValueChange(any)           {}
func (w *Toggle) DoOnFocusChange(bool)          {}
func (w *Toggle) DecoratorLayout() field.Layout { return field.LayoutInline }
func (w *Toggle) HandleKey(*field.KeyEvent)     { w.Flip() }

// Display renders the switch state.
func (w *Toggle) Display() string {
	if w.on {
		return "on"
	}
	return "off"
}

// Flip applies a user toggle.
func (w *Toggle) Flip() {
	if w.Disabled() || w.Readonly() {
		return
	}
	w.on = !w.on
	w.OnValueChange()
}

// DoWriteValue accepts booleans and boolean-like strings.
func (w *Toggle) DoWriteValue(value any) {
	switch v := value.(type) {
	case bool:
		w.on = v
	case string:
		b, _ := strconv.ParseBool(v)
		w.on = b
	default:
		w.on = false
	}
}
