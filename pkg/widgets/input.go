package widgets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formfields/pkg/field"
)

// InputType is the kind of text an Input holds.
type InputType string

const (
	InputText     InputType = "text"
	InputEmail    InputType = "email"
	InputPassword InputType = "password"
	InputNumber   InputType = "number"
)

// InputConfig configures an Input or TextArea.
type InputConfig struct {
	ID          string
	Type        InputType
	Placeholder string
	// Rows is the visible height of a TextArea.
	Rows int
}

// Input is a single-line text field. Number inputs report a float64, or nil
// while the text does not parse.
type Input struct {
	*field.State
	cfg  InputConfig
	text string
}

// NewInput creates and initialises a text input.
func NewInput(host *field.Host, cfg InputConfig) *Input {
	if cfg.Type == "" {
		cfg.Type = InputText
	}
	w := &Input{cfg: cfg}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("input")),
	)
	w.Init()
	return w
}

func (w *Input) Type() InputType     { return w.cfg.Type }
func (w *Input) Placeholder() string { return w.cfg.Placeholder }
func (w *Input) Text() string        { return w.text }

// Value implements field.Hooks.
func (w *Input) Value() any {
	if w.cfg.Type != InputNumber {
		return w.text
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(w.text), 64)
	if err != nil {
		return nil
	}
	return f
}

// SetText applies user input.
func (w *Input) SetText(text string) {
	if w.Disabled() || w.Readonly() {
		return
	}
	w.text = text
	w.OnValueChange()
}

// Display renders the text, masked for passwords.
func (w *Input) Display() string {
	if w.cfg.Type == InputPassword {
		return strings.Repeat("•", len([]rune(w.text)))
	}
	return w.text
}

func (w *Input) DoOnValueChange(any)           {}
func (w *Input) DoOnFocusChange(bool)          {}
func (w *Input) DoWriteValue(value any)        { w.text = textOf(value) }
func (w *Input) DecoratorLayout() field.Layout { return field.LayoutDefault }

// TextArea is a multi-line text field.
type TextArea struct {
	*field.State
	cfg  InputConfig
	text string
}

// NewTextArea creates and initialises a text area.
func NewTextArea(host *field.Host, cfg InputConfig) *TextArea {
	if cfg.Rows <= 0 {
		cfg.Rows = 3
	}
	w := &TextArea{cfg: cfg}
	w.State = field.NewState(host, w,
		field.WithID(cfg.ID),
		field.WithElement(field.NewElement("textarea")),
	)
	w.Init()
	return w
}

func (w *TextArea) Rows() int                     { return w.cfg.Rows }
func (w *TextArea) Placeholder() string           { return w.cfg.Placeholder }
func (w *TextArea) Text() string                  { return w.text }
func (w *TextArea) Value() any                    { return w.text }
func (w *TextArea) Display() string               { return w.text }
func (w *TextArea) DoOnValueChange(any)           {}
func (w *TextArea) DoOnFocusChange(bool)          {}
func (w *TextArea) DoWriteValue(value any)        { w.text = textOf(value) }
func (w *TextArea) DecoratorLayout() field.Layout { return field.LayoutMultiline }

// SetText applies user input.
func (w *TextArea) SetText(text string) {
	if w.Disabled() || w.Readonly() {
		return
	}
	w.text = text
	w.OnValueChange()
}

func textOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}
