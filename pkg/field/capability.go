package field

import (
	"github.com/goliatone/go-formfields/pkg/option"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// Layout tells a decorator how to arrange chrome around a field.
type Layout string

const (
	LayoutDefault   Layout = "default"
	LayoutMultiline Layout = "multiline"
	LayoutInline    Layout = "inline"
	LayoutGroup     Layout = "group"
)

// PanelPosition is where an option panel opens relative to its field.
type PanelPosition string

const (
	PanelBelow PanelPosition = "below"
	PanelAbove PanelPosition = "above"
)

// Field is the value and focus capability every widget implements.
type Field interface {
	ID() string
	Value() any
	Focused() bool
	Filled() bool
	Disabled() bool
	Readonly() bool
	IsLabelFloating() bool
	ValueChanges() *stream.Stream[any]
	FocusChanges() *stream.Stream[bool]
	DecoratorLayout() Layout
}

// OptionField is implemented by widgets that offer a list of options.
type OptionField interface {
	Field
	Options() []option.Option
	SelectOption(value string) bool
	NoOptionsText() string
}

// PanelField is implemented by widgets with a popup option panel.
type PanelField interface {
	Field
	PanelOpen() bool
	TogglePanel()
	PanelPosition() PanelPosition
}
