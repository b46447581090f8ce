package decorator

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/goliatone/go-formfields/pkg/field"
)

// Layout is the chrome arrangement for a field layout kind.
type Layout struct {
	Kind field.Layout
	// Bordered draws a box around the value.
	Bordered bool
	// InlineLabel places the label after the value on the same row.
	InlineLabel bool
	// PlaceholderLabel shows the label inside the empty, blurred box.
	PlaceholderLabel bool
}

// LayoutFor maps a widget layout kind to its chrome arrangement.
func LayoutFor(kind field.Layout) Layout {
	switch kind {
	case field.LayoutInline:
		return Layout{Kind: kind, InlineLabel: true}
	case field.LayoutGroup:
		return Layout{Kind: kind}
	case field.LayoutMultiline:
		return Layout{Kind: kind, Bordered: true}
	}
	return Layout{Kind: field.LayoutDefault, Bordered: true, PlaceholderLabel: true}
}

// Styles holds the lipgloss styles used by Render.
type Styles struct {
	Label       lipgloss.Style
	Placeholder lipgloss.Style
	Affix       lipgloss.Style
	Hint        lipgloss.Style
	Error       lipgloss.Style
	Focused     lipgloss.Style
	Blurred     lipgloss.Style
	Invalid     lipgloss.Style
	Disabled    lipgloss.Style
}

// DefaultStyles returns rounded boxes coloured by state.
func DefaultStyles() Styles {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	return Styles{
		Label:       lipgloss.NewStyle().Bold(true),
		Placeholder: lipgloss.NewStyle().Faint(true),
		Affix:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Hint:        lipgloss.NewStyle().Faint(true).Padding(0, 1),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Padding(0, 1),
		Focused:     box.BorderForeground(lipgloss.Color("6")),
		Blurred:     box.BorderForeground(lipgloss.Color("8")),
		Invalid:     box.BorderForeground(lipgloss.Color("1")),
		Disabled:    box.BorderForeground(lipgloss.Color("8")).Faint(true),
	}
}
