// Package widgets holds the concrete form fields. Every widget embeds a
// *field.State, supplies its own value storage through the field.Hooks
// methods and implements the capability interfaces it needs:
//
//	field.Field        Input, TextArea, DateField, TimeField, Slider, Toggle
//	field.OptionField  Select, RadioGroup, CheckboxGroup
//	field.PanelField   Dropdown, Autocomplete (also OptionField), DateField
//
// Widgets satisfy forms.Accessor, so forms.Bind connects them to a control.
// All methods are loop-affine.
package widgets
