package widgets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/forms"
)

var (
	_ forms.Accessor = (*Input)(nil)
	_ forms.Accessor = (*Dropdown)(nil)
	_ forms.Accessor = (*CheckboxGroup)(nil)
	_ forms.Accessor = (*DateField)(nil)
	_ forms.Accessor = (*Slider)(nil)
)

func required(c forms.AbstractControl) forms.Errors {
	if !field.IsFilled(c.Value()) {
		return forms.Errors{"required": true}
	}
	return nil
}

func TestBindDropdownToControl(t *testing.T) {
	c := forms.NewControl("a", required)
	w := NewDropdown(nil, SelectConfig{Options: opts("a", "b"), EmptyOption: "None"})
	unbind := forms.Bind(c, w)

	if w.Value() != "a" || w.Display() != "Label a" {
		t.Fatalf("bind must write the control value, got %v", w.Value())
	}

	w.OnFocusChange(true)
	w.SelectOption("")
	if c.Value() != nil || !c.Dirty() || !c.Invalid() {
		t.Fatalf("view change must reach the control: value=%v dirty=%v status=%v", c.Value(), c.Dirty(), c.Status())
	}
	w.OnFocusChange(false)
	if !c.Touched() {
		t.Fatalf("blur must mark the control touched")
	}

	c.SetValue("b")
	if w.Value() != "b" {
		t.Fatalf("programmatic value must reach the view, got %v", w.Value())
	}

	c.Disable()
	if !w.Disabled() {
		t.Fatalf("disabled state must follow the control")
	}
	c.Enable()
	if w.Disabled() {
		t.Fatalf("enabled state must follow the control")
	}

	unbind()
	w.SelectOption("a")
	if c.Value() != "b" {
		t.Fatalf("unbound view must not write to the control, got %v", c.Value())
	}
}

func TestBindCheckboxGroupInsideGroup(t *testing.T) {
	tags := forms.NewControl([]string{"b"})
	root := forms.NewGroup(forms.Key("tags", tags))
	w := NewCheckboxGroup(nil, ChoiceConfig{Options: opts("a", "b")})
	forms.Bind(tags, w)

	w.SelectOption("a")
	want := map[string]any{"tags": []string{"a", "b"}}
	if diff := cmp.Diff(want, root.Value()); diff != "" {
		t.Fatalf("group value mismatch (-want +got):\n%s", diff)
	}
	if !root.Dirty() {
		t.Fatalf("view change must mark the group dirty")
	}
}
