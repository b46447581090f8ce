package decorator

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/presenter"
	"github.com/goliatone/go-formfields/pkg/widgets"
)

func TestDecoratorForwardsStreams(t *testing.T) {
	in := widgets.NewInput(nil, widgets.InputConfig{ID: "email"})
	d := New(in, Chrome{Label: "Email"})

	var values []any
	var focus []bool
	d.ValueChanges().Subscribe(func(v any) { values = append(values, v) })
	d.FocusChanges().Subscribe(func(f bool) { focus = append(focus, f) })

	if d.IsLabelFloating() {
		t.Fatalf("empty blurred field must not float its label")
	}

	in.OnFocusChange(true)
	if !d.Focused() || !d.IsLabelFloating() {
		t.Fatalf("focus must float the label")
	}
	in.SetText("a@b.c")
	in.OnFocusChange(false)

	if diff := cmp.Diff([]any{"a@b.c"}, values); diff != "" {
		t.Fatalf("forwarded values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, false}, focus); diff != "" {
		t.Fatalf("forwarded focus mismatch (-want +got):\n%s", diff)
	}
	if !d.Filled() || !d.IsLabelFloating() || d.ID() != "email" {
		t.Fatalf("filled field keeps the label floating: filled=%v id=%q", d.Filled(), d.ID())
	}
}

func TestDecoratorClasses(t *testing.T) {
	in := widgets.NewInput(nil, widgets.InputConfig{})
	d := New(in, Chrome{Label: "Name", Required: true})

	var snapshots [][]string
	d.Changes().Subscribe(func(classes []string) { snapshots = append(snapshots, classes) })

	if diff := cmp.Diff([]string{"field", "field-default", "required"}, d.Classes()); diff != "" {
		t.Fatalf("initial classes mismatch (-want +got):\n%s", diff)
	}

	in.OnFocusChange(true)
	want := []string{"field", "field-default", "focused", "floating", "required"}
	if diff := cmp.Diff([][]string{want}, snapshots); diff != "" {
		t.Fatalf("class changes mismatch (-want +got):\n%s", diff)
	}

	in.SetDisabledState(true)
	if !d.HasClass("disabled") || d.HasClass("focused") {
		t.Fatalf("disabling must blur and mark disabled, got %v", d.Classes())
	}
}

func TestDecoratorRender(t *testing.T) {
	in := widgets.NewInput(nil, widgets.InputConfig{})
	d := New(in, Chrome{Label: "Price", Prefix: "$", Suffix: "USD", Hint: "Per unit"}, WithWidth(20))

	out := d.Render()
	for _, want := range []string{"Price", "$", "USD", "Per unit"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}

	in.SetText("12")
	out = d.Render()
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "Price") || !strings.Contains(out, "12") {
		t.Fatalf("filled field must render the label above the value:\n%s", out)
	}
}

func TestDecoratorShowsPresenterErrors(t *testing.T) {
	c := forms.NewControl("", func(c forms.AbstractControl) forms.Errors {
		if !field.IsFilled(c.Value()) {
			return forms.Errors{"error": "Email is required", "errors": []string{"Email is required"}}
		}
		return nil
	})
	in := widgets.NewInput(nil, widgets.InputConfig{})
	forms.Bind(c, in)
	p := presenter.New(c)
	t.Cleanup(p.Close)
	d := New(in, Chrome{Label: "Email", Hint: "Work address"}, WithErrors(p))

	if d.HasClass("invalid") || strings.Contains(d.Render(), "Email is required") {
		t.Fatalf("errors must stay hidden until the control is touched")
	}

	in.OnFocusChange(true)
	in.OnFocusChange(false)

	out := d.Render()
	if !d.HasClass("invalid") || !strings.Contains(out, "Email is required") || strings.Contains(out, "Work address") {
		t.Fatalf("touched invalid field must show the error instead of the hint:\n%s", out)
	}

	in.SetText("a@b.c")
	if d.HasClass("invalid") {
		t.Fatalf("fixing the value must clear the invalid class")
	}
}

func TestDecoratorInlineLayout(t *testing.T) {
	toggle := widgets.NewToggle(nil, "enabled")
	d := New(toggle, Chrome{Label: "Enabled"})

	if !d.Layout().InlineLabel || d.DecoratorLayout() != field.LayoutInline {
		t.Fatalf("toggles use the inline layout, got %+v", d.Layout())
	}
	if !d.IsLabelFloating() {
		t.Fatalf("inline labels always float")
	}
	out := d.Render()
	if strings.Count(out, "\n") != 0 || !strings.Contains(out, "off") || !strings.Contains(out, "Enabled") {
		t.Fatalf("inline render must be a single row with value and label:\n%s", out)
	}
}

func TestDecoratorClose(t *testing.T) {
	in := widgets.NewInput(nil, widgets.InputConfig{})
	d := New(in, Chrome{})
	d.Close()
	d.Close()

	if !d.ValueChanges().Closed() || !d.FocusChanges().Closed() {
		t.Fatalf("close must close the forwarded streams")
	}
	in.SetText("x")
	if d.Filled() {
		t.Fatalf("closed decorator must stop tracking the field")
	}
}
