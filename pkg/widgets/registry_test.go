package widgets

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/option"
)

func optionsN(n int) []option.Option {
	out := make([]option.Option, n)
	for i := range out {
		out[i] = option.Option{Value: string(rune('a' + i))}
	}
	return out
}

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	def := Definition{
		Type: "boolean",
		Metadata: map[string]string{
			"widget": "custom-toggle",
		},
	}

	if got, ok := reg.Resolve(def); !ok || got != "custom-toggle" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}

	def.Widget = WidgetRadio
	if got, _ := reg.Resolve(def); got != WidgetRadio {
		t.Fatalf("Widget field must take precedence over metadata, got %q", got)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		def    Definition
		expect string
	}{
		{name: "boolean toggle", def: Definition{Type: "boolean"}, expect: WidgetToggle},
		{name: "array with options", def: Definition{Type: "array", Options: optionsN(2)}, expect: WidgetCheckbox},
		{name: "few options", def: Definition{Type: "string", Options: optionsN(3)}, expect: WidgetDropdown},
		{name: "many options", def: Definition{Type: "string", Options: optionsN(12)}, expect: WidgetAutocomplete},
		{name: "date type", def: Definition{Type: "date"}, expect: WidgetDate},
		{name: "date format", def: Definition{Type: "string", Format: "date"}, expect: WidgetDate},
		{name: "time", def: Definition{Type: "time"}, expect: WidgetTime},
		{name: "bounded number", def: Definition{Type: "number", Min: 0, Max: 10}, expect: WidgetSlider},
		{name: "unbounded number", def: Definition{Type: "integer"}, expect: WidgetInput},
		{name: "textarea", def: Definition{Type: "string", Format: "textarea"}, expect: WidgetTextArea},
		{name: "plain string", def: Definition{Type: "string"}, expect: WidgetInput},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := reg.Resolve(tc.def)
			if !ok {
				t.Fatalf("expected resolution for %s", tc.name)
			}
			if got != tc.expect {
				t.Fatalf("resolve %s: want %q, got %q", tc.name, tc.expect, got)
			}
		})
	}
}

func TestResolve_PriorityOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("custom", 999, func(def Definition) bool {
		return def.Type == "boolean"
	})

	got, ok := reg.Resolve(Definition{Type: "boolean"})
	if !ok || got != "custom" {
		t.Fatalf("priority matcher should win, got %q (ok=%v)", got, ok)
	}
}

func TestBuild(t *testing.T) {
	reg := NewRegistry()
	host := field.NewHost(nil)

	w, err := reg.Build(host, Definition{Name: "email", Type: "string", Format: "email"})
	if err != nil {
		t.Fatalf("build input: %v", err)
	}
	in, ok := w.(*Input)
	if !ok {
		t.Fatalf("expected *Input, got %T", w)
	}
	if in.Type() != InputEmail || in.ID() != "email" {
		t.Fatalf("unexpected input type=%q id=%q", in.Type(), in.ID())
	}

	w, err = reg.Build(host, Definition{Name: "when", Type: "date", Metadata: map[string]string{"format": "dd/MM/yyyy"}})
	if err != nil {
		t.Fatalf("build date: %v", err)
	}
	if got := w.(*DateField).Mask(); got != "00/00/0000" {
		t.Fatalf("unexpected date mask %q", got)
	}

	if _, err := reg.Build(host, Definition{Name: "bad", Type: "date", Metadata: map[string]string{"format": "QQ"}}); err == nil {
		t.Fatalf("expected invalid date format to fail")
	}

	_, err = reg.Build(host, Definition{Name: "x", Widget: "missing"})
	if !errors.Is(err, ErrUnknownWidget) {
		t.Fatalf("expected ErrUnknownWidget, got %v", err)
	}

	reg.RegisterConstructor("missing", func(host *field.Host, def Definition) (field.Field, error) {
		return NewToggle(host, def.Name), nil
	})
	if w, err := reg.Build(host, Definition{Name: "x", Widget: "missing"}); err != nil {
		t.Fatalf("custom constructor: %v", err)
	} else if _, ok := w.(*Toggle); !ok {
		t.Fatalf("expected *Toggle, got %T", w)
	}
}
