package widgets

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/loop"
)

func TestSliderNormalize(t *testing.T) {
	w := NewSlider(nil, SliderConfig{Min: 0, Max: 1, Step: 0.1})
	cases := []struct {
		in   float64
		want float64
	}{
		{-3, 0},
		{0.26, 0.3},
		{0.3, 0.3},
		{7, 1},
	}
	for _, tc := range cases {
		if got := w.Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	odd := NewSlider(nil, SliderConfig{Min: 0, Max: 10, Step: 3})
	if got := odd.Normalize(10); got != 9 {
		t.Fatalf("values past the last step must snap below Max, got %v", got)
	}
}

func TestSliderKeys(t *testing.T) {
	host := field.NewHost(nil)
	w := NewSlider(host, SliderConfig{Min: 10, Max: 20, Step: 5})
	values := collect(w)
	w.OnFocusChange(true)

	press(host, w.Element(), tea.KeyRight, tea.KeyRight, tea.KeyRight, tea.KeyHome, tea.KeyEnd, tea.KeyLeft)

	want := []any{15.0, 20.0, 10.0, 20.0, 15.0}
	if diff := cmp.Diff(want, *values); diff != "" {
		t.Fatalf("slider values mismatch (-want +got):\n%s", diff)
	}
	if w.Display() != "15" {
		t.Fatalf("unexpected display %q", w.Display())
	}
}

func TestSliderPropagatesCorrectedWrite(t *testing.T) {
	l := loop.New()
	t.Cleanup(l.Close)
	host := field.NewHost(l)

	var (
		w        *Slider
		notified []any
	)
	l.Do(func() {
		w = NewSlider(host, SliderConfig{Min: 0, Max: 10})
		w.RegisterOnChange(func(v any) { notified = append(notified, v) })
		w.WriteValue(4)
		w.WriteValue(42)
	})
	l.Flush()

	var value any
	l.Do(func() { value = w.Value() })
	if value != 10.0 {
		t.Fatalf("expected clamped value 10, got %v", value)
	}
	if diff := cmp.Diff([]any{10.0}, notified); diff != "" {
		t.Fatalf("only the corrected write is pushed back (-want +got):\n%s", diff)
	}
}

func TestSliderPropagatesCoercedWrite(t *testing.T) {
	l := loop.New()
	t.Cleanup(l.Close)
	host := field.NewHost(l)

	var (
		w        *Slider
		notified []any
	)
	l.Do(func() {
		w = NewSlider(host, SliderConfig{Min: 0, Max: 10})
		w.RegisterOnChange(func(v any) { notified = append(notified, v) })
		w.WriteValue("5")
	})
	l.Flush()
	l.Do(func() { w.WriteValue(7.0) })
	l.Flush()

	var value any
	l.Do(func() { value = w.Value() })
	if value != 7.0 {
		t.Fatalf("expected 7, got %v", value)
	}
	if diff := cmp.Diff([]any{5.0}, notified); diff != "" {
		t.Fatalf("only the coerced write is pushed back (-want +got):\n%s", diff)
	}
}

func TestToggle(t *testing.T) {
	host := field.NewHost(nil)
	w := NewToggle(host, "enabled")
	values := collect(w)

	w.OnFocusChange(true)
	press(host, w.Element(), tea.KeySpace, tea.KeyEnter, tea.KeySpace)
	if diff := cmp.Diff([]any{true, false, true}, *values); diff != "" {
		t.Fatalf("toggle values mismatch (-want +got):\n%s", diff)
	}

	w.WriteValue("false")
	if w.On() || w.Display() != "off" || w.Filled() {
		t.Fatalf("expected toggle off after write, on=%v display=%q", w.On(), w.Display())
	}

	w.SetDisabledState(true)
	w.Flip()
	if w.On() {
		t.Fatalf("disabled toggle must not flip")
	}
}
