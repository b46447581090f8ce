package widgets

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/option"
)

func press(host *field.Host, el *field.Element, keys ...tea.KeyType) {
	for _, k := range keys {
		host.Document.DispatchKey(field.NewKeyEvent(el, k))
	}
}

func collect(f field.Field) *[]any {
	var out []any
	f.ValueChanges().Subscribe(func(v any) { out = append(out, v) })
	return &out
}

func TestSelectKeyboardStepsSelection(t *testing.T) {
	host := field.NewHost(nil)
	w := NewSelect(host, SelectConfig{ID: "size", Options: opts("a", "b"), EmptyOption: "None", Placeholder: "Pick one"})
	values := collect(w)

	if w.Value() != nil || w.Display() != "Pick one" {
		t.Fatalf("expected empty selection, got value=%v display=%q", w.Value(), w.Display())
	}
	got := w.Options()
	if len(got) != 3 || got[0].Value != "" || !got[0].Selected {
		t.Fatalf("expected the empty option to lead and be selected, got %+v", got)
	}

	w.OnFocusChange(true)
	press(host, w.Element(), tea.KeyDown, tea.KeyDown, tea.KeyDown)

	want := []any{"a", "b", nil}
	if diff := cmp.Diff(want, *values); diff != "" {
		t.Fatalf("selection changes mismatch (-want +got):\n%s", diff)
	}

	press(host, w.Element(), tea.KeyUp)
	if w.Value() != "b" || w.Display() != "Label b" {
		t.Fatalf("expected b after wrapping up, got value=%v display=%q", w.Value(), w.Display())
	}
}

func TestSelectSkipsUnavailableOptions(t *testing.T) {
	host := field.NewHost(nil)
	list := opts("a", "b", "c")
	list[1].Disabled = true
	w := NewSelect(host, SelectConfig{Options: list})
	w.WriteValue("a")
	w.OnFocusChange(true)

	press(host, w.Element(), tea.KeyDown)
	if w.Value() != "c" {
		t.Fatalf("expected disabled option to be skipped, got %v", w.Value())
	}
	if w.SelectOption("b") {
		t.Fatalf("disabled option must be refused")
	}
}

func TestDropdownPanelLifecycle(t *testing.T) {
	host := field.NewHost(nil)
	w := NewDropdown(host, SelectConfig{Options: opts("a", "b", "c")})
	values := collect(w)
	var panel []bool
	w.PanelChanges().Subscribe(func(open bool) { panel = append(panel, open) })

	if w.Highlight() != option.None {
		t.Fatalf("closed dropdown must not highlight, got %+v", w.Highlight())
	}

	w.OnFocusChange(true)
	press(host, w.Element(), tea.KeyDown)
	if !w.PanelOpen() {
		t.Fatalf("expected ArrowDown to open the panel")
	}

	press(host, w.Element(), tea.KeyDown, tea.KeyDown)
	if h := w.Highlight(); h.Value != "b" || w.ScrollIndex() != 1 {
		t.Fatalf("expected b highlighted and scrolled into view, got %+v scroll=%d", h, w.ScrollIndex())
	}

	press(host, w.Element(), tea.KeyEnter)
	if w.PanelOpen() || w.Value() != "b" || w.Highlight() != option.None {
		t.Fatalf("enter must select and close, open=%v value=%v highlight=%+v", w.PanelOpen(), w.Value(), w.Highlight())
	}

	press(host, w.Element(), tea.KeySpace)
	if !w.PanelOpen() || w.Highlight().Value != "b" {
		t.Fatalf("reopening must highlight the selection, got %+v", w.Highlight())
	}
	press(host, w.Element(), tea.KeyEsc)

	if diff := cmp.Diff([]any{"b"}, *values); diff != "" {
		t.Fatalf("value changes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, false, true, false}, panel); diff != "" {
		t.Fatalf("panel changes mismatch (-want +got):\n%s", diff)
	}
}

func TestDropdownClosesOnOutsideClickAndBlur(t *testing.T) {
	host := field.NewHost(nil)
	w := NewDropdown(host, SelectConfig{Options: opts("a")})
	w.OnFocusChange(true)

	w.OpenPanel()
	host.Document.DispatchPointer(field.PointerEvent{Path: []*field.Element{field.NewElement("option"), w.PanelElement()}})
	if !w.PanelOpen() {
		t.Fatalf("clicks inside the panel must keep it open")
	}
	host.Document.DispatchPointer(field.PointerEvent{Path: []*field.Element{field.NewElement("body")}})
	if w.PanelOpen() {
		t.Fatalf("outside click must close the panel")
	}

	w.OpenPanel()
	w.OnFocusChange(false)
	if w.PanelOpen() {
		t.Fatalf("blur must close the panel")
	}

	w.SetDisabledState(true)
	w.OpenPanel()
	if w.PanelOpen() {
		t.Fatalf("disabled dropdown must not open")
	}
}

func TestDropdownFlipsAboveWhenThereIsNoRoom(t *testing.T) {
	below := 2
	w := NewDropdown(nil, SelectConfig{
		Options:   opts("a", "b", "c"),
		Placement: func() (int, int, int) { return below, 10, 5 },
	})

	w.OpenPanel()
	if w.PanelPosition() != field.PanelAbove {
		t.Fatalf("expected panel above, got %v", w.PanelPosition())
	}

	below = 20
	w.HandleLayout()
	if w.PanelPosition() != field.PanelBelow {
		t.Fatalf("expected panel below after layout, got %v", w.PanelPosition())
	}
}

func TestDropdownDestroy(t *testing.T) {
	w := NewDropdown(nil, SelectConfig{Options: opts("a")})
	w.Destroy()
	if !w.Destroyed() || !w.ValueChanges().Closed() || !w.OptionChanges().Closed() {
		t.Fatalf("destroy must close every stream")
	}
}
