package widgets

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/option"
)

func fruits() []option.Option {
	return []option.Option{
		{Value: "apple", Label: "Apple"},
		{Value: "banana", Label: "Banana"},
		{Value: "apricot", Label: "Apricot"},
	}
}

func waitFor(t *testing.T, l *loop.Loop, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		var ok bool
		l.Do(func() { ok = cond() })
		if ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for condition")
}

func TestAutocompleteFiltersAndSelectsExactLabel(t *testing.T) {
	w := NewAutocomplete(field.NewHost(nil), AutocompleteConfig{Options: fruits()})
	values := collect(w)
	w.OnFocusChange(true)

	w.Input("ap")
	if !w.PanelOpen() {
		t.Fatalf("filtering must open the panel")
	}
	if diff := cmp.Diff([]string{"apple", "apricot"}, option.Values(w.Options())); diff != "" {
		t.Fatalf("filtered options mismatch (-want +got):\n%s", diff)
	}

	w.Input("Apple")
	if w.Value() != "apple" || w.Highlight().Value != "apple" {
		t.Fatalf("exact label must select, got value=%v highlight=%+v", w.Value(), w.Highlight())
	}

	w.Input("Ap")
	if w.Value() != nil {
		t.Fatalf("typing must clear the selection, got %v", w.Value())
	}

	w.Input("zzz")
	if len(w.Options()) != 0 || w.NoOptionsText() != DefaultNoOptionsText {
		t.Fatalf("expected no options with %q, got %+v", w.NoOptionsText(), w.Options())
	}

	if !w.SelectOption("apricot") {
		t.Fatalf("expected apricot to be selectable")
	}
	if w.Text() != "Apricot" || w.PanelOpen() || len(w.Options()) != 3 {
		t.Fatalf("selection must show the label, close and reset the filter: text=%q open=%v options=%d", w.Text(), w.PanelOpen(), len(w.Options()))
	}

	want := []any{"apple", nil, "apricot"}
	if diff := cmp.Diff(want, *values); diff != "" {
		t.Fatalf("value changes mismatch (-want +got):\n%s", diff)
	}
}

func TestAutocompleteIgnoresRepeatedAndUnfocusedQueries(t *testing.T) {
	w := NewAutocomplete(field.NewHost(nil), AutocompleteConfig{Options: fruits()})

	w.Input("ban")
	if w.PanelOpen() || len(w.Options()) != 3 {
		t.Fatalf("unfocused input must not filter")
	}

	w.OnFocusChange(true)
	w.Input("ap")
	w.ClosePanel()
	w.Input("ap")
	if w.PanelOpen() {
		t.Fatalf("a repeated query must not reopen the panel")
	}
}

func TestAutocompleteWriteValueShowsLabel(t *testing.T) {
	w := NewAutocomplete(nil, AutocompleteConfig{Options: fruits(), NoOptionsText: "Nothing"})
	w.WriteValue("banana")
	if w.Text() != "Banana" || w.Value() != "banana" {
		t.Fatalf("unexpected text=%q value=%v", w.Text(), w.Value())
	}
	w.WriteValue(nil)
	if w.Text() != "" || w.Value() != nil {
		t.Fatalf("expected cleared field, got text=%q value=%v", w.Text(), w.Value())
	}
	if w.NoOptionsText() != "Nothing" {
		t.Fatalf("expected configured no-options text, got %q", w.NoOptionsText())
	}
}

func TestAutocompleteDebouncesFiltering(t *testing.T) {
	l := loop.New()
	t.Cleanup(l.Close)
	host := field.NewHost(l)

	var (
		w       *Autocomplete
		filters int
		early   bool
	)
	l.Do(func() {
		w = NewAutocomplete(host, AutocompleteConfig{Options: fruits()})
		w.OptionChanges().Subscribe(func([]option.Option) { filters++ })
		w.OnFocusChange(true)
		w.Input("a")
		w.Input("ap")
		early = w.PanelOpen()
	})
	if early {
		t.Fatalf("filtering must wait for the debounce window")
	}

	waitFor(t, l, w.PanelOpen)

	var shown []string
	l.Do(func() { shown = option.Values(w.Options()) })
	if diff := cmp.Diff([]string{"apple", "apricot"}, shown); diff != "" {
		t.Fatalf("filtered options mismatch (-want +got):\n%s", diff)
	}
	if filters != 1 {
		t.Fatalf("expected a single debounced filter run, got %d", filters)
	}
}

func TestAutocompleteBlurCancelsPendingFilter(t *testing.T) {
	l := loop.New()
	t.Cleanup(l.Close)
	host := field.NewHost(l)

	var w *Autocomplete
	l.Do(func() {
		w = NewAutocomplete(host, AutocompleteConfig{Options: fruits()})
		w.OnFocusChange(true)
		w.Input("ban")
		w.OnFocusChange(false)
	})
	time.Sleep(2 * FilterDebounce)

	var (
		open  bool
		count int
	)
	l.Do(func() { open, count = w.PanelOpen(), len(w.Options()) })
	if open || count != 3 {
		t.Fatalf("blur must drop the pending filter, open=%v options=%d", open, count)
	}
}
