package forms

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/pkg/loop"
)

func required(c AbstractControl) Errors {
	if s, _ := c.Value().(string); s == "" {
		return Errors{"required": true}
	}
	return nil
}

func TestGroupStatusFollowsChildren(t *testing.T) {
	name := NewControl("", required)
	email := NewControl("a@b.c")
	g := NewGroup(Key("name", name), Key("email", email))

	if g.Status() != StatusInvalid {
		t.Fatalf("expected group invalid, got %s", g.Status())
	}
	name.SetValue("Ada")
	if g.Status() != StatusValid {
		t.Fatalf("expected group valid, got %s", g.Status())
	}
	want := map[string]any{"name": "Ada", "email": "a@b.c"}
	if diff := cmp.Diff(want, g.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestDisabledChildrenLeaveLiveValue(t *testing.T) {
	a := NewControl(1)
	b := NewControl("", required)
	g := NewGroup(Key("a", a), Key("b", b))

	b.Disable()

	if g.Status() != StatusValid {
		t.Fatalf("disabled invalid child must not invalidate the group, got %s", g.Status())
	}
	if b.Errors() != nil {
		t.Fatalf("disabled control must drop its errors, got %v", b.Errors())
	}
	if diff := cmp.Diff(map[string]any{"a": 1}, g.Value()); diff != "" {
		t.Fatalf("live value mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"a": 1, "b": ""}, g.RawValue()); diff != "" {
		t.Fatalf("raw value mismatch (-want +got):\n%s", diff)
	}

	b.Enable()
	if g.Status() != StatusInvalid {
		t.Fatalf("re-enabled child must revalidate, got %s", g.Status())
	}
}

func TestAllChildrenDisabledDisablesGroup(t *testing.T) {
	a := NewControl("x")
	g := NewGroup(Key("a", a))
	a.Disable()
	if g.Status() != StatusDisabled {
		t.Fatalf("expected group disabled, got %s", g.Status())
	}
	if diff := cmp.Diff(map[string]any{"a": "x"}, g.Value()); diff != "" {
		t.Fatalf("fully disabled group keeps its values (-want +got):\n%s", diff)
	}
}

func TestEventsReachAncestorsWithSource(t *testing.T) {
	leaf := NewControl("")
	inner := NewGroup(Key("leaf", leaf))
	root := NewGroup(Key("inner", inner))

	var kinds []string
	root.Events().Subscribe(func(ev Event) {
		if ev.Source != leaf {
			t.Fatalf("expected leaf as source, got %T", ev.Source)
		}
		kinds = append(kinds, ev.Kind.String())
	})

	leaf.MarkAsDirty()
	leaf.MarkAsTouched()
	leaf.SetValue("x")
	leaf.MarkAsTouched()

	want := []string{"pristine", "touched", "value", "status"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("root events mismatch (-want +got):\n%s", diff)
	}
	if root.Pristine() || !root.Touched() {
		t.Fatalf("expected root dirty and touched")
	}
}

func TestMarkAsPristineRecomputesAncestors(t *testing.T) {
	a := NewControl("")
	b := NewControl("")
	g := NewGroup(Key("a", a), Key("b", b))

	a.MarkAsDirty()
	b.MarkAsDirty()
	a.MarkAsPristine()
	if g.Pristine() {
		t.Fatalf("group must stay dirty while b is dirty")
	}
	b.MarkAsPristine()
	if !g.Pristine() {
		t.Fatalf("group must become pristine once every child is")
	}
}

func TestMarkAllAsTouched(t *testing.T) {
	a := NewControl("")
	arr := NewArray(NewControl(1), NewControl(2))
	g := NewGroup(Key("a", a), Key("items", arr))

	g.MarkAllAsTouched()

	for _, c := range []AbstractControl{a, arr, arr.At(0), arr.At(1), g} {
		if !c.Touched() {
			t.Fatalf("expected every control touched")
		}
	}
}

func TestSyncAsyncValidatorWithoutLoop(t *testing.T) {
	c := NewControl("taken")
	c.SetAsyncValidators(func(value any) <-chan Errors {
		ch := make(chan Errors, 1)
		if value == "taken" {
			ch <- Errors{"unique": "already used"}
		} else {
			ch <- nil
		}
		return ch
	})
	g := NewGroup(Key("user", c))

	c.UpdateValueAndValidity(UpdateOptions{})
	if c.Status() != StatusInvalid || g.Status() != StatusInvalid {
		t.Fatalf("expected invalid, got control=%s group=%s", c.Status(), g.Status())
	}
	c.SetValue("free")
	if c.Status() != StatusValid || g.Status() != StatusValid {
		t.Fatalf("expected valid, got control=%s group=%s", c.Status(), g.Status())
	}
}

func TestAsyncValidatorRunsOnLoopAndLatestWins(t *testing.T) {
	l := loop.New()
	t.Cleanup(l.Close)

	var (
		c       *Control
		g       *Group
		results []chan Errors
	)
	l.Do(func() {
		c = NewControl("")
		g = NewGroup(Key("user", c))
		g.SetLoop(l)
		c.SetAsyncValidators(func(any) <-chan Errors {
			ch := make(chan Errors, 1)
			results = append(results, ch)
			return ch
		})
		c.SetValue("a")
		c.SetValue("ab")
	})

	var pending Status
	l.Do(func() { pending = g.Status() })
	if pending != StatusPending {
		t.Fatalf("expected pending group, got %s", pending)
	}

	var stale, fresh chan Errors
	l.Do(func() { stale, fresh = results[0], results[1] })
	stale <- nil
	fresh <- Errors{"unique": true}

	deadline := time.After(time.Second)
	for {
		var status Status
		l.Do(func() { status = c.Status() })
		if status != StatusPending {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for async result")
		case <-time.After(5 * time.Millisecond):
		}
	}
	time.Sleep(20 * time.Millisecond)
	l.Flush()

	var status, groupStatus Status
	l.Do(func() { status, groupStatus = c.Status(), g.Status() })
	if status != StatusInvalid || groupStatus != StatusInvalid {
		t.Fatalf("expected the latest run to win, got control=%s group=%s", status, groupStatus)
	}
}

func TestClosedAsyncChannelStaysPending(t *testing.T) {
	c := NewControl("x")
	c.SetAsyncValidators(func(any) <-chan Errors {
		ch := make(chan Errors)
		close(ch)
		return ch
	})
	c.UpdateValueAndValidity(UpdateOptions{})
	if c.Status() != StatusPending {
		t.Fatalf("expected pending, got %s", c.Status())
	}
}

func TestAddAndRemoveControl(t *testing.T) {
	g := NewGroup(Key("a", NewControl(1)))
	var changes int
	g.Events().Subscribe(func(ev Event) {
		if ev.Kind == ControlsChanged {
			changes++
		}
	})

	b := NewControl("", required)
	g.AddControl("b", b)
	if g.Status() != StatusInvalid {
		t.Fatalf("expected invalid after adding b, got %s", g.Status())
	}
	if diff := cmp.Diff([]string{"a", "b"}, g.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	g.RemoveControl("b")
	if g.Status() != StatusValid || b.Parent() != nil {
		t.Fatalf("expected valid group and detached control")
	}
	if changes != 2 {
		t.Fatalf("expected two ControlsChanged events, got %d", changes)
	}
}

func TestPatchAndReset(t *testing.T) {
	first := NewControl("Ada")
	city := NewControl("")
	g := NewGroup(Key("first", first), Key("address", NewGroup(Key("city", city))))

	g.PatchValue(map[string]any{"address": map[string]any{"city": "Turin"}})
	want := map[string]any{"first": "Ada", "address": map[string]any{"city": "Turin"}}
	if diff := cmp.Diff(want, g.Value()); diff != "" {
		t.Fatalf("patched value mismatch (-want +got):\n%s", diff)
	}

	city.MarkAsDirty()
	g.Submit()
	g.Reset()
	if city.Value() != "" || !g.Pristine() || g.Submitted() {
		t.Fatalf("expected reset to restore defaults, got %v", g.Value())
	}
}

func TestLookup(t *testing.T) {
	leaf := NewControl("x")
	g := NewGroup(Key("items", NewArray(NewGroup(Key("name", leaf)))))

	got, err := Lookup(g, "items.0.name")
	if err != nil || got != leaf {
		t.Fatalf("expected leaf, got %v (%v)", got, err)
	}
	if _, err := Lookup(g, "items.3.name"); err == nil {
		t.Fatalf("expected ErrNoControl")
	}
}
