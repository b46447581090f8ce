package forms

import "github.com/goliatone/go-formfields/pkg/stream"

// Accessor is the contract a widget satisfies to be bound to a Control.
type Accessor interface {
	WriteValue(value any)
	RegisterOnChange(fn func(any))
	RegisterOnTouched(fn func())
	SetDisabledState(disabled bool)
}

// Bind connects a control and a widget in both directions: view changes set
// the value, mark the control dirty and revalidate; programmatic values are
// written to the view; blur marks the control touched; disabled state
// follows the control. The returned func undoes the binding.
func Bind(c *Control, a Accessor) func() {
	var bag stream.Bag

	a.WriteValue(c.Value())
	a.RegisterOnChange(c.setViewValue)
	a.RegisterOnTouched(c.MarkAsTouched)
	if c.Disabled() {
		a.SetDisabledState(true)
	}

	bag.Add(c.registerWriter(a.WriteValue))

	disabled := c.Disabled()
	bag.Add(c.Events().Subscribe(func(ev Event) {
		if ev.Kind != StatusChanged {
			return
		}
		now := ev.Status == StatusDisabled
		if now != disabled {
			disabled = now
			a.SetDisabledState(now)
		}
	}))
	bag.Add(func() {
		a.RegisterOnChange(func(any) {})
		a.RegisterOnTouched(func() {})
	})
	return bag.Release
}

// Submit emits a Submitted event on the group. Listeners such as the
// validation orchestrator react to it.
func (g *Group) Submit() {
	g.submitted = true
	g.emit(Event{Kind: Submitted, Source: g, Value: g.value, Status: g.status})
}

// Submitted reports whether Submit has been called since the last reset.
func (g *Group) Submitted() bool { return g.submitted }
