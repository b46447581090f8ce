package forms

import (
	"fmt"
	"strconv"
	"strings"
)

// Control is a leaf holding a single value.
type Control struct {
	control
	defaultValue any
	writers      []func(any)
}

// NewControl builds a leaf control with an initial value.
func NewControl(value any, validators ...ValidatorFn) *Control {
	c := &Control{defaultValue: value}
	c.control = newControl(c)
	c.value = value
	c.validators = validators
	c.UpdateValueAndValidity(UpdateOptions{OnlySelf: true, Silent: true})
	return c
}

func (c *Control) RawValue() any               { return c.value }
func (c *Control) computeValue() any           { return c.value }
func (c *Control) computeRawValue() any        { return c.value }
func (c *Control) children() []AbstractControl { return nil }
func (c *Control) allDisabled() bool           { return c.status == StatusDisabled }

// SetValue replaces the value, writes it to bound views and revalidates.
func (c *Control) SetValue(value any, opts ...UpdateOptions) {
	c.value = value
	for _, w := range c.writers {
		w(value)
	}
	c.UpdateValueAndValidity(first(opts))
}

// setViewValue applies a value coming from a bound view.
func (c *Control) setViewValue(value any) {
	c.value = value
	c.MarkAsDirty()
	c.UpdateValueAndValidity(UpdateOptions{})
}

// Reset restores value (or the construction value when none is given) and
// clears the dirty and touched flags.
func (c *Control) Reset(value ...any) {
	v := c.defaultValue
	if len(value) > 0 {
		v = value[0]
	}
	c.MarkAsPristine()
	c.MarkAsUntouched()
	c.SetValue(v)
}

func (c *Control) registerWriter(fn func(any)) func() {
	c.writers = append(c.writers, fn)
	idx := len(c.writers) - 1
	return func() {
		if idx < len(c.writers) {
			c.writers[idx] = func(any) {}
		}
	}
}

// Entry pairs a key with a control when building a group.
type Entry struct {
	Key     string
	Control AbstractControl
}

// Key builds a group entry.
func Key(key string, c AbstractControl) Entry {
	return Entry{Key: key, Control: c}
}

// Group is an ordered, keyed collection of controls.
type Group struct {
	control
	keys      []string
	controls  map[string]AbstractControl
	submitted bool
}

// NewGroup builds a group from entries in order.
func NewGroup(entries ...Entry) *Group {
	g := &Group{controls: make(map[string]AbstractControl)}
	g.control = newControl(g)
	for _, e := range entries {
		g.register(e.Key, e.Control)
	}
	g.UpdateValueAndValidity(UpdateOptions{OnlySelf: true, Silent: true})
	return g
}

func (g *Group) register(key string, c AbstractControl) {
	if c == nil {
		return
	}
	if _, exists := g.controls[key]; !exists {
		g.keys = append(g.keys, key)
	}
	g.controls[key] = c
	c.node().parent = g
}

// Keys returns the child keys in insertion order.
func (g *Group) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Controls returns the children keyed by name.
func (g *Group) Controls() map[string]AbstractControl {
	out := make(map[string]AbstractControl, len(g.controls))
	for k, v := range g.controls {
		out[k] = v
	}
	return out
}

// Control returns the direct child for key.
func (g *Group) Control(key string) AbstractControl {
	return g.controls[key]
}

// Contains reports whether an enabled child exists for key.
func (g *Group) Contains(key string) bool {
	c, ok := g.controls[key]
	return ok && c.Enabled()
}

// AddControl registers c under key and revalidates. An existing key is left
// untouched.
func (g *Group) AddControl(key string, c AbstractControl) {
	if _, exists := g.controls[key]; exists {
		return
	}
	g.register(key, c)
	g.UpdateValueAndValidity(UpdateOptions{})
	g.emit(Event{Kind: ControlsChanged, Source: g, Value: g.value})
}

// SetControl replaces the child under key.
func (g *Group) SetControl(key string, c AbstractControl) {
	if old, ok := g.controls[key]; ok {
		old.node().parent = nil
	}
	g.register(key, c)
	g.UpdateValueAndValidity(UpdateOptions{})
	g.emit(Event{Kind: ControlsChanged, Source: g, Value: g.value})
}

// RemoveControl detaches the child under key and revalidates.
func (g *Group) RemoveControl(key string) {
	c, ok := g.controls[key]
	if !ok {
		return
	}
	c.node().parent = nil
	delete(g.controls, key)
	for i, k := range g.keys {
		if k == key {
			g.keys = append(g.keys[:i], g.keys[i+1:]...)
			break
		}
	}
	g.UpdateValueAndValidity(UpdateOptions{})
	g.emit(Event{Kind: ControlsChanged, Source: g, Value: g.value})
}

// Get resolves a dot-separated path below the group.
func (g *Group) Get(path string) AbstractControl {
	return lookup(g, path)
}

// SetValue writes every key of value into the matching child.
func (g *Group) SetValue(value map[string]any) {
	g.PatchValue(value)
}

// PatchValue writes the keys present in value, leaving other children alone.
func (g *Group) PatchValue(value map[string]any) {
	for _, key := range g.keys {
		v, ok := value[key]
		if !ok {
			continue
		}
		patch(g.controls[key], v)
	}
	g.UpdateValueAndValidity(UpdateOptions{})
}

// Reset resets every child and clears the group flags.
func (g *Group) Reset() {
	for _, key := range g.keys {
		resetControl(g.controls[key])
	}
	g.submitted = false
	g.MarkAsPristine()
	g.MarkAsUntouched()
	g.UpdateValueAndValidity(UpdateOptions{})
}

// RawValue includes disabled children.
func (g *Group) RawValue() any { return g.computeRawValue() }

func (g *Group) computeValue() any {
	out := make(map[string]any, len(g.keys))
	for _, key := range g.keys {
		c := g.controls[key]
		if c.Enabled() || g.status == StatusDisabled {
			out[key] = c.Value()
		}
	}
	return out
}

func (g *Group) computeRawValue() any {
	out := make(map[string]any, len(g.keys))
	for _, key := range g.keys {
		out[key] = g.controls[key].RawValue()
	}
	return out
}

func (g *Group) children() []AbstractControl {
	out := make([]AbstractControl, 0, len(g.keys))
	for _, key := range g.keys {
		out = append(out, g.controls[key])
	}
	return out
}

func (g *Group) allDisabled() bool {
	for _, c := range g.controls {
		if c.Enabled() {
			return false
		}
	}
	return len(g.controls) > 0 || g.status == StatusDisabled
}

// Array is an indexed collection of controls.
type Array struct {
	control
	items []AbstractControl
}

// NewArray builds an array from controls in order.
func NewArray(items ...AbstractControl) *Array {
	a := &Array{}
	a.control = newControl(a)
	for _, c := range items {
		if c != nil {
			c.node().parent = a
			a.items = append(a.items, c)
		}
	}
	a.UpdateValueAndValidity(UpdateOptions{OnlySelf: true, Silent: true})
	return a
}

// Len returns the number of items.
func (a *Array) Len() int { return len(a.items) }

// At returns the item at index or nil when out of range.
func (a *Array) At(index int) AbstractControl {
	if index < 0 || index >= len(a.items) {
		return nil
	}
	return a.items[index]
}

// Push appends c and revalidates.
func (a *Array) Push(c AbstractControl) {
	a.Insert(len(a.items), c)
}

// Insert places c at index and revalidates.
func (a *Array) Insert(index int, c AbstractControl) {
	if c == nil {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(a.items) {
		index = len(a.items)
	}
	c.node().parent = a
	a.items = append(a.items, nil)
	copy(a.items[index+1:], a.items[index:])
	a.items[index] = c
	a.UpdateValueAndValidity(UpdateOptions{})
	a.emit(Event{Kind: ControlsChanged, Source: a, Value: a.value})
}

// RemoveAt detaches the item at index and revalidates.
func (a *Array) RemoveAt(index int) {
	if index < 0 || index >= len(a.items) {
		return
	}
	a.items[index].node().parent = nil
	a.items = append(a.items[:index], a.items[index+1:]...)
	a.UpdateValueAndValidity(UpdateOptions{})
	a.emit(Event{Kind: ControlsChanged, Source: a, Value: a.value})
}

// Get resolves a dot-separated path below the array.
func (a *Array) Get(path string) AbstractControl {
	return lookup(a, path)
}

// RawValue includes disabled items.
func (a *Array) RawValue() any { return a.computeRawValue() }

func (a *Array) computeValue() any {
	out := make([]any, 0, len(a.items))
	for _, c := range a.items {
		if c.Enabled() || a.status == StatusDisabled {
			out = append(out, c.Value())
		}
	}
	return out
}

func (a *Array) computeRawValue() any {
	out := make([]any, 0, len(a.items))
	for _, c := range a.items {
		out = append(out, c.RawValue())
	}
	return out
}

func (a *Array) children() []AbstractControl {
	return append([]AbstractControl(nil), a.items...)
}

func (a *Array) allDisabled() bool {
	for _, c := range a.items {
		if c.Enabled() {
			return false
		}
	}
	return len(a.items) > 0 || a.status == StatusDisabled
}

func lookup(root AbstractControl, path string) AbstractControl {
	if path == "" {
		return root
	}
	current := root
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case *Group:
			current = node.Control(segment)
		case *Array:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return nil
			}
			current = node.At(idx)
		default:
			return nil
		}
		if current == nil {
			return nil
		}
	}
	return current
}

// Lookup resolves path below root and reports ErrNoControl when missing.
func Lookup(root AbstractControl, path string) (AbstractControl, error) {
	c := lookup(root, path)
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoControl, path)
	}
	return c, nil
}

func patch(c AbstractControl, value any) {
	switch node := c.(type) {
	case *Control:
		node.value = value
		for _, w := range node.writers {
			w(value)
		}
		node.UpdateValueAndValidity(UpdateOptions{OnlySelf: true})
	case *Group:
		m, _ := value.(map[string]any)
		for _, key := range node.keys {
			if v, ok := m[key]; ok {
				patch(node.controls[key], v)
			}
		}
		node.UpdateValueAndValidity(UpdateOptions{OnlySelf: true})
	case *Array:
		items, _ := value.([]any)
		for i, v := range items {
			if i < len(node.items) {
				patch(node.items[i], v)
			}
		}
		node.UpdateValueAndValidity(UpdateOptions{OnlySelf: true})
	}
}

func resetControl(c AbstractControl) {
	switch node := c.(type) {
	case *Control:
		node.value = node.defaultValue
		for _, w := range node.writers {
			w(node.value)
		}
		node.MarkAsPristine()
		node.MarkAsUntouched()
		node.UpdateValueAndValidity(UpdateOptions{OnlySelf: true})
	case *Group:
		for _, key := range node.keys {
			resetControl(node.controls[key])
		}
		node.UpdateValueAndValidity(UpdateOptions{OnlySelf: true})
	case *Array:
		for _, item := range node.items {
			resetControl(item)
		}
		node.UpdateValueAndValidity(UpdateOptions{OnlySelf: true})
	}
}

func first(opts []UpdateOptions) UpdateOptions {
	if len(opts) == 0 {
		return UpdateOptions{}
	}
	return opts[0]
}
