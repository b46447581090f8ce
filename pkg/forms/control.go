package forms

import (
	"errors"
	"sort"

	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// Status is the validation state of a control.
type Status string

const (
	StatusValid    Status = "VALID"
	StatusInvalid  Status = "INVALID"
	StatusPending  Status = "PENDING"
	StatusDisabled Status = "DISABLED"
)

// Errors holds validation failures keyed by validator name. A nil map means
// the control passed.
type Errors map[string]any

// Keys returns the error keys in sorted order.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidatorFn validates synchronously.
type ValidatorFn func(c AbstractControl) Errors

// AsyncValidatorFn validates the control value asynchronously. The channel
// yields one result; a channel closed without a value leaves the control
// pending.
type AsyncValidatorFn func(value any) <-chan Errors

// ErrNoControl is returned when a path does not resolve to a control.
var ErrNoControl = errors.New("forms: control not found")

// EventKind identifies a control event.
type EventKind int

const (
	ValueChanged EventKind = iota
	StatusChanged
	PristineChanged
	TouchedChanged
	ControlsChanged
	Submitted
)

func (k EventKind) String() string {
	switch k {
	case ValueChanged:
		return "value"
	case StatusChanged:
		return "status"
	case PristineChanged:
		return "pristine"
	case TouchedChanged:
		return "touched"
	case ControlsChanged:
		return "controls"
	case Submitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Event is emitted by a control on its own Events stream. Source is the
// control whose change started the propagation, which may be a descendant.
type Event struct {
	Kind     EventKind
	Source   AbstractControl
	Value    any
	Status   Status
	Pristine bool
	Touched  bool
}

// UpdateOptions tunes UpdateValueAndValidity.
type UpdateOptions struct {
	// OnlySelf stops propagation to ancestors.
	OnlySelf bool
	// Silent suppresses value and status events.
	Silent bool

	source AbstractControl
}

// AbstractControl is implemented by Control, Group and Array.
type AbstractControl interface {
	Value() any
	RawValue() any
	Status() Status
	Valid() bool
	Invalid() bool
	Pending() bool
	Enabled() bool
	Disabled() bool
	Errors() Errors
	HasError(key string) bool
	SetErrors(errs Errors)
	Pristine() bool
	Dirty() bool
	Touched() bool
	MarkAsDirty()
	MarkAsPristine()
	MarkAsTouched()
	MarkAsUntouched()
	MarkAllAsTouched()
	Enable()
	Disable()
	Parent() AbstractControl
	Root() AbstractControl
	Events() *stream.Stream[Event]
	SetValidators(validators ...ValidatorFn)
	AddValidators(validators ...ValidatorFn)
	SetAsyncValidators(validators ...AsyncValidatorFn)
	AddAsyncValidators(validators ...AsyncValidatorFn)
	UpdateValueAndValidity(opts UpdateOptions)

	node() *control
}

type impl interface {
	AbstractControl
	computeValue() any
	computeRawValue() any
	children() []AbstractControl
	allDisabled() bool
}

// control is the state shared by every control kind.
type control struct {
	self   impl
	parent impl
	loop   *loop.Loop

	value    any
	status   Status
	errors   Errors
	pristine bool
	touched  bool

	validators      []ValidatorFn
	asyncValidators []AsyncValidatorFn
	asyncRun        int
	ownPending      bool

	events *stream.Stream[Event]
}

func newControl(self impl) control {
	return control{
		self:     self,
		status:   StatusValid,
		pristine: true,
		events:   stream.New[Event](),
	}
}

func (c *control) node() *control { return c }

func (c *control) Value() any     { return c.value }
func (c *control) Status() Status { return c.status }
func (c *control) Valid() bool    { return c.status == StatusValid }
func (c *control) Invalid() bool  { return c.status == StatusInvalid }
func (c *control) Pending() bool  { return c.status == StatusPending }
func (c *control) Disabled() bool { return c.status == StatusDisabled }
func (c *control) Enabled() bool  { return c.status != StatusDisabled }
func (c *control) Errors() Errors { return c.errors }
func (c *control) Pristine() bool { return c.pristine }
func (c *control) Dirty() bool    { return !c.pristine }
func (c *control) Touched() bool  { return c.touched }

// Events publishes this control's own state changes.
func (c *control) Events() *stream.Stream[Event] { return c.events }

// HasError reports whether key is among the control errors.
func (c *control) HasError(key string) bool {
	_, ok := c.errors[key]
	return ok
}

// Parent returns the containing group or array, or nil at the root.
func (c *control) Parent() AbstractControl {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

// Root walks up to the top-most control.
func (c *control) Root() AbstractControl {
	var x impl = c.self
	for x.node().parent != nil {
		x = x.node().parent
	}
	return x
}

// Loop returns the loop async validation results are delivered on.
func (c *control) Loop() *loop.Loop {
	return c.Root().node().loop
}

// SetLoop attaches the loop to the tree this control roots.
func (c *control) SetLoop(l *loop.Loop) {
	c.Root().node().loop = l
}

func (c *control) SetValidators(validators ...ValidatorFn) {
	c.validators = append([]ValidatorFn(nil), validators...)
}

func (c *control) AddValidators(validators ...ValidatorFn) {
	c.validators = append(c.validators, validators...)
}

func (c *control) SetAsyncValidators(validators ...AsyncValidatorFn) {
	c.asyncValidators = append([]AsyncValidatorFn(nil), validators...)
}

func (c *control) AddAsyncValidators(validators ...AsyncValidatorFn) {
	c.asyncValidators = append(c.asyncValidators, validators...)
}

func (c *control) emit(ev Event) {
	c.events.Emit(ev)
}

// UpdateValueAndValidity recomputes the value, runs validators and
// propagates to the ancestors.
func (c *control) UpdateValueAndValidity(opts UpdateOptions) {
	if opts.source == nil {
		opts.source = c.self
	}
	c.setInitialStatus()
	c.value = c.self.computeValue()

	if c.Enabled() {
		c.cancelAsync()
		c.errors = c.runValidators()
		c.status = c.calculateStatus()
		if c.status == StatusValid || c.status == StatusPending {
			c.runAsyncValidators(opts)
		}
	}

	if !opts.Silent {
		c.emit(Event{Kind: ValueChanged, Source: opts.source, Value: c.value, Status: c.status})
		c.emit(Event{Kind: StatusChanged, Source: opts.source, Value: c.value, Status: c.status})
	}
	if c.parent != nil && !opts.OnlySelf {
		c.parent.UpdateValueAndValidity(opts)
	}
}

// SetErrors replaces the errors and refreshes status up the tree.
func (c *control) SetErrors(errs Errors) {
	c.setErrors(errs, false, c.self)
}

func (c *control) setErrors(errs Errors, silent bool, source AbstractControl) {
	if len(errs) == 0 {
		errs = nil
	}
	c.errors = errs
	c.updateErrorsUpward(silent, source)
}

func (c *control) updateErrorsUpward(silent bool, source AbstractControl) {
	c.status = c.calculateStatus()
	if !silent {
		c.emit(Event{Kind: StatusChanged, Source: source, Value: c.value, Status: c.status})
	}
	if c.parent != nil {
		c.parent.node().updateErrorsUpward(silent, source)
	}
}

func (c *control) setInitialStatus() {
	if c.self.allDisabled() {
		c.status = StatusDisabled
		return
	}
	c.status = StatusValid
}

func (c *control) runValidators() Errors {
	var merged Errors
	for _, v := range c.validators {
		if v == nil {
			continue
		}
		for k, val := range v(c.self) {
			if merged == nil {
				merged = Errors{}
			}
			merged[k] = val
		}
	}
	return merged
}

func (c *control) calculateStatus() Status {
	if c.self.allDisabled() {
		return StatusDisabled
	}
	if len(c.errors) > 0 {
		return StatusInvalid
	}
	if c.ownPending || c.anyChild(StatusPending) {
		return StatusPending
	}
	if c.anyChild(StatusInvalid) {
		return StatusInvalid
	}
	return StatusValid
}

func (c *control) anyChild(status Status) bool {
	for _, child := range c.self.children() {
		if child.Enabled() && child.Status() == status {
			return true
		}
	}
	return false
}

func (c *control) cancelAsync() {
	c.asyncRun++
	c.ownPending = false
}

func (c *control) runAsyncValidators(opts UpdateOptions) {
	if len(c.asyncValidators) == 0 {
		return
	}
	c.status = StatusPending
	c.ownPending = true
	run := c.asyncRun
	value := c.value

	channels := make([]<-chan Errors, 0, len(c.asyncValidators))
	for _, v := range c.asyncValidators {
		if v != nil {
			channels = append(channels, v(value))
		}
	}

	apply := func(errs Errors) {
		if run != c.asyncRun {
			return
		}
		c.ownPending = false
		c.setErrors(errs, opts.Silent, opts.source)
	}

	l := c.Loop()
	if l == nil {
		errs, ok := collect(channels)
		if ok {
			apply(errs)
		}
		return
	}
	go func() {
		errs, ok := collect(channels)
		if !ok {
			return
		}
		l.Post(func() { apply(errs) })
	}()
}

func collect(channels []<-chan Errors) (Errors, bool) {
	var merged Errors
	for _, ch := range channels {
		if ch == nil {
			continue
		}
		errs, ok := <-ch
		if !ok {
			return nil, false
		}
		for k, v := range errs {
			if merged == nil {
				merged = Errors{}
			}
			merged[k] = v
		}
	}
	return merged, true
}

// MarkAsDirty flags the control and its ancestors as changed by the user.
func (c *control) MarkAsDirty() {
	c.markAsDirty(c.self)
}

func (c *control) markAsDirty(source AbstractControl) {
	changed := c.pristine
	c.pristine = false
	if changed {
		c.emit(Event{Kind: PristineChanged, Source: source, Pristine: false})
	}
	if c.parent != nil {
		c.parent.node().markAsDirty(source)
	}
}

// MarkAsPristine resets the control and its descendants to pristine and
// recomputes ancestor pristine state.
func (c *control) MarkAsPristine() {
	c.markAsPristine(c.self)
}

func (c *control) markAsPristine(source AbstractControl) {
	for _, child := range c.self.children() {
		child.node().markAsPristine(source)
	}
	changed := !c.pristine
	c.pristine = true
	if changed {
		c.emit(Event{Kind: PristineChanged, Source: source, Pristine: true})
	}
	if c.parent != nil {
		c.parent.node().updatePristine(source)
	}
}

func (c *control) updatePristine(source AbstractControl) {
	pristine := true
	for _, child := range c.self.children() {
		if child.Enabled() && child.Dirty() {
			pristine = false
			break
		}
	}
	if pristine != c.pristine {
		c.pristine = pristine
		c.emit(Event{Kind: PristineChanged, Source: source, Pristine: pristine})
	}
	if c.parent != nil {
		c.parent.node().updatePristine(source)
	}
}

// MarkAsTouched flags the control and its ancestors as visited.
func (c *control) MarkAsTouched() {
	c.markAsTouched(c.self)
}

func (c *control) markAsTouched(source AbstractControl) {
	changed := !c.touched
	c.touched = true
	if changed {
		c.emit(Event{Kind: TouchedChanged, Source: source, Touched: true})
	}
	if c.parent != nil {
		c.parent.node().markAsTouched(source)
	}
}

// MarkAsUntouched clears the touched flag on the control and descendants.
func (c *control) MarkAsUntouched() {
	for _, child := range c.self.children() {
		child.MarkAsUntouched()
	}
	if c.touched {
		c.touched = false
		c.emit(Event{Kind: TouchedChanged, Source: c.self, Touched: false})
	}
}

// MarkAllAsTouched flags the control and every descendant as touched.
func (c *control) MarkAllAsTouched() {
	c.markAsTouched(c.self)
	for _, child := range c.self.children() {
		child.MarkAllAsTouched()
	}
}

// Disable excludes the control (and descendants) from value and validation.
func (c *control) Disable() {
	c.setDisabled(true)
}

// Enable re-includes the control and revalidates it.
func (c *control) Enable() {
	c.setDisabled(false)
}

func (c *control) setDisabled(disabled bool) {
	for _, child := range c.self.children() {
		child.node().setDisabledSilently(disabled)
	}
	c.setDisabledSilently(disabled)
	c.UpdateValueAndValidity(UpdateOptions{OnlySelf: true})
	if c.parent != nil {
		c.parent.UpdateValueAndValidity(UpdateOptions{source: c.self})
		c.parent.node().updatePristine(c.self)
	}
}

func (c *control) setDisabledSilently(disabled bool) {
	for _, child := range c.self.children() {
		child.node().setDisabledSilently(disabled)
	}
	c.cancelAsync()
	if disabled {
		c.status = StatusDisabled
		c.errors = nil
	} else {
		c.status = StatusValid
	}
}
