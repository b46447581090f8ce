package field

import (
	"errors"
	"math"
	"reflect"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// LayoutDebounce is the quiet window applied to resize and scroll events.
const LayoutDebounce = 50 * time.Millisecond

// ErrNoElement signals a widget registered listeners before providing its
// field element.
var ErrNoElement = errors.New("field: element is required before listeners are registered")

// Hooks is what a widget supplies to the shared state: its value storage and
// reactions to value, focus and programmatic writes.
type Hooks interface {
	Value() any
	DoOnValueChange(value any)
	DoOnFocusChange(focused bool)
	DoWriteValue(value any)
}

// KeyHandler receives key events that passed the focus and allow-list
// filters.
type KeyHandler interface {
	HandleKey(ev *KeyEvent)
}

// OutsideClickHandler is notified of pointer events outside every owned
// element.
type OutsideClickHandler interface {
	HandleOutsideClick()
}

// LayoutHandler is notified, debounced, after resize or scroll.
type LayoutHandler interface {
	HandleLayout()
}

// Option configures a State.
type Option func(*State)

// WithElement sets the field element.
func WithElement(el *Element) Option {
	return func(s *State) {
		s.element = el
	}
}

// WithKeys sets the key allow-list routed to the widget's KeyHandler.
func WithKeys(keys ...tea.KeyType) Option {
	return func(s *State) {
		for _, k := range keys {
			s.keys[k] = struct{}{}
		}
	}
}

// WithID overrides the generated id.
func WithID(id string) Option {
	return func(s *State) {
		if id != "" {
			s.id = id
		}
	}
}

// State is the value and focus lifecycle shared by every widget. Widgets
// embed it and pass themselves as Hooks. State is loop-affine.
type State struct {
	host    *Host
	hooks   Hooks
	id      string
	element *Element
	owned   []*Element
	keys    map[tea.KeyType]struct{}

	focused  bool
	filled   bool
	disabled bool
	readonly bool

	last     any
	observed bool

	valueChanges *stream.Stream[any]
	focusChanges *stream.Stream[bool]

	onChange  func(any)
	onTouched func()

	layout      *loop.Debouncer[string]
	listeners   stream.Bag
	initialised bool
	destroyed   bool
}

// NewState builds the shared state for a widget.
func NewState(host *Host, hooks Hooks, opts ...Option) *State {
	s := &State{
		host:         host,
		hooks:        hooks,
		id:           "field-" + uuid.NewString(),
		keys:         make(map[tea.KeyType]struct{}),
		valueChanges: stream.New[any](),
		focusChanges: stream.New[bool](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// ID returns the opaque field id.
func (s *State) ID() string { return s.id }

// Host returns the widget environment.
func (s *State) Host() *Host { return s.host }

// Element returns the field element.
func (s *State) Element() *Element { return s.element }

// SetElement provides the field element. It must happen before Init.
func (s *State) SetElement(el *Element) { s.element = el }

// Own registers extra elements that count as inside the field, such as a
// popup panel.
func (s *State) Own(els ...*Element) {
	for _, el := range els {
		if el != nil {
			s.owned = append(s.owned, el)
		}
	}
}

// Owns reports whether el is the field element or an owned element.
func (s *State) Owns(el *Element) bool {
	if el == nil {
		return false
	}
	if el == s.element {
		return true
	}
	for _, o := range s.owned {
		if o == el {
			return true
		}
	}
	return false
}

func (s *State) Focused() bool  { return s.focused }
func (s *State) Filled() bool   { return s.filled }
func (s *State) Disabled() bool { return s.disabled }
func (s *State) Readonly() bool { return s.readonly }

// SetReadonly toggles the readonly flag.
func (s *State) SetReadonly(readonly bool) { s.readonly = readonly }

// SetDisabledState implements the accessor contract.
func (s *State) SetDisabledState(disabled bool) {
	s.disabled = disabled
	if disabled && s.focused {
		s.focused = false
		s.focusChanges.Emit(false)
	}
}

// IsLabelFloating reports whether a decorator label should float above the
// value.
func (s *State) IsLabelFloating() bool {
	return s.focused || s.filled
}

// ValueChanges publishes every observed value change.
func (s *State) ValueChanges() *stream.Stream[any] { return s.valueChanges }

// FocusChanges publishes focus transitions.
func (s *State) FocusChanges() *stream.Stream[bool] { return s.focusChanges }

// RegisterOnChange installs the binding layer's change callback.
func (s *State) RegisterOnChange(fn func(any)) { s.onChange = fn }

// RegisterOnTouched installs the binding layer's touched callback.
func (s *State) RegisterOnTouched(fn func()) { s.onTouched = fn }

// OnValueChange reads the widget value and, when it differs from the last
// observed one, updates filled, publishes it, notifies the binding layer and
// calls the widget hook.
func (s *State) OnValueChange() {
	value := s.hooks.Value()
	if s.observed && reflect.DeepEqual(value, s.last) {
		return
	}
	s.last, s.observed = value, true
	s.filled = IsFilled(value)
	s.valueChanges.Emit(value)
	if s.onChange != nil {
		s.onChange(value)
	}
	s.hooks.DoOnValueChange(value)
}

// Propagate pushes the current value out through the value stream and the
// change callback even when it was already observed. Widgets use it after
// correcting a programmatic write.
func (s *State) Propagate() {
	value := s.hooks.Value()
	s.last, s.observed = value, true
	s.filled = IsFilled(value)
	s.valueChanges.Emit(value)
	if s.onChange != nil {
		s.onChange(value)
	}
}

// OnFocusChange records a focus transition. Disabled fields ignore it.
// Blurring notifies the touched callback before the widget hook runs.
func (s *State) OnFocusChange(focused bool) {
	if s.disabled {
		return
	}
	s.focused = focused
	s.focusChanges.Emit(focused)
	if !focused && s.onTouched != nil {
		s.onTouched()
	}
	s.hooks.DoOnFocusChange(focused)
}

// WriteValue applies a programmatic value from the binding layer.
func (s *State) WriteValue(value any) {
	s.hooks.DoWriteValue(value)
	s.last, s.observed = s.hooks.Value(), true
	s.filled = IsFilled(s.last)
}

// Init registers the document listeners. Registering without an element is
// an integration error and panics.
func (s *State) Init() {
	if s.initialised || s.destroyed {
		return
	}
	if s.element == nil {
		panic(ErrNoElement)
	}
	s.initialised = true
	if !s.observed {
		s.last, s.observed = s.hooks.Value(), true
		s.filled = IsFilled(s.last)
	}
	if s.host == nil || s.host.Document == nil {
		return
	}

	doc := s.host.Document
	s.listeners.Add(doc.keys.Subscribe(s.handleKey))
	s.listeners.Add(doc.pointers.Subscribe(s.handlePointer))
	if s.host.Loop != nil {
		s.layout = loop.NewDebouncer[string](s.host.Loop, LayoutDebounce)
		s.listeners.Add(doc.layout.Subscribe(func(LayoutKind) {
			s.layout.Trigger(s.id, s.handleLayout)
		}))
		s.listeners.Add(s.layout.Stop)
	}
}

// Destroy removes listeners and closes the streams. It is idempotent.
func (s *State) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.listeners.Release()
	s.valueChanges.Close()
	s.focusChanges.Close()
}

// Destroyed reports whether Destroy has run.
func (s *State) Destroyed() bool { return s.destroyed }

// Logger returns the host logger or a no-op one.
func (s *State) Logger() *zap.Logger {
	if s.host == nil || s.host.Logger == nil {
		return zap.NewNop()
	}
	return s.host.Logger
}

// Defer runs fn on the next loop tick, or immediately without a loop.
func (s *State) Defer(fn func()) {
	if s.host == nil || s.host.Loop == nil {
		fn()
		return
	}
	s.host.Loop.Defer(func() {
		if s.destroyed {
			return
		}
		fn()
	})
}

func (s *State) handleKey(ev *KeyEvent) {
	if !s.focused || s.disabled || !s.Owns(ev.Target) {
		return
	}
	if _, ok := s.keys[ev.Msg.Type]; !ok {
		return
	}
	switch ev.Msg.Type {
	case tea.KeyTab, tea.KeyLeft, tea.KeyRight:
	default:
		ev.PreventDefault()
	}
	if h, ok := s.hooks.(KeyHandler); ok {
		h.HandleKey(ev)
	}
}

func (s *State) handlePointer(ev PointerEvent) {
	if ev.Contains(s.element) {
		return
	}
	for _, el := range s.owned {
		if ev.Contains(el) {
			return
		}
	}
	if h, ok := s.hooks.(OutsideClickHandler); ok {
		h.HandleOutsideClick()
	}
}

func (s *State) handleLayout() {
	if s.destroyed {
		return
	}
	if h, ok := s.hooks.(LayoutHandler); ok {
		h.HandleLayout()
	}
}

// IsFilled applies the fill rule: strings, slices and maps are filled when
// non-empty, everything else when truthy.
func IsFilled(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case string:
		return v != ""
	case bool:
		return v
	case time.Time:
		return !v.IsZero()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	}
	return true
}
