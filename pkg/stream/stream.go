// Package stream implements the small synchronous subjects used for field,
// form and orchestrator change notifications. Streams are loop-affine like
// everything that emits on them.
package stream

import "reflect"

// Stream is a multicast subject. Emit calls every live subscriber in
// subscription order.
type Stream[T any] struct {
	listeners []func(T)
	closed    bool
}

// New creates an open stream.
func New[T any]() *Stream[T] {
	return &Stream[T]{}
}

// Subscribe adds a listener and returns its unsubscribe func.
func (s *Stream[T]) Subscribe(fn func(T)) func() {
	if s == nil || fn == nil || s.closed {
		return func() {}
	}
	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1
	return func() {
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

// Emit publishes value. Listeners added during Emit see the next value, not
// this one.
func (s *Stream[T]) Emit(value T) {
	if s == nil || s.closed {
		return
	}
	listeners := s.listeners
	for _, fn := range listeners {
		if fn != nil {
			fn(value)
		}
	}
}

// Close drops every listener and ignores further emissions.
func (s *Stream[T]) Close() {
	if s == nil {
		return
	}
	s.closed = true
	s.listeners = nil
}

// Closed reports whether Close has been called.
func (s *Stream[T]) Closed() bool {
	return s == nil || s.closed
}

// Distinct wraps fn so consecutive equal values are delivered once.
func Distinct[T any](fn func(T)) func(T) {
	var (
		last T
		seen bool
	)
	return func(value T) {
		if seen && reflect.DeepEqual(last, value) {
			return
		}
		last, seen = value, true
		fn(value)
	}
}

// Replay is a single-slot replay subject: late subscribers receive the latest
// value immediately.
type Replay[T any] struct {
	Stream[T]
	latest T
	has    bool
}

// NewReplay creates an empty replay subject.
func NewReplay[T any]() *Replay[T] {
	return &Replay[T]{}
}

// Emit stores value and publishes it.
func (r *Replay[T]) Emit(value T) {
	if r.closed {
		return
	}
	r.latest, r.has = value, true
	r.Stream.Emit(value)
}

// Subscribe replays the latest value, if any, before subscribing.
func (r *Replay[T]) Subscribe(fn func(T)) func() {
	if r.has && fn != nil && !r.closed {
		fn(r.latest)
	}
	return r.Stream.Subscribe(fn)
}

// Latest returns the buffered value.
func (r *Replay[T]) Latest() (T, bool) {
	return r.latest, r.has
}

// Bag collects unsubscribe funcs and releases them together. It is the
// per-owner destroy signal.
type Bag struct {
	funcs    []func()
	released bool
}

// Add registers fn for release. Adding to a released bag calls fn at once.
func (b *Bag) Add(fns ...func()) {
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		if b.released {
			fn()
			continue
		}
		b.funcs = append(b.funcs, fn)
	}
}

// Release calls every registered func once, most recent first.
func (b *Bag) Release() {
	if b.released {
		return
	}
	b.released = true
	for i := len(b.funcs) - 1; i >= 0; i-- {
		b.funcs[i]()
	}
	b.funcs = nil
}

// Released reports whether Release has run.
func (b *Bag) Released() bool {
	return b.released
}
