package field

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/stream"
)

// Element is an opaque node identity. Widgets own one element for the field
// itself and optionally more (popup panels rendered elsewhere).
type Element struct {
	Name string
}

// NewElement returns a fresh node identity.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// KeyEvent is a document-level key press aimed at Target.
type KeyEvent struct {
	Msg    tea.KeyMsg
	Target *Element

	prevented bool
}

// NewKeyEvent builds a key event for a key type.
func NewKeyEvent(target *Element, key tea.KeyType) *KeyEvent {
	return &KeyEvent{Msg: tea.KeyMsg{Type: key}, Target: target}
}

// PreventDefault marks the event as consumed.
func (e *KeyEvent) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether a handler consumed the event.
func (e *KeyEvent) DefaultPrevented() bool {
	return e.prevented
}

// PointerEvent is a click or pointer-down with its composed path, innermost
// node first. Containment is decided on the path, so detached nodes that are
// composed into the event (popup panels) still count as inside.
type PointerEvent struct {
	Path []*Element
}

// Contains reports whether el is on the event path.
func (e PointerEvent) Contains(el *Element) bool {
	if el == nil {
		return false
	}
	for _, node := range e.Path {
		if node == el {
			return true
		}
	}
	return false
}

// LayoutKind distinguishes window resize from scroll.
type LayoutKind int

const (
	LayoutResize LayoutKind = iota
	LayoutScroll
)

// Document is the global event source widgets listen on. The host pushes
// keyboard, pointer and layout events into it; every registered widget
// filters by its own focus and containment state before acting.
type Document struct {
	keys     *stream.Stream[*KeyEvent]
	pointers *stream.Stream[PointerEvent]
	layout   *stream.Stream[LayoutKind]
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		keys:     stream.New[*KeyEvent](),
		pointers: stream.New[PointerEvent](),
		layout:   stream.New[LayoutKind](),
	}
}

// DispatchKey delivers a key event and reports whether it was consumed.
func (d *Document) DispatchKey(ev *KeyEvent) bool {
	if ev == nil {
		return false
	}
	d.keys.Emit(ev)
	return ev.DefaultPrevented()
}

// DispatchPointer delivers a pointer event.
func (d *Document) DispatchPointer(ev PointerEvent) {
	d.pointers.Emit(ev)
}

// DispatchResize signals a window resize.
func (d *Document) DispatchResize() {
	d.layout.Emit(LayoutResize)
}

// DispatchScroll signals a scroll.
func (d *Document) DispatchScroll() {
	d.layout.Emit(LayoutScroll)
}

// Host bundles what widgets need from their environment.
type Host struct {
	Loop     *loop.Loop
	Document *Document
	Logger   *zap.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithDocument shares an existing document between hosts.
func WithDocument(doc *Document) HostOption {
	return func(h *Host) {
		if doc != nil {
			h.Document = doc
		}
	}
}

// WithLogger sets the widget logger.
func WithLogger(logger *zap.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.Logger = logger
		}
	}
}

// NewHost builds a host on l with a fresh document and a no-op logger.
func NewHost(l *loop.Loop, opts ...HostOption) *Host {
	h := &Host{
		Loop:     l,
		Document: NewDocument(),
		Logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}
