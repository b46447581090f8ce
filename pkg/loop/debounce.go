package loop

import "time"

// Debouncer coalesces bursts of calls per key: only the last call inside a
// quiet window runs. Keys debounce independently. A Debouncer is loop-affine.
type Debouncer[K comparable] struct {
	loop   *Loop
	window time.Duration
	timers map[K]*Timer
}

// NewDebouncer returns a debouncer firing window after the last trigger.
func NewDebouncer[K comparable](l *Loop, window time.Duration) *Debouncer[K] {
	return &Debouncer[K]{
		loop:   l,
		window: window,
		timers: make(map[K]*Timer),
	}
}

// Window reports the default quiet window.
func (d *Debouncer[K]) Window() time.Duration {
	return d.window
}

// Trigger restarts the quiet window for key and replaces its pending task.
func (d *Debouncer[K]) Trigger(key K, fn func()) {
	d.TriggerAfter(key, d.window, fn)
}

// TriggerAfter is Trigger with an explicit window for this call.
func (d *Debouncer[K]) TriggerAfter(key K, window time.Duration, fn func()) {
	if prev, ok := d.timers[key]; ok {
		prev.Stop()
	}
	var t *Timer
	t = d.loop.AfterFunc(window, func() {
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		fn()
	})
	d.timers[key] = t
}

// Pending reports whether key has a task waiting for its window to elapse.
func (d *Debouncer[K]) Pending(key K) bool {
	_, ok := d.timers[key]
	return ok
}

// Cancel drops the pending task for key, if any.
func (d *Debouncer[K]) Cancel(key K) {
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

// Stop cancels every pending task.
func (d *Debouncer[K]) Stop() {
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
