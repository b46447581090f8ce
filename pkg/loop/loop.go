package loop

import (
	"sync"
	"time"
)

// Loop runs posted tasks one at a time on a dedicated goroutine. Forms,
// widgets and the validation orchestrator are loop-affine: their methods must
// run inside a task so state is never touched concurrently.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	signal  chan struct{}
	done    chan struct{}
	closed  bool
	stopped chan struct{}
}

// New starts a loop.
func New() *Loop {
	l := &Loop{
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

// Post enqueues fn. It never blocks, so tasks may post follow-up tasks. It
// reports false once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	if l == nil || fn == nil {
		return false
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// Defer schedules fn for the next tick, after every task already queued. It
// is the microtask primitive used to avoid re-entrant writes.
func (l *Loop) Defer(fn func()) bool {
	return l.Post(fn)
}

// Do posts fn and waits for it to finish. Calling Do from inside a task
// deadlocks; tasks should use Post instead.
func (l *Loop) Do(fn func()) {
	if fn == nil {
		return
	}
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return
	}
	select {
	case <-finished:
	case <-l.stopped:
	}
}

// Flush waits until every task queued before the call has run.
func (l *Loop) Flush() {
	l.Do(func() {})
}

// AfterFunc posts fn to the loop once d has elapsed. Stopping the returned
// timer before it fires cancels the task.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	t := &Timer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped() {
				return
			}
			fn()
		})
	})
	return t
}

// Done is closed once Close has been called.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Close stops the loop. Pending tasks are dropped. Close is idempotent and
// may be called from inside a task.
func (l *Loop) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.queue = nil
	close(l.done)
	l.mu.Unlock()
}

func (l *Loop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			return
		case <-l.signal:
		}
		for {
			l.mu.Lock()
			if l.closed {
				l.mu.Unlock()
				return
			}
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			task := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()
			task()
		}
	}
}

// Timer is a cancellable delayed task.
type Timer struct {
	mu     sync.Mutex
	timer  *time.Timer
	halted bool
}

// Stop cancels the task. It is safe to call more than once and on nil.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.halted = true
	t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *Timer) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.halted
}
