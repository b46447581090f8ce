package definition

import (
	"context"

	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/loop"
)

// Settle blocks until c leaves the pending status or ctx ends. It must not be
// called from l.
func Settle(ctx context.Context, l *loop.Loop, c forms.AbstractControl) error {
	settled := make(chan struct{}, 1)
	check := func() {
		if !c.Pending() {
			select {
			case settled <- struct{}{}:
			default:
			}
		}
	}
	var unsubscribe func()
	l.Do(func() {
		unsubscribe = c.Events().Subscribe(func(forms.Event) { check() })
		check()
	})
	defer func() {
		if unsubscribe != nil {
			l.Do(unsubscribe)
		}
	}()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
