package validation

import (
	"context"
	"errors"
	"fmt"
)

// Result is what a suite run reports: ordered messages keyed by path.
type Result interface {
	Errors() map[string][]string
}

// Messages is a map-backed Result.
type Messages map[string][]string

// Errors implements Result.
func (m Messages) Errors() map[string][]string { return m }

// Suite is the declarative rule engine the orchestrator drives. field is the
// path being validated, or "" to run every rule. Run may block; it is always
// called off the loop goroutine.
type Suite interface {
	Run(ctx context.Context, model map[string]any, field string) (Result, error)
}

// SuiteFunc adapts a function to Suite.
type SuiteFunc func(ctx context.Context, model map[string]any, field string) (Result, error)

// Run implements Suite.
func (f SuiteFunc) Run(ctx context.Context, model map[string]any, field string) (Result, error) {
	return f(ctx, model, field)
}

func runSuite(ctx context.Context, s Suite, model map[string]any, field string) (res Result, err error) {
	defer recoverSuite(&err)
	return s.Run(ctx, model, field)
}

func recoverSuite(err *error) {
	r := recover()
	if r == nil {
		return
	}
	rerr, ok := r.(error)
	if !ok {
		*err = fmt.Errorf("validation: suite panic: %v", r)
		return
	}
	*err = errors.Join(errors.New("validation: suite panic"), rerr)
}
