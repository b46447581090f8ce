package rules

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formfields/pkg/rules/expr"
	"github.com/goliatone/go-formfields/pkg/validation"
)

// ErrNoAssertion reports a Test with neither Check nor Expr.
var ErrNoAssertion = errors.New("rules: test has neither check nor expr")

// Check reports whether model satisfies a rule.
type Check func(model map[string]any) bool

// Test is a single rule bound to a field path. Exactly one of Check and Expr
// is required; Expr must evaluate to true for the test to pass. When, if set,
// must evaluate to true for the test to run at all.
type Test struct {
	Field   string
	Message string
	Check   Check
	Expr    string
	When    string
}

type compiled struct {
	Test
	expr expr.Expression
	when expr.Expression
}

// Suite runs Tests against a model. It implements validation.Suite.
type Suite struct {
	tests  []compiled
	extras map[string]any
	limit  int
}

// Option configures a Suite.
type Option func(*Suite)

// WithExtras exposes values to expressions under the `extras.` prefix.
func WithExtras(extras map[string]any) Option {
	return func(s *Suite) {
		s.extras = extras
	}
}

// WithConcurrency caps how many tests evaluate at once. Values below one
// mean unlimited.
func WithConcurrency(n int) Option {
	return func(s *Suite) {
		s.limit = n
	}
}

var _ validation.Suite = (*Suite)(nil)

// New compiles tests into a Suite.
func New(tests []Test, opts ...Option) (*Suite, error) {
	s := &Suite{limit: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	evaluator := expr.New()
	for i, t := range tests {
		c := compiled{Test: t}
		if t.Check == nil && t.Expr == "" {
			return nil, fmt.Errorf("rules: test %d (%s): %w", i, t.Field, ErrNoAssertion)
		}
		if c.Message == "" {
			c.Message = t.Field + " is invalid"
		}
		var err error
		if t.Check == nil {
			if c.expr, err = evaluator.Compile(t.Expr); err != nil {
				return nil, fmt.Errorf("rules: test %d (%s) expr: %w", i, t.Field, err)
			}
		}
		if t.When != "" {
			if c.when, err = evaluator.Compile(t.When); err != nil {
				return nil, fmt.Errorf("rules: test %d (%s) when: %w", i, t.Field, err)
			}
		}
		s.tests = append(s.tests, c)
	}
	return s, nil
}

// MustNew is New for init-time wiring; it panics on error.
func MustNew(tests ...Test) *Suite {
	s, err := New(tests)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields lists the field paths that have tests, in declaration order.
func (s *Suite) Fields() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range s.tests {
		if seen[t.Field] {
			continue
		}
		seen[t.Field] = true
		out = append(out, t.Field)
	}
	return out
}

// Run implements validation.Suite.
func (s *Suite) Run(ctx context.Context, model map[string]any, field string) (validation.Result, error) {
	return s.Validate(ctx, model, field)
}

// Validate evaluates the tests for field, or every test when field is empty.
// Failing messages are grouped by field path in declaration order.
func (s *Suite) Validate(ctx context.Context, model map[string]any, field string) (validation.Messages, error) {
	selected := make([]compiled, 0, len(s.tests))
	for _, t := range s.tests {
		if field == "" || t.Field == field {
			selected = append(selected, t)
		}
	}

	failed := make([]bool, len(selected))
	env := expr.Context{Values: model, Extras: s.extras}

	g, gctx := errgroup.WithContext(ctx)
	if s.limit > 0 {
		g.SetLimit(s.limit)
	}
	for i, t := range selected {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ok, err := t.pass(env)
			if err != nil {
				return fmt.Errorf("rules: %s: %w", t.Field, err)
			}
			failed[i] = !ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := validation.Messages{}
	for i, t := range selected {
		if failed[i] {
			out[t.Field] = append(out[t.Field], t.Message)
		}
	}
	return out, nil
}

func (t compiled) pass(env expr.Context) (bool, error) {
	if t.when != nil {
		run, err := t.when.Eval(env)
		if err != nil || !run {
			return true, err
		}
	}
	if t.Check != nil {
		return t.Check(env.Values), nil
	}
	return t.expr.Eval(env)
}
