// Package prompt walks a form session in the terminal, one question per
// visible field. Answers go through the widgets exactly as key input would,
// so validation, visibility and error presentation behave the same way.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formfields/internal/definition"
	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/option"
	"github.com/goliatone/go-formfields/pkg/validation"
	"github.com/goliatone/go-formfields/pkg/widgets"
)

const (
	defaultAttempts = 3
	defaultSettle   = 5 * time.Second
	pageSize        = 10
)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAttempts caps how many times an invalid field is asked again.
func WithAttempts(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithSettleTimeout bounds the wait for validation after each answer.
func WithSettleTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.settle = d
		}
	}
}

// Runner asks for every visible field of a session.
type Runner struct {
	driver   Driver
	logger   *zap.Logger
	attempts int
	settle   time.Duration
}

// New returns a Runner using driver.
func New(driver Driver, opts ...Option) (*Runner, error) {
	if driver == nil {
		return nil, errors.New("prompt: driver is required")
	}
	r := &Runner{
		driver:   driver,
		logger:   zap.NewNop(),
		attempts: defaultAttempts,
		settle:   defaultSettle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Run asks each field in declaration order, skipping the hidden ones, then
// submits. It returns the form values once every field is valid. Run must
// not be called from the session loop.
func (r *Runner) Run(ctx context.Context, s *definition.Session) (map[string]any, error) {
	l := s.Loop()
	if title := s.Form().Title; title != "" {
		if err := r.driver.Info(ctx, title); err != nil {
			return nil, err
		}
	}

	for _, entry := range s.Entries() {
		var hidden bool
		l.Do(func() { hidden = entry.Hidden() })
		if hidden {
			r.logger.Debug("prompt: skip hidden field", zap.String("field", entry.Field.Name))
			continue
		}
		if err := r.ask(ctx, l, entry); err != nil {
			return nil, err
		}
	}

	l.Do(s.Submit)
	if err := r.wait(ctx, l, s.Root()); err != nil {
		return nil, err
	}

	var (
		values map[string]any
		errs   validation.ErrorMap
	)
	l.Do(func() {
		values = s.Values()
		errs = s.Errors()
	})
	if len(errs) > 0 {
		for _, path := range sortedPaths(errs) {
			if err := r.driver.Info(ctx, fmt.Sprintf("%s: %s", labelFor(s, path), strings.Join(errs[path], "; "))); err != nil {
				return nil, err
			}
		}
		return values, fmt.Errorf("prompt: form %s: %w", s.Form().ID, ErrInvalid)
	}
	return values, nil
}

func (r *Runner) ask(ctx context.Context, l *loop.Loop, entry *definition.Entry) error {
	for attempt := 1; ; attempt++ {
		apply, err := r.question(ctx, l, entry)
		if err != nil {
			return err
		}
		l.Do(func() {
			focus(entry.Widget, true)
			apply()
			focus(entry.Widget, false)
		})
		if err := r.wait(ctx, l, entry.Control); err != nil {
			return err
		}

		var msgs []string
		l.Do(func() {
			if entry.Control.Enabled() {
				msgs = validation.MessagesOf(entry.Control.Errors())
			}
		})
		if len(msgs) == 0 {
			return nil
		}
		r.logger.Debug("prompt: invalid answer",
			zap.String("field", entry.Field.Name),
			zap.Int("attempt", attempt),
			zap.Strings("errors", msgs),
		)
		if err := r.driver.Info(ctx, fmt.Sprintf("%s: %s", entry.Field.Label, strings.Join(msgs, "; "))); err != nil {
			return err
		}
		if attempt >= r.attempts {
			return fmt.Errorf("prompt: field %q: %w", entry.Field.Name, ErrInvalid)
		}
	}
}

// question reads the widget on the loop, asks the driver off the loop and
// returns the loop task that applies the answer.
func (r *Runner) question(ctx context.Context, l *loop.Loop, entry *definition.Entry) (func(), error) {
	var (
		snapshot display
		opts     []option.Option
		checked  []int
		on       bool
	)
	l.Do(func() {
		snapshot = displayOf(entry.Widget)
		if of, ok := entry.Widget.(field.OptionField); ok {
			opts = selectable(of.Options())
			for i, o := range opts {
				if o.Selected {
					checked = append(checked, i)
				}
			}
		}
		if t, ok := entry.Widget.(*widgets.Toggle); ok {
			on = t.On()
		}
	})

	label := entry.Field.Label
	help := entry.Field.Hint

	switch w := entry.Widget.(type) {
	case *widgets.Input:
		cfg := InputConfig{Message: label, Default: snapshot.text, Help: help}
		var (
			answer string
			err    error
		)
		if w.Type() == widgets.InputPassword {
			answer, err = r.driver.Password(ctx, cfg)
		} else {
			if w.Type() == widgets.InputNumber {
				cfg.Validator = numeric
			}
			answer, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return nil, err
		}
		return func() { w.SetText(answer) }, nil

	case *widgets.TextArea:
		answer, err := r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: snapshot.text, Help: help})
		if err != nil {
			return nil, err
		}
		return func() { w.SetText(answer) }, nil

	case *widgets.Toggle:
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: on, Help: help})
		if err != nil {
			return nil, err
		}
		return func() {
			if w.On() != answer {
				w.Flip()
			}
		}, nil

	case *widgets.Slider:
		cfg := InputConfig{
			Message:   label,
			Default:   snapshot.text,
			Help:      joinHelp(help, fmt.Sprintf("%g to %g, step %g", w.Min(), w.Max(), w.Step())),
			Validator: numeric,
		}
		answer, err := r.driver.Input(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return func() {
			if v, err := strconv.ParseFloat(strings.TrimSpace(answer), 64); err == nil {
				w.SetValue(v)
			}
		}, nil

	case *widgets.DateField:
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: snapshot.text, Help: joinHelp(help, entry.Field.DateFormat)})
		if err != nil {
			return nil, err
		}
		return func() {
			w.Input(answer)
			w.Commit()
		}, nil

	case *widgets.TimeField:
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: snapshot.text, Help: joinHelp(help, entry.Field.DateFormat)})
		if err != nil {
			return nil, err
		}
		return func() {
			w.Input(answer)
			w.Commit()
		}, nil

	case *widgets.CheckboxGroup:
		cfg := SelectConfig{Message: label, Options: labels(opts), Defaults: checked, Help: help, PageSize: pageSize}
		picked, err := r.driver.MultiSelect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		want := make(map[string]bool, len(picked))
		for _, idx := range picked {
			if idx >= 0 && idx < len(opts) {
				want[opts[idx].Value] = true
			}
		}
		return func() {
			for _, o := range opts {
				if w.Checked(o.Value) != want[o.Value] {
					w.SelectOption(o.Value)
				}
			}
		}, nil

	case field.OptionField:
		if len(opts) == 0 {
			msg := w.NoOptionsText()
			if msg == "" {
				msg = widgets.DefaultNoOptionsText
			}
			if err := r.driver.Info(ctx, fmt.Sprintf("%s: %s", label, msg)); err != nil {
				return nil, err
			}
			return func() {}, nil
		}
		def := -1
		if len(checked) > 0 {
			def = checked[0]
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: labels(opts), DefaultIndex: def, Help: help, PageSize: pageSize})
		if err != nil {
			return nil, err
		}
		return func() {
			if idx >= 0 && idx < len(opts) {
				w.SelectOption(opts[idx].Value)
			}
		}, nil
	}

	r.logger.Warn("prompt: no question for widget",
		zap.String("field", entry.Field.Name),
		zap.String("widget", fmt.Sprintf("%T", entry.Widget)),
	)
	return func() {}, nil
}

// wait blocks until c leaves the pending status, bounded by the settle
// timeout.
func (r *Runner) wait(ctx context.Context, l *loop.Loop, c forms.AbstractControl) error {
	waitCtx, cancel := context.WithTimeout(ctx, r.settle)
	defer cancel()
	err := definition.Settle(waitCtx, l, c)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return ErrSettleTimeout
	}
	return err
}

type display struct {
	text string
}

func displayOf(f field.Field) display {
	switch w := f.(type) {
	case *widgets.Input:
		return display{text: w.Text()}
	case interface{ Display() string }:
		return display{text: w.Display()}
	}
	return display{}
}

func focus(f field.Field, focused bool) {
	if w, ok := f.(interface{ OnFocusChange(bool) }); ok {
		w.OnFocusChange(focused)
	}
}

func selectable(opts []option.Option) []option.Option {
	out := make([]option.Option, 0, len(opts))
	for _, o := range opts {
		if !o.Disabled {
			out = append(out, o)
		}
	}
	return out
}

func labels(opts []option.Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Label
		if out[i] == "" {
			out[i] = o.Value
		}
	}
	return out
}

func numeric(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err != nil {
		return fmt.Errorf("%q is not a number", raw)
	}
	return nil
}

func joinHelp(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}

func labelFor(s *definition.Session, path string) string {
	if f, ok := s.Form().Field(path); ok {
		return f.Label
	}
	if path == validation.RootFormKey {
		return s.Form().ID
	}
	return path
}

func sortedPaths(errs validation.ErrorMap) []string {
	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
