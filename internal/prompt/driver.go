package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// InputConfig describes a single line question. Validator runs on every
// submitted answer and keeps the prompt open while it fails.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// ConfirmConfig describes a yes/no question.
type ConfirmConfig struct {
	Message string
	Default bool
	Help    string
}

// SelectConfig describes a choice between labels. DefaultIndex applies to
// single choices, Defaults to multiple ones. Both index into Options.
type SelectConfig struct {
	Message      string
	Options      []string
	DefaultIndex int
	Defaults     []int
	Help         string
	PageSize     int
}

// TextAreaConfig describes a multi-line question.
type TextAreaConfig struct {
	Message string
	Default string
	Help    string
}

// Driver asks questions on behalf of the runner. Implementations return
// ErrAborted when the user interrupts.
type Driver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	Password(ctx context.Context, cfg InputConfig) (string, error)
	Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error)
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error)
	TextArea(ctx context.Context, cfg TextAreaConfig) (string, error)
	Info(ctx context.Context, msg string) error
}

// SurveyOption configures the survey driver.
type SurveyOption func(*surveyDriver)

// WithStdio routes prompts through the given streams instead of the process
// stdio.
func WithStdio(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) SurveyOption {
	return func(d *surveyDriver) {
		d.opts = append(d.opts, survey.WithStdio(in, out, errOut))
		d.out = out
	}
}

type surveyDriver struct {
	opts []survey.AskOpt
	out  io.Writer
}

// NewSurveyDriver returns a Driver backed by survey.
func NewSurveyDriver(opts ...SurveyOption) Driver {
	d := &surveyDriver{out: os.Stdout}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// askOne runs a single survey prompt and writes the answer into a T. Select
// prompts write their index when T is int or []int.
func askOne[T any](ctx context.Context, d *surveyDriver, p survey.Prompt, extra ...survey.AskOpt) (T, error) {
	var answer T
	if err := ctx.Err(); err != nil {
		return answer, err
	}
	if err := survey.AskOne(p, &answer, append(slices.Clone(d.opts), extra...)...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			err = ErrAborted
		}
		return answer, err
	}
	return answer, nil
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	p := &survey.Input{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	return askOne[string](ctx, d, p, cfg.askOpts()...)
}

func (d *surveyDriver) Password(ctx context.Context, cfg InputConfig) (string, error) {
	p := &survey.Password{Message: cfg.Message, Help: cfg.Help}
	return askOne[string](ctx, d, p, cfg.askOpts()...)
}

func (d *surveyDriver) Confirm(ctx context.Context, cfg ConfirmConfig) (bool, error) {
	p := &survey.Confirm{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	return askOne[bool](ctx, d, p)
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	p := &survey.Select{
		Message:  cfg.Message,
		Options:  cfg.Options,
		Help:     cfg.Help,
		PageSize: cfg.PageSize,
	}
	if cfg.DefaultIndex > 0 && cfg.DefaultIndex < len(cfg.Options) {
		p.Default = cfg.DefaultIndex
	}
	idx, err := askOne[int](ctx, d, p)
	if err != nil {
		return -1, err
	}
	return idx, nil
}

func (d *surveyDriver) MultiSelect(ctx context.Context, cfg SelectConfig) ([]int, error) {
	p := &survey.MultiSelect{
		Message:  cfg.Message,
		Options:  cfg.Options,
		Help:     cfg.Help,
		PageSize: cfg.PageSize,
	}
	if defaults := inRange(cfg.Defaults, len(cfg.Options)); len(defaults) > 0 {
		p.Default = defaults
	}
	return askOne[[]int](ctx, d, p)
}

func (d *surveyDriver) TextArea(ctx context.Context, cfg TextAreaConfig) (string, error) {
	p := &survey.Multiline{Message: cfg.Message, Default: cfg.Default, Help: cfg.Help}
	return askOne[string](ctx, d, p)
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

func (cfg InputConfig) askOpts() []survey.AskOpt {
	if cfg.Validator == nil {
		return nil
	}
	return []survey.AskOpt{survey.WithValidator(func(ans any) error {
		text, ok := ans.(string)
		if !ok {
			return fmt.Errorf("expected text, got %T", ans)
		}
		return cfg.Validator(text)
	})}
}

func inRange(indices []int, n int) []int {
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < n {
			out = append(out, idx)
		}
	}
	return out
}
