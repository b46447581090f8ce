package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formfields/internal/definition"
	"github.com/goliatone/go-formfields/internal/prompt"
	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/validation"
)

const settleTimeout = 5 * time.Second

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg    config
	logger *zap.Logger
	tracer trace.Tracer
	store  *definition.Store
	close  []func()
}

func (a *app) shutdown() {
	for i := len(a.close) - 1; i >= 0; i-- {
		a.close[i]()
	}
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	logger, closeLogger, err := newLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.close = append(a.close, closeLogger)

	tracer, shutdown, err := newTracer(cfg.Trace, cmd.ErrOrStderr())
	if err != nil {
		a.shutdown()
		return nil, err
	}
	a.tracer = tracer
	a.close = append(a.close, func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("formfields-demo: tracer shutdown", zap.Error(err))
		}
	})

	store, err := definition.LoadFS(os.DirFS(cfg.Forms), ".")
	if err != nil {
		a.shutdown()
		return nil, err
	}
	if store.Empty() {
		a.shutdown()
		return nil, fmt.Errorf("no form definitions found in %s", cfg.Forms)
	}
	a.store = store
	logger.Debug("formfields-demo: definitions loaded",
		zap.String("dir", cfg.Forms),
		zap.Strings("forms", store.IDs()),
	)
	return a, nil
}

func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.shutdown()
		return fn(cmd, args, a)
	}
}

func (a *app) form(id string) (*definition.Form, error) {
	form, ok := a.store.Form(id)
	if !ok {
		return nil, fmt.Errorf("unknown form %q (have %s)", id, strings.Join(a.store.IDs(), ", "))
	}
	return form, nil
}

// session runs fn with a live session on its own loop.
func (a *app) session(form *definition.Form, values map[string]any, fn func(l *loop.Loop, s *definition.Session) error) error {
	l := loop.New()
	defer l.Close()

	opts := []definition.SessionOption{
		definition.WithLogger(a.logger),
		definition.WithTracer(a.tracer),
		definition.WithValues(values),
	}
	if a.cfg.Width > 0 {
		opts = append(opts, definition.WithWidth(a.cfg.Width))
	}
	if a.cfg.Debounce > 0 {
		opts = append(opts, definition.WithDebounce(a.cfg.Debounce))
	}

	var (
		s   *definition.Session
		err error
	)
	l.Do(func() { s, err = definition.NewSession(l, form, opts...) })
	if err != nil {
		return err
	}
	defer l.Do(s.Close)
	return fn(l, s)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "formfields-demo",
		Short:         "Fill, check and preview YAML form definitions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "optional config file (yaml, json or toml)")
	flags.String("forms", "forms", "directory holding form definitions")
	flags.String("log-file", "", "write JSON logs to this rotated file instead of stderr")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("trace", false, "print validation spans to stderr")
	flags.Int("width", 0, "rendered field width")
	flags.Duration("debounce", 0, "validation debounce window")

	root.AddCommand(newListCmd(), newRunCmd(), newCheckCmd(), newPreviewCmd())
	return root
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available forms",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, _ []string, a *app) error {
			out := cmd.OutOrStdout()
			for _, id := range a.store.IDs() {
				form, _ := a.store.Form(id)
				fmt.Fprintf(out, "%s\t%s\n", id, form.Title)
			}
			return nil
		}),
	}
}

func newRunCmd() *cobra.Command {
	var valuesPath string
	cmd := &cobra.Command{
		Use:   "run <form>",
		Short: "Fill a form interactively",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("run: stdin is not a terminal, use check for scripted values")
			}
			form, err := a.form(args[0])
			if err != nil {
				return err
			}
			prefill, err := readValues(cmd.InOrStdin(), valuesPath)
			if err != nil {
				return err
			}
			runner, err := prompt.New(prompt.NewSurveyDriver(), prompt.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return a.session(form, prefill, func(_ *loop.Loop, s *definition.Session) error {
				values, err := runner.Run(cmd.Context(), s)
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), values)
			})
		}),
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", "YAML file with initial values")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var valuesPath string
	cmd := &cobra.Command{
		Use:   "check <form>",
		Short: "Validate prepared values against a form",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			form, err := a.form(args[0])
			if err != nil {
				return err
			}
			values, err := readValues(cmd.InOrStdin(), valuesPath)
			if err != nil {
				return err
			}
			return a.session(form, values, func(l *loop.Loop, s *definition.Session) error {
				errs, out, err := submit(cmd.Context(), l, s)
				if err != nil {
					return err
				}
				if len(errs) > 0 {
					writeErrors(cmd.OutOrStdout(), form, errs)
					return fmt.Errorf("check: %s: %d invalid field(s)", form.ID, len(errs))
				}
				return writeYAML(cmd.OutOrStdout(), out)
			})
		}),
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", `YAML file with the values to check ("-" reads stdin)`)
	return cmd
}

func newPreviewCmd() *cobra.Command {
	var (
		valuesPath string
		submitted  bool
	)
	cmd := &cobra.Command{
		Use:   "preview <form>",
		Short: "Render the decorated fields of a form",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			form, err := a.form(args[0])
			if err != nil {
				return err
			}
			values, err := readValues(cmd.InOrStdin(), valuesPath)
			if err != nil {
				return err
			}
			return a.session(form, values, func(l *loop.Loop, s *definition.Session) error {
				if submitted {
					if _, _, err := submit(cmd.Context(), l, s); err != nil {
						return err
					}
				}
				var parts []string
				if form.Title != "" {
					parts = append(parts, lipgloss.NewStyle().Bold(true).Render(form.Title))
				}
				l.Do(func() {
					for _, e := range s.Visible() {
						parts = append(parts, e.View.Render())
					}
				})
				_, err := fmt.Fprintln(cmd.OutOrStdout(), lipgloss.JoinVertical(lipgloss.Left, parts...))
				return err
			})
		}),
	}
	cmd.Flags().StringVar(&valuesPath, "values", "", "YAML file with values to show")
	cmd.Flags().BoolVar(&submitted, "submitted", false, "render as after a submit, with errors visible")
	return cmd
}

// submit marks the form submitted and waits for validation to settle.
func submit(ctx context.Context, l *loop.Loop, s *definition.Session) (validation.ErrorMap, map[string]any, error) {
	l.Do(s.Submit)
	waitCtx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	if err := definition.Settle(waitCtx, l, s.Root()); err != nil {
		return nil, nil, fmt.Errorf("validation did not settle: %w", err)
	}
	var (
		errs   validation.ErrorMap
		values map[string]any
	)
	l.Do(func() {
		errs = s.Errors()
		values = s.Values()
	})
	return errs, values, nil
}

func readValues(stdin io.Reader, path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		defer f.Close()
		r = f
	}
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("values: decode %s: %w", path, err)
	}
	return values, nil
}

func writeYAML(w io.Writer, values map[string]any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(values); err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	return enc.Close()
}

func writeErrors(w io.Writer, form *definition.Form, errs validation.ErrorMap) {
	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		label := path
		if f, ok := form.Field(path); ok {
			label = f.Label
		}
		for _, msg := range errs[path] {
			fmt.Fprintf(w, "%s: %s\n", label, msg)
		}
	}
}
