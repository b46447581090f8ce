package definition

import (
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/goliatone/go-formfields/pkg/decorator"
	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/presenter"
	"github.com/goliatone/go-formfields/pkg/stream"
	"github.com/goliatone/go-formfields/pkg/validation"
	"github.com/goliatone/go-formfields/pkg/widgets"
)

// ErrNotAccessor signals a widget that cannot be bound to a control.
var ErrNotAccessor = errors.New("definition: widget does not implement forms.Accessor")

// Entry is one assembled field.
type Entry struct {
	Field   Field
	Widget  field.Field
	Control *forms.Control
	Errors  *presenter.Presenter
	View    *decorator.Decorator

	hidden bool
	unbind func()
}

// Hidden reports whether the entry's visibility condition currently fails.
func (e *Entry) Hidden() bool { return e.hidden }

// SessionOption configures NewSession.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	registry *widgets.Registry
	logger   *zap.Logger
	tracer   trace.Tracer
	debounce *time.Duration
	values   map[string]any
	width    int
	styles   *decorator.Styles
}

// WithRegistry replaces the default widget registry.
func WithRegistry(r *widgets.Registry) SessionOption {
	return func(c *sessionConfig) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithLogger sets the logger shared by widgets and validation.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(c *sessionConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracer sets the validation tracer.
func WithTracer(tracer trace.Tracer) SessionOption {
	return func(c *sessionConfig) {
		c.tracer = tracer
	}
}

// WithDebounce overrides the validation debounce window.
func WithDebounce(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.debounce = &d
	}
}

// WithValues prefills fields, taking precedence over declared defaults.
func WithValues(values map[string]any) SessionOption {
	return func(c *sessionConfig) {
		c.values = values
	}
}

// WithWidth sets the rendered width of every decorator.
func WithWidth(width int) SessionOption {
	return func(c *sessionConfig) {
		c.width = width
	}
}

// WithStyles sets the decorator styles.
func WithStyles(styles decorator.Styles) SessionOption {
	return func(c *sessionConfig) {
		c.styles = &styles
	}
}

// Session is a live form assembled from a definition. It is loop-affine:
// NewSession and every method must run on the session loop.
type Session struct {
	form         *Form
	loop         *loop.Loop
	host         *field.Host
	root         *forms.Group
	orchestrator *validation.Orchestrator
	entries      []*Entry
	byName       map[string]*Entry
	logger       *zap.Logger

	refreshing bool
	closed     bool
	bag        stream.Bag
}

// NewSession builds widgets, controls, presenters and decorators for form
// and binds them to a validation orchestrator running form's rule suite.
func NewSession(l *loop.Loop, form *Form, opts ...SessionOption) (*Session, error) {
	if form == nil {
		return nil, errors.New("definition: form is nil")
	}
	cfg := sessionConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = widgets.NewRegistry()
	}
	logger := cfg.logger.With(zap.String("form", form.ID))

	suite, err := form.Suite()
	if err != nil {
		return nil, err
	}

	s := &Session{
		form:   form,
		loop:   l,
		host:   field.NewHost(l, field.WithLogger(logger)),
		byName: make(map[string]*Entry, len(form.Fields)),
		logger: logger,
	}

	keyed := make([]forms.Entry, 0, len(form.Fields))
	for _, def := range form.Fields {
		widget, err := cfg.registry.Build(s.host, def.Definition())
		if err != nil {
			s.destroyWidgets()
			return nil, fmt.Errorf("definition: %s: %w", form.ID, err)
		}
		initial := def.Default
		if v, ok := cfg.values[def.Name]; ok {
			initial = v
		}
		entry := &Entry{Field: def, Widget: widget, Control: forms.NewControl(initial)}
		s.entries = append(s.entries, entry)
		s.byName[def.Name] = entry
		keyed = append(keyed, forms.Key(def.Name, entry.Control))
	}
	s.root = forms.NewGroup(keyed...)

	orchestratorOpts := []validation.Option{
		validation.WithSuite(suite),
		validation.WithLogger(logger),
		validation.WithDependencies(form.Dependencies),
	}
	if cfg.tracer != nil {
		orchestratorOpts = append(orchestratorOpts, validation.WithTracer(cfg.tracer))
	}
	if cfg.debounce != nil {
		orchestratorOpts = append(orchestratorOpts, validation.WithDebounce(*cfg.debounce))
	}
	s.orchestrator = validation.New(l, s.root, orchestratorOpts...)

	var decoratorOpts []decorator.Option
	if cfg.width > 0 {
		decoratorOpts = append(decoratorOpts, decorator.WithWidth(cfg.width))
	}
	if cfg.styles != nil {
		decoratorOpts = append(decoratorOpts, decorator.WithStyles(*cfg.styles))
	}

	for _, entry := range s.entries {
		accessor, ok := entry.Widget.(forms.Accessor)
		if !ok {
			s.Close()
			return nil, fmt.Errorf("definition: field %q: %w", entry.Field.Name, ErrNotAccessor)
		}
		s.orchestrator.BindControl(entry.Control)
		entry.unbind = forms.Bind(entry.Control, accessor)
		entry.Errors = presenter.New(entry.Control)
		chrome := decorator.Chrome{
			Label:    entry.Field.Label,
			Hint:     entry.Field.Hint,
			Prefix:   entry.Field.Prefix,
			Suffix:   entry.Field.Suffix,
			Required: entry.Field.Required,
		}
		entry.View = decorator.New(entry.Widget, chrome,
			append([]decorator.Option{decorator.WithErrors(entry.Errors)}, decoratorOpts...)...)
	}

	for _, entry := range s.entries {
		entry.Control.UpdateValueAndValidity(forms.UpdateOptions{OnlySelf: true})
	}
	s.root.UpdateValueAndValidity(forms.UpdateOptions{})

	s.bag.Add(s.orchestrator.ValueChanges().Subscribe(s.refreshVisibility))
	s.refreshVisibility(s.orchestrator.Value())

	logger.Debug("definition: session ready", zap.Int("fields", len(s.entries)))
	return s, nil
}

// refreshVisibility disables the controls of hidden fields so their values
// drop out of the form value and skip validation, and re-enables them once
// their condition holds again. values includes disabled fields.
func (s *Session) refreshVisibility(values map[string]any) {
	if s.refreshing || s.closed {
		return
	}
	s.refreshing = true
	defer func() { s.refreshing = false }()

	for _, entry := range s.entries {
		visible := entry.Field.Visible(values)
		switch {
		case !visible && !entry.hidden:
			entry.hidden = true
			entry.Control.Disable()
			s.logger.Debug("definition: field hidden", zap.String("field", entry.Field.Name))
		case visible && entry.hidden:
			entry.hidden = false
			entry.Control.Enable()
			s.logger.Debug("definition: field shown", zap.String("field", entry.Field.Name))
		}
	}
}

// Form returns the session definition.
func (s *Session) Form() *Form { return s.form }

// Loop returns the session loop.
func (s *Session) Loop() *loop.Loop { return s.loop }

// Host returns the widget host, whose document receives key and pointer
// events.
func (s *Session) Host() *field.Host { return s.host }

// Root returns the form tree.
func (s *Session) Root() *forms.Group { return s.root }

// Orchestrator returns the validation orchestrator.
func (s *Session) Orchestrator() *validation.Orchestrator { return s.orchestrator }

// Entries returns every entry in declaration order.
func (s *Session) Entries() []*Entry { return s.entries }

// Entry returns the named entry.
func (s *Session) Entry(name string) (*Entry, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// Visible returns the entries whose visibility condition holds.
func (s *Session) Visible() []*Entry {
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.hidden {
			out = append(out, e)
		}
	}
	return out
}

// Values returns the value of every enabled field.
func (s *Session) Values() map[string]any {
	v, _ := s.root.Value().(map[string]any)
	return forms.CloneMap(v)
}

// Decode copies the field values into out, matching `form` struct tags.
func (s *Session) Decode(out any) error {
	return forms.Decode(s.Values(), out)
}

// Errors returns the current messages per field path.
func (s *Session) Errors() validation.ErrorMap {
	return s.orchestrator.Errors()
}

// Submit marks every field touched so their errors become visible.
func (s *Session) Submit() {
	s.orchestrator.Submit()
}

// Close releases every binding and widget. It is idempotent.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.bag.Release()
	for _, entry := range s.entries {
		if entry.unbind != nil {
			entry.unbind()
		}
		if entry.View != nil {
			entry.View.Close()
		}
		if entry.Errors != nil {
			entry.Errors.Close()
		}
	}
	s.destroyWidgets()
	if s.orchestrator != nil {
		s.orchestrator.Destroy()
	}
}

func (s *Session) destroyWidgets() {
	for _, entry := range s.entries {
		if d, ok := entry.Widget.(interface{ Destroy() }); ok {
			d.Destroy()
		}
	}
}
