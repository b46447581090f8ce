package validation

import (
	"context"
	"reflect"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/loop"
	"github.com/goliatone/go-formfields/pkg/shape"
	"github.com/goliatone/go-formfields/pkg/stream"
)

const instrumentationName = "github.com/goliatone/go-formfields/pkg/validation"

// Options tunes a single async validator.
type Options struct {
	// Debounce is the quiet window before the suite runs for a path.
	Debounce time.Duration
}

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithSuite binds the rule suite. Without one every validator resolves
// valid.
func WithSuite(s Suite) Option {
	return func(o *Orchestrator) {
		o.suite = s
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer overrides the global otel tracer used for suite spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithMeter overrides the global otel meter used for run counters.
func WithMeter(meter metric.Meter) Option {
	return func(o *Orchestrator) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithDependencies registers cross-field revalidation: when a source path
// changes and the form settles, every dependent path is revalidated.
func WithDependencies(deps map[string][]string) Option {
	return func(o *Orchestrator) {
		for src, targets := range deps {
			o.deps[src] = append(o.deps[src], targets...)
		}
	}
}

// WithShape enables the development shape check against frame.
func WithShape(frame map[string]any) Option {
	return func(o *Orchestrator) {
		o.shape = frame
	}
}

// WithDebounce sets the default window used by BindControl and BindGroup.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

type cacheEntry struct {
	model   *stream.Replay[map[string]any]
	waiters []chan forms.Errors
}

// Orchestrator binds a rule suite to a form tree. It creates debounced,
// path-scoped async validators and publishes form-level streams. Every method,
// Destroy included, must run on the loop goroutine.
type Orchestrator struct {
	loop   *loop.Loop
	root   *forms.Group
	suite  Suite
	logger *zap.Logger
	tracer trace.Tracer
	meter  metric.Meter
	runs   metric.Int64Counter

	deps     map[string][]string
	shape    map[string]any
	debounce time.Duration

	cache     map[string]*cacheEntry
	debouncer *loop.Debouncer[string]
	ctx       context.Context
	cancel    context.CancelFunc

	formValue map[string]any
	status    forms.Status
	lastValid *bool
	depValues map[string]any
	awaiting  map[string]bool
	bag       stream.Bag
	destroyed bool
	pending   *stream.Stream[struct{}]
	idle      *stream.Stream[forms.Status]
	values    *stream.Stream[map[string]any]
	errorsOut *stream.Stream[ErrorMap]
	dirty     *stream.Replay[bool]
	validOut  *stream.Stream[bool]
}

// New binds an orchestrator to root and attaches root to l.
func New(l *loop.Loop, root *forms.Group, opts ...Option) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		loop:      l,
		root:      root,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
		deps:      make(map[string][]string),
		cache:     make(map[string]*cacheEntry),
		ctx:       ctx,
		cancel:    cancel,
		depValues: make(map[string]any),
		awaiting:  make(map[string]bool),
		pending:   stream.New[struct{}](),
		idle:      stream.New[forms.Status](),
		values:    stream.New[map[string]any](),
		errorsOut: stream.New[ErrorMap](),
		dirty:     stream.NewReplay[bool](),
		validOut:  stream.New[bool](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	runs, err := o.meter.Int64Counter("formfields.validation.runs",
		metric.WithDescription("Suite invocations after debounce"))
	if err != nil {
		o.logger.Warn("validation: run counter unavailable", zap.Error(err))
	}
	o.runs = runs
	o.debouncer = loop.NewDebouncer[string](l, o.debounce)

	if root == nil {
		return o
	}
	root.SetLoop(l)
	o.formValue = forms.CloneMap(MergeValuesAndRawValues(root))
	o.status = root.Status()
	for src := range o.deps {
		v, _ := forms.GetPath(o.formValue, src)
		o.depValues[src] = forms.Clone(v)
	}
	o.dirty.Emit(root.Dirty())
	o.bag.Add(root.Events().Subscribe(o.handleEvent))
	return o
}

// Root returns the bound form tree.
func (o *Orchestrator) Root() *forms.Group { return o.root }

// Value returns the last merged form value.
func (o *Orchestrator) Value() map[string]any { return o.formValue }

// Errors aggregates the current errors of the tree.
func (o *Orchestrator) Errors() ErrorMap { return AllFormErrors(o.root) }

// Pending emits when the tree starts validating.
func (o *Orchestrator) Pending() *stream.Stream[struct{}] { return o.pending }

// Idle emits the settled status whenever the tree stops validating or its
// settled status changes.
func (o *Orchestrator) Idle() *stream.Stream[forms.Status] { return o.idle }

// ValueChanges emits a copy of the merged live and raw value after every
// change. Subscribers own the map they receive.
func (o *Orchestrator) ValueChanges() *stream.Stream[map[string]any] { return o.values }

// ErrorsChanges emits the aggregated errors whenever the status settles.
func (o *Orchestrator) ErrorsChanges() *stream.Stream[ErrorMap] { return o.errorsOut }

// DirtyChanges replays the current dirty state and emits every flip.
func (o *Orchestrator) DirtyChanges() *stream.Replay[bool] { return o.dirty }

// ValidChanges emits when the settled status flips between valid and
// invalid.
func (o *Orchestrator) ValidChanges() *stream.Stream[bool] { return o.validOut }

// CreateAsyncValidator returns a validator for path. Each call clones the
// last form value, writes the incoming value at path and buffers the clone;
// after the debounce window the suite runs once with the latest buffered
// model and every waiter receives the outcome.
func (o *Orchestrator) CreateAsyncValidator(path string, opts Options) forms.AsyncValidatorFn {
	return func(value any) <-chan forms.Errors {
		return o.validate(path, value, opts.Debounce)
	}
}

// BindControl attaches a validator to c that resolves its path on every run.
func (o *Orchestrator) BindControl(c *forms.Control, opts ...Options) {
	o.bind(c, func() string { return forms.ControlPath(o.root, c) }, opts)
}

// BindGroup attaches a validator to a nested group or array that resolves its
// path on every run.
func (o *Orchestrator) BindGroup(g forms.AbstractControl, opts ...Options) {
	o.bind(g, func() string { return forms.GroupPath(o.root, g) }, opts)
}

// BindRoot runs the suite for RootFormKey against the whole form and stores
// the messages on the root under RootFormKey.
func (o *Orchestrator) BindRoot(opts ...Options) {
	if o.root == nil {
		return
	}
	window := o.window(opts)
	o.root.AddAsyncValidators(func(any) <-chan forms.Errors {
		out := make(chan forms.Errors, 1)
		in := o.validate(RootFormKey, nil, window)
		go func() {
			errs, ok := <-in
			if !ok {
				close(out)
				return
			}
			if msgs, _ := errs["errors"].([]string); len(msgs) > 0 {
				out <- forms.Errors{RootFormKey: msgs}
			} else {
				out <- nil
			}
			close(out)
		}()
		return out
	})
}

func (o *Orchestrator) bind(c forms.AbstractControl, resolve func() string, opts []Options) {
	window := o.window(opts)
	c.AddAsyncValidators(func(value any) <-chan forms.Errors {
		path := resolve()
		if path == "" {
			return resolved(nil)
		}
		return o.validate(path, value, window)
	})
}

func (o *Orchestrator) window(opts []Options) time.Duration {
	if len(opts) > 0 {
		return opts[0].Debounce
	}
	return o.debounce
}

// Submit marks the whole tree touched through the root Submitted event.
func (o *Orchestrator) Submit() {
	if o.root != nil {
		o.root.Submit()
	}
}

// Destroy cancels in-flight suite runs, abandons pending validators and
// closes every stream. It is idempotent.
func (o *Orchestrator) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	o.cancel()
	o.debouncer.Stop()
	paths := make([]string, 0, len(o.cache))
	for path := range o.cache {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		entry := o.cache[path]
		for _, w := range entry.waiters {
			close(w)
		}
		entry.waiters = nil
		entry.model.Close()
	}
	o.bag.Release()
	o.pending.Close()
	o.idle.Close()
	o.values.Close()
	o.errorsOut.Close()
	o.dirty.Close()
	o.validOut.Close()
}

func (o *Orchestrator) validate(path string, value any, window time.Duration) <-chan forms.Errors {
	if o.destroyed {
		ch := make(chan forms.Errors)
		close(ch)
		return ch
	}
	if o.suite == nil || o.formValue == nil {
		return resolved(nil)
	}

	model := forms.CloneMap(o.formValue)
	if path != RootFormKey {
		if err := forms.SetPath(model, path, forms.Clone(value)); err != nil {
			o.logger.Warn("validation: cannot place value", zap.String("path", path), zap.Error(err))
			return resolved(nil)
		}
	}

	entry := o.entry(path)
	entry.model.Emit(model)
	ch := make(chan forms.Errors, 1)
	entry.waiters = append(entry.waiters, ch)

	o.debouncer.TriggerAfter(path, window, func() { o.run(path) })
	return ch
}

func (o *Orchestrator) entry(path string) *cacheEntry {
	entry, ok := o.cache[path]
	if !ok {
		entry = &cacheEntry{model: stream.NewReplay[map[string]any]()}
		o.cache[path] = entry
	}
	return entry
}

func (o *Orchestrator) run(path string) {
	if o.destroyed {
		return
	}
	entry := o.cache[path]
	model, ok := entry.model.Latest()
	if !ok {
		return
	}
	waiters := entry.waiters
	entry.waiters = nil
	o.logger.Debug("validation: running suite", zap.String("path", path), zap.Int("waiters", len(waiters)))

	ctx := o.ctx
	suite := o.suite
	logger := o.logger
	tracer := o.tracer
	runs := o.runs
	go func() {
		spanCtx, span := tracer.Start(ctx, "formfields.validate", trace.WithAttributes(
			attribute.String("field.path", path),
		))
		defer span.End()
		if runs != nil {
			runs.Add(spanCtx, 1, metric.WithAttributes(attribute.String("field.path", path)))
		}

		res, err := runSuite(spanCtx, suite, model, path)
		if ctx.Err() != nil {
			for _, w := range waiters {
				close(w)
			}
			return
		}

		var errs forms.Errors
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Warn("validation: suite failed", zap.String("path", path), zap.Error(err))
		} else {
			errs = toErrors(res, path)
		}
		for _, w := range waiters {
			w <- errs
			close(w)
		}
	}()
}

func toErrors(res Result, path string) forms.Errors {
	if res == nil {
		return nil
	}
	msgs := res.Errors()[path]
	if len(msgs) == 0 {
		return nil
	}
	return forms.Errors{
		"error":  msgs[0],
		"errors": append([]string(nil), msgs...),
	}
}

func resolved(errs forms.Errors) <-chan forms.Errors {
	ch := make(chan forms.Errors, 1)
	ch <- errs
	close(ch)
	return ch
}

func (o *Orchestrator) handleEvent(ev forms.Event) {
	if o.destroyed {
		return
	}
	switch ev.Kind {
	case forms.ValueChanged, forms.ControlsChanged:
		o.onValue()
	case forms.StatusChanged:
		o.onStatus(ev.Status)
	case forms.PristineChanged:
		o.dirty.Emit(!ev.Pristine)
	case forms.Submitted:
		o.root.MarkAllAsTouched()
	}
}

func (o *Orchestrator) onValue() {
	merged := forms.CloneMap(MergeValuesAndRawValues(o.root))
	o.formValue = merged

	if o.shape != nil {
		if err := shape.Validate(merged, o.shape); err != nil {
			o.logger.Error("validation: form value does not match its shape", zap.Error(err))
			panic(err)
		}
	}

	for src := range o.deps {
		v, _ := forms.GetPath(merged, src)
		if !reflect.DeepEqual(v, o.depValues[src]) {
			o.depValues[src] = forms.Clone(v)
			o.awaiting[src] = true
		}
	}
	o.values.Emit(forms.CloneMap(merged))
}

func (o *Orchestrator) onStatus(status forms.Status) {
	prev := o.status
	o.status = status
	if status == forms.StatusPending {
		if prev != forms.StatusPending {
			o.pending.Emit(struct{}{})
		}
		return
	}

	o.errorsOut.Emit(AllFormErrors(o.root))
	if prev != status {
		o.idle.Emit(status)
	}
	if status == forms.StatusValid || status == forms.StatusInvalid {
		valid := status == forms.StatusValid
		if o.lastValid == nil || *o.lastValid != valid {
			o.lastValid = &valid
			o.validOut.Emit(valid)
		}
	}
	o.revalidateDependents()
}

func (o *Orchestrator) revalidateDependents() {
	if len(o.awaiting) == 0 {
		return
	}
	sources := make([]string, 0, len(o.awaiting))
	for src := range o.awaiting {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	o.awaiting = make(map[string]bool)

	for _, src := range sources {
		for _, target := range o.deps[src] {
			c := o.root.Get(target)
			if c == nil {
				o.logger.Debug("validation: dependent path not found", zap.String("path", target))
				continue
			}
			c.UpdateValueAndValidity(forms.UpdateOptions{OnlySelf: true})
		}
	}
}
