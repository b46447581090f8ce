package validation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/loop"
)

type suiteCall struct {
	field string
	model map[string]any
}

type recordingSuite struct {
	mu     sync.Mutex
	calls  []suiteCall
	notify chan suiteCall
	rules  func(model map[string]any, field string) Messages
}

func newRecordingSuite(rules func(model map[string]any, field string) Messages) *recordingSuite {
	return &recordingSuite{notify: make(chan suiteCall, 32), rules: rules}
}

func (s *recordingSuite) Run(_ context.Context, model map[string]any, field string) (Result, error) {
	call := suiteCall{field: field, model: model}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	s.notify <- call
	if s.rules == nil {
		return Messages{}, nil
	}
	return s.rules(model, field), nil
}

func (s *recordingSuite) Calls() []suiteCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]suiteCall(nil), s.calls...)
}

func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for value")
	}
	var zero T
	return zero
}

func newLoop(t *testing.T) *loop.Loop {
	t.Helper()
	l := loop.New()
	t.Cleanup(l.Close)
	return l
}

func TestDebounceCoalescesBurstsPerPath(t *testing.T) {
	l := newLoop(t)
	suite := newRecordingSuite(nil)

	var results []<-chan forms.Errors
	l.Do(func() {
		root := forms.NewGroup(
			forms.Key("firstName", forms.NewControl("")),
			forms.Key("lastName", forms.NewControl("")),
		)
		o := New(l, root, WithSuite(suite))
		first := o.CreateAsyncValidator("firstName", Options{Debounce: 100 * time.Millisecond})
		last := o.CreateAsyncValidator("lastName", Options{Debounce: 100 * time.Millisecond})
		for _, v := range []string{"a", "ab", "abc"} {
			results = append(results, first(v))
		}
		results = append(results, last("L"), last("Lo"))
	})

	for _, ch := range results {
		if errs := await(t, ch); errs != nil {
			t.Fatalf("expected valid result, got %v", errs)
		}
	}
	time.Sleep(20 * time.Millisecond)

	calls := suite.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected one suite call per path, got %d", len(calls))
	}
	byField := map[string]map[string]any{}
	for _, c := range calls {
		byField[c.field] = c.model
	}
	if got := byField["firstName"]["firstName"]; got != "abc" {
		t.Fatalf("firstName run must use the last write, got %v", got)
	}
	if got := byField["firstName"]["lastName"]; got != "" {
		t.Fatalf("firstName run must not see lastName writes, got %v", got)
	}
	if got := byField["lastName"]["lastName"]; got != "Lo" {
		t.Fatalf("lastName run must use the last write, got %v", got)
	}
}

func TestValidatorWithoutSuiteResolvesValid(t *testing.T) {
	l := newLoop(t)
	var ch <-chan forms.Errors
	l.Do(func() {
		o := New(l, forms.NewGroup(forms.Key("a", forms.NewControl(""))))
		ch = o.CreateAsyncValidator("a", Options{})("x")
	})
	errs, ok := <-ch
	if !ok || errs != nil {
		t.Fatalf("expected an immediate valid result, got %v (open=%v)", errs, ok)
	}
}

func TestValidatorNestsValueIntoSnapshot(t *testing.T) {
	l := newLoop(t)
	suite := newRecordingSuite(func(model map[string]any, field string) Messages {
		return Messages{field: {"bad " + field}}
	})
	var ch <-chan forms.Errors
	l.Do(func() {
		root := forms.NewGroup(forms.Key("name", forms.NewControl("Ada")))
		o := New(l, root, WithSuite(suite))
		ch = o.CreateAsyncValidator("address.city", Options{})("Turin")
	})

	errs := await(t, ch)
	want := forms.Errors{"error": "bad address.city", "errors": []string{"bad address.city"}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	call := await(t, suite.notify)
	wantModel := map[string]any{"name": "Ada", "address": map[string]any{"city": "Turin"}}
	if diff := cmp.Diff(wantModel, call.model); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestPasswordsMismatchSurfacesOnGroup(t *testing.T) {
	l := newLoop(t)
	suite := newRecordingSuite(func(model map[string]any, field string) Messages {
		out := Messages{}
		if field != "passwords" && field != "" {
			return out
		}
		pw, _ := forms.GetPath(model, "passwords.password")
		confirm, _ := forms.GetPath(model, "passwords.confirmPassword")
		if pw != confirm {
			out["passwords"] = []string{"Passwords do not match"}
		}
		return out
	})

	valid := make(chan bool, 8)
	var (
		o                 *Orchestrator
		password, confirm *forms.Control
	)
	l.Do(func() {
		password = forms.NewControl("")
		confirm = forms.NewControl("")
		passwords := forms.NewGroup(
			forms.Key("password", password),
			forms.Key("confirmPassword", confirm),
		)
		root := forms.NewGroup(forms.Key("passwords", passwords))
		o = New(l, root, WithSuite(suite), WithDebounce(10*time.Millisecond))
		o.BindControl(password)
		o.BindControl(confirm)
		o.BindGroup(passwords)
		o.ValidChanges().Subscribe(func(v bool) { valid <- v })

		password.SetValue("abc")
		confirm.SetValue("abd")
	})

	if v := await(t, valid); v {
		t.Fatalf("expected ValidChanges to emit false")
	}

	var errs ErrorMap
	l.Do(func() { errs = o.Errors() })
	want := ErrorMap{"passwords": {"Passwords do not match"}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	l.Do(func() { confirm.SetValue("abc") })
	if v := await(t, valid); !v {
		t.Fatalf("expected ValidChanges to emit true once the passwords match")
	}
}

func TestStreamsFollowRootStatus(t *testing.T) {
	l := newLoop(t)
	suite := newRecordingSuite(func(model map[string]any, field string) Messages {
		if model["email"] == "" {
			return Messages{"email": {"Email is required"}}
		}
		return Messages{}
	})

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	}
	settled := make(chan ErrorMap, 8)
	var email *forms.Control
	l.Do(func() {
		email = forms.NewControl("x")
		root := forms.NewGroup(forms.Key("email", email))
		o := New(l, root, WithSuite(suite))
		o.BindControl(email)
		o.DirtyChanges().Subscribe(func(d bool) {
			if d {
				record("dirty")
			} else {
				record("pristine")
			}
		})
		o.Pending().Subscribe(func(struct{}) { record("pending") })
		o.Idle().Subscribe(func(s forms.Status) { record("idle:" + string(s)) })
		o.ValueChanges().Subscribe(func(v map[string]any) { record("value:" + v["email"].(string)) })
		o.ErrorsChanges().Subscribe(func(e ErrorMap) { settled <- e })

		email.MarkAsDirty()
		email.SetValue("")
	})

	errs := await(t, settled)
	if diff := cmp.Diff(ErrorMap{"email": {"Email is required"}}, errs); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	l.Flush()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"pristine", "dirty", "value:", "pending", "idle:INVALID"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("stream order mismatch (-want +got):\n%s", diff)
	}
}

func TestDependentPathsRevalidateAfterIdle(t *testing.T) {
	l := newLoop(t)
	suite := newRecordingSuite(nil)

	l.Do(func() {
		password := forms.NewControl("")
		confirm := forms.NewControl("")
		root := forms.NewGroup(forms.Key("password", password), forms.Key("confirm", confirm))
		o := New(l, root, WithSuite(suite), WithDependencies(map[string][]string{
			"password": {"confirm"},
		}))
		o.BindControl(password)
		o.BindControl(confirm)
		password.SetValue("secret")
	})

	first := await(t, suite.notify)
	if first.field != "password" {
		t.Fatalf("expected the source path to validate first, got %q", first.field)
	}
	second := await(t, suite.notify)
	if second.field != "confirm" {
		t.Fatalf("expected the dependent path to revalidate, got %q", second.field)
	}
	if second.model["password"] != "secret" {
		t.Fatalf("dependent run must see the settled source value, got %v", second.model["password"])
	}
}

func TestSuiteFailureResolvesValidAndLogs(t *testing.T) {
	l := newLoop(t)
	core, logs := observer.New(zapcore.WarnLevel)
	failing := SuiteFunc(func(context.Context, map[string]any, string) (Result, error) {
		return nil, errors.New("rules unavailable")
	})

	var ch <-chan forms.Errors
	l.Do(func() {
		o := New(l, forms.NewGroup(forms.Key("a", forms.NewControl(""))),
			WithSuite(failing), WithLogger(zap.New(core)))
		ch = o.CreateAsyncValidator("a", Options{})("x")
	})

	if errs := await(t, ch); errs != nil {
		t.Fatalf("suite failures must not block the field, got %v", errs)
	}
	if logs.FilterMessage("validation: suite failed").Len() != 1 {
		t.Fatalf("expected a warning for the failed suite, got %v", logs.All())
	}
}

func TestSuitePanicIsRecovered(t *testing.T) {
	l := newLoop(t)
	panicking := SuiteFunc(func(context.Context, map[string]any, string) (Result, error) {
		panic("boom")
	})
	var ch <-chan forms.Errors
	l.Do(func() {
		o := New(l, forms.NewGroup(forms.Key("a", forms.NewControl(""))), WithSuite(panicking))
		ch = o.CreateAsyncValidator("a", Options{})("x")
	})
	if errs := await(t, ch); errs != nil {
		t.Fatalf("expected a valid result after a recovered panic, got %v", errs)
	}
}

func TestSuiteRunsAreTraced(t *testing.T) {
	l := newLoop(t)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	var ch <-chan forms.Errors
	l.Do(func() {
		o := New(l, forms.NewGroup(forms.Key("a", forms.NewControl(""))),
			WithSuite(newRecordingSuite(nil)), WithTracer(provider.Tracer("test")))
		ch = o.CreateAsyncValidator("a", Options{})("x")
	})
	await(t, ch)

	var spans []sdktrace.ReadOnlySpan
	for i := 0; i < 200 && len(spans) == 0; i++ {
		spans = recorder.Ended()
		if len(spans) == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	if len(spans) != 1 || spans[0].Name() != "formfields.validate" {
		t.Fatalf("expected one formfields.validate span, got %d", len(spans))
	}
	found := false
	for _, kv := range spans[0].Attributes() {
		if kv == attribute.String("field.path", "a") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected field.path attribute, got %v", spans[0].Attributes())
	}
}

func TestDestroyAbandonsPendingValidators(t *testing.T) {
	l := newLoop(t)
	suite := newRecordingSuite(nil)

	var (
		o       *Orchestrator
		pending <-chan forms.Errors
	)
	l.Do(func() {
		o = New(l, forms.NewGroup(forms.Key("a", forms.NewControl(""))), WithSuite(suite))
		pending = o.CreateAsyncValidator("a", Options{Debounce: time.Hour})("x")
		o.Destroy()
		o.Destroy()
	})

	if _, ok := <-pending; ok {
		t.Fatalf("expected the pending validator to be abandoned")
	}
	var after <-chan forms.Errors
	l.Do(func() { after = o.CreateAsyncValidator("a", Options{})("y") })
	if _, ok := <-after; ok {
		t.Fatalf("validators created after Destroy must stay pending")
	}
	if len(suite.Calls()) != 0 {
		t.Fatalf("suite must not run after Destroy")
	}
}

func TestSubmitMarksEveryControlTouched(t *testing.T) {
	l := newLoop(t)
	var leaf *forms.Control
	l.Do(func() {
		leaf = forms.NewControl("")
		root := forms.NewGroup(forms.Key("inner", forms.NewGroup(forms.Key("leaf", leaf))))
		o := New(l, root)
		o.Submit()
	})
	var touched bool
	l.Do(func() { touched = leaf.Touched() })
	if !touched {
		t.Fatalf("expected submit to mark nested controls touched")
	}
}

func TestValueChangesPayloadIsDetachedFromTree(t *testing.T) {
	l := newLoop(t)
	var (
		root *forms.Group
		name *forms.Control
	)
	l.Do(func() {
		name = forms.NewControl("Ada")
		root = forms.NewGroup(forms.Key("name", name), forms.Key("address", forms.NewGroup(
			forms.Key("city", forms.NewControl("Paris")),
		)))
		o := New(l, root)
		o.ValueChanges().Subscribe(func(v map[string]any) {
			v["name"] = "mutated"
			v["address"].(map[string]any)["city"] = "mutated"
			v["extra"] = true
		})
		name.SetValue("Grace")
	})

	var value any
	l.Do(func() { value = root.Value() })
	want := map[string]any{"name": "Grace", "address": map[string]any{"city": "Paris"}}
	if diff := cmp.Diff(want, value); diff != "" {
		t.Fatalf("subscribers must not reach the tree value (-want +got):\n%s", diff)
	}
}
