package prompt

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formfields/internal/definition"
	"github.com/goliatone/go-formfields/pkg/loop"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	selectCfgs   []SelectConfig
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	passPos      int
	err          error
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectCfgs = append(s.selectCfgs, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newSession(t *testing.T, id string) *definition.Session {
	t.Helper()
	store, err := definition.LoadFS(os.DirFS("../definition/testdata/forms"), ".")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	form, ok := store.Form(id)
	if !ok {
		t.Fatalf("missing form %s", id)
	}

	l := loop.New()
	t.Cleanup(l.Close)
	var s *definition.Session
	l.Do(func() { s, err = definition.NewSession(l, form, definition.WithDebounce(0)) })
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(func() { l.Do(s.Close) })
	return s
}

func run(t *testing.T, driver Driver, s *definition.Session, opts ...Option) (map[string]any, error) {
	t.Helper()
	r, err := New(driver, append([]Option{WithSettleTimeout(2 * time.Second)}, opts...)...)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return r.Run(context.Background(), s)
}

func TestRunWalksVisibleFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "Ada", "ada@example.com", "555"},
		selectIdx: []int{2},
		confirm:   []bool{true},
	}
	values, err := run(t, driver, newSession(t, "signup"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := map[string]any{
		"name":       "Ada",
		"email":      "ada@example.com",
		"contact":    "phone",
		"phone":      "555",
		"newsletter": true,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	wantInfo := []string{"Create an account", "Full name: Full name is required"}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"None", "Email", "Phone"}, driver.selectCfgs[0].Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if driver.selectCfgs[0].DefaultIndex != 0 {
		t.Fatalf("the empty option must be the default, got %d", driver.selectCfgs[0].DefaultIndex)
	}
}

func TestRunSkipsHiddenFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", ""},
		selectIdx: []int{1},
		confirm:   []bool{false},
	}
	values, err := run(t, driver, newSession(t, "signup"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := values["phone"]; ok {
		t.Fatalf("hidden phone must not be asked nor returned, got %v", values)
	}
	if driver.inputPos != 2 {
		t.Fatalf("expected two text prompts, got %d", driver.inputPos)
	}
}

func TestRunGivesUpAfterAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"", "A"}}
	_, err := run(t, driver, newSession(t, "signup"), WithAttempts(2))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	want := []string{
		"Create an account",
		"Full name: Full name is required",
		"Full name: Name is too short",
	}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestRunPropagatesAbort(t *testing.T) {
	driver := &stubDriver{err: ErrAborted}
	_, err := run(t, driver, newSession(t, "signup"))
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRunTemporalAndSlider(t *testing.T) {
	driver := &stubDriver{inputs: []string{"02012024", "5"}}
	values, err := run(t, driver, newSession(t, "booking"))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	day, ok := values["day"].(time.Time)
	if !ok || day.Format("2006-01-02") != "2024-01-02" {
		t.Fatalf("unexpected day %v", values["day"])
	}
	if values["guests"] != 5.0 {
		t.Fatalf("unexpected guests %v", values["guests"])
	}
}

func TestNewRequiresDriver(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected an error without a driver")
	}
}

func TestNumericValidator(t *testing.T) {
	if numeric("") != nil || numeric(" 4.5 ") != nil {
		t.Fatalf("blank and numeric text must pass")
	}
	if numeric("four") == nil {
		t.Fatalf("text must fail")
	}
}
