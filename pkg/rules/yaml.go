package rules

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Spec is the YAML form of a Test. Check names a built-in (required,
// minLength, equals, pattern) configured by Arg; otherwise Expr is used.
type Spec struct {
	Field   string `yaml:"field"`
	Message string `yaml:"message"`
	Check   string `yaml:"check"`
	Arg     any    `yaml:"arg"`
	Expr    string `yaml:"expr"`
	When    string `yaml:"when"`
}

// Set is a YAML rule document.
//
//	extras:
//	  minAge: 18
//	rules:
//	  - field: name
//	    check: required
//	    message: Name is required
//	  - field: age
//	    expr: age >= $extras.minAge
type Set struct {
	Extras map[string]any `yaml:"extras"`
	Rules  []Spec         `yaml:"rules"`
}

// Tests converts the document into Tests.
func (s Set) Tests() ([]Test, error) {
	out := make([]Test, 0, len(s.Rules))
	for i, spec := range s.Rules {
		t := Test{Field: spec.Field, Message: spec.Message, Expr: spec.Expr, When: spec.When}
		if spec.Field == "" {
			return nil, fmt.Errorf("rules: rule %d: field is required", i)
		}
		if spec.Check != "" {
			check, err := builtin(spec)
			if err != nil {
				return nil, fmt.Errorf("rules: rule %d (%s): %w", i, spec.Field, err)
			}
			t.Check = check
		}
		out = append(out, t)
	}
	return out, nil
}

// Suite compiles the document.
func (s Set) Suite(opts ...Option) (*Suite, error) {
	tests, err := s.Tests()
	if err != nil {
		return nil, err
	}
	if len(s.Extras) > 0 {
		opts = append([]Option{WithExtras(s.Extras)}, opts...)
	}
	return New(tests, opts...)
}

// LoadYAML decodes a rule document from r and compiles it.
func LoadYAML(r io.Reader, opts ...Option) (*Suite, error) {
	var set Set
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil, opts...)
		}
		return nil, fmt.Errorf("rules: decode yaml: %w", err)
	}
	return set.Suite(opts...)
}

func builtin(spec Spec) (Check, error) {
	switch spec.Check {
	case "required":
		return Required(spec.Field), nil
	case "minLength", "min_length":
		n, ok := spec.Arg.(int)
		if !ok || n < 0 {
			return nil, fmt.Errorf("minLength needs a non-negative integer arg, got %v", spec.Arg)
		}
		return MinLength(spec.Field, n), nil
	case "equals":
		other, ok := spec.Arg.(string)
		if !ok || other == "" {
			return nil, fmt.Errorf("equals needs a field path arg, got %v", spec.Arg)
		}
		return Equals(spec.Field, other), nil
	case "pattern":
		raw, ok := spec.Arg.(string)
		if !ok {
			return nil, fmt.Errorf("pattern needs a regular expression arg, got %v", spec.Arg)
		}
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		return Pattern(spec.Field, re), nil
	}
	return nil, fmt.Errorf("unknown check %q", spec.Check)
}
