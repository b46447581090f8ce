// Package definition loads declarative form definitions and assembles them
// into live sessions: one control, widget, presenter and decorator per field,
// validated by a rule suite through the orchestrator.
package definition

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formfields/pkg/option"
	"github.com/goliatone/go-formfields/pkg/rules"
	"github.com/goliatone/go-formfields/pkg/rules/expr"
	"github.com/goliatone/go-formfields/pkg/widgets"
)

// Option is a selectable choice declared in a definition.
type Option struct {
	Value    string `yaml:"value"`
	Label    string `yaml:"label"`
	Disabled bool   `yaml:"disabled"`
}

// Field declares a single form field.
type Field struct {
	Name        string            `yaml:"name"`
	Label       string            `yaml:"label"`
	Type        string            `yaml:"type"`
	Format      string            `yaml:"format"`
	Widget      string            `yaml:"widget"`
	Hint        string            `yaml:"hint"`
	Placeholder string            `yaml:"placeholder"`
	Prefix      string            `yaml:"prefix"`
	Suffix      string            `yaml:"suffix"`
	Required    bool              `yaml:"required"`
	Default     any               `yaml:"default"`
	Options     []Option          `yaml:"options"`
	EmptyOption string            `yaml:"emptyOption"`
	Min         float64           `yaml:"min"`
	Max         float64           `yaml:"max"`
	Step        float64           `yaml:"step"`
	DateFormat  string            `yaml:"dateFormat"`
	VisibleWhen string            `yaml:"visibleWhen"`
	Metadata    map[string]string `yaml:"metadata"`

	visible expr.Expression
}

// Form is a complete definition document.
type Form struct {
	ID           string              `yaml:"id"`
	Title        string              `yaml:"title"`
	Fields       []Field             `yaml:"fields"`
	Validation   rules.Set           `yaml:"validation"`
	Dependencies map[string][]string `yaml:"dependencies"`
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips markup from user-facing text. Entities are decoded
// again since the text is rendered to a terminal, not HTML.
func sanitizeText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
}

// normalise trims and sanitises user-facing text, fills defaults and compiles
// visibility expressions. source names the document in errors.
func (f *Form) normalise(source string) error {
	f.ID = strings.TrimSpace(f.ID)
	if f.ID == "" {
		return fmt.Errorf("definition: %s: form id is required", source)
	}
	f.Title = sanitizeText(f.Title)

	seen := make(map[string]struct{}, len(f.Fields))
	evaluator := expr.New()
	for i := range f.Fields {
		field := &f.Fields[i]
		field.Name = strings.TrimSpace(field.Name)
		if field.Name == "" {
			return fmt.Errorf("definition: %s: field %d has no name", source, i)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("definition: %s: duplicate field %q", source, field.Name)
		}
		seen[field.Name] = struct{}{}

		field.Label = sanitizeText(field.Label)
		if field.Label == "" {
			field.Label = field.Name
		}
		field.Hint = sanitizeText(field.Hint)
		field.Placeholder = sanitizeText(field.Placeholder)
		field.EmptyOption = sanitizeText(field.EmptyOption)
		for j := range field.Options {
			opt := &field.Options[j]
			opt.Label = sanitizeText(opt.Label)
			if opt.Value == "" && opt.Label == "" {
				return fmt.Errorf("definition: %s: field %q option %d is empty", source, field.Name, j)
			}
		}

		if rule := strings.TrimSpace(field.VisibleWhen); rule != "" {
			compiled, err := evaluator.Compile(rule)
			if err != nil {
				return fmt.Errorf("definition: %s: field %q visibleWhen: %w", source, field.Name, err)
			}
			field.visible = compiled
		}
	}

	for src, targets := range f.Dependencies {
		for _, target := range append([]string{src}, targets...) {
			if _, ok := seen[target]; !ok {
				return fmt.Errorf("definition: %s: dependency references unknown field %q", source, target)
			}
		}
	}
	return nil
}

// Field returns the named field.
func (f *Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Suite compiles the form's rule suite. Required fields contribute a leading
// required test ahead of the declared rules.
func (f *Form) Suite(opts ...rules.Option) (*rules.Suite, error) {
	declared, err := f.Validation.Tests()
	if err != nil {
		return nil, fmt.Errorf("definition: %s: %w", f.ID, err)
	}
	tests := make([]rules.Test, 0, len(f.Fields)+len(declared))
	for _, field := range f.Fields {
		if !field.Required {
			continue
		}
		tests = append(tests, rules.Test{
			Field:   field.Name,
			Message: field.Label + " is required",
			Check:   rules.Required(field.Name),
		})
	}
	tests = append(tests, declared...)

	if f.Validation.Extras != nil {
		opts = append([]rules.Option{rules.WithExtras(f.Validation.Extras)}, opts...)
	}
	suite, err := rules.New(tests, opts...)
	if err != nil {
		return nil, fmt.Errorf("definition: %s: %w", f.ID, err)
	}
	return suite, nil
}

// Visible evaluates visibleWhen against the form values. Fields without a
// condition, and conditions that fail to evaluate, are visible.
func (f Field) Visible(values map[string]any) bool {
	if f.visible == nil {
		return true
	}
	ok, err := f.visible.Eval(expr.Context{Values: values})
	if err != nil {
		return true
	}
	return ok
}

// Definition converts the field for the widget registry.
func (f Field) Definition() widgets.Definition {
	meta := make(map[string]string, len(f.Metadata)+1)
	for k, v := range f.Metadata {
		meta[k] = v
	}
	if f.DateFormat != "" {
		meta["format"] = f.DateFormat
	}
	opts := make([]option.Option, len(f.Options))
	for i, o := range f.Options {
		opts[i] = option.Option{Value: o.Value, Label: o.Label, Disabled: o.Disabled}
	}
	return widgets.Definition{
		Name:        f.Name,
		Type:        f.Type,
		Format:      f.Format,
		Widget:      f.Widget,
		Placeholder: f.Placeholder,
		Options:     opts,
		EmptyOption: f.EmptyOption,
		Min:         f.Min,
		Max:         f.Max,
		Step:        f.Step,
		Metadata:    meta,
	}
}
