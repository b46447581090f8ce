package widgets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formfields/pkg/field"
	"github.com/goliatone/go-formfields/pkg/option"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetInput        = "input"
	WidgetTextArea     = "textarea"
	WidgetSelect       = "select"
	WidgetDropdown     = "dropdown"
	WidgetAutocomplete = "autocomplete"
	WidgetDate         = "date"
	WidgetTime         = "time"
	WidgetRadio        = "radio"
	WidgetCheckbox     = "checkbox-group"
	WidgetSlider       = "slider"
	WidgetToggle       = "toggle"
)

// AutocompleteThreshold is the option count above which single choices
// resolve to an autocomplete.
const AutocompleteThreshold = 10

// ErrUnknownWidget is returned when a resolved widget has no constructor.
var ErrUnknownWidget = errors.New("widgets: unknown widget")

// Definition describes a field independently of the widget rendering it.
type Definition struct {
	Name          string
	Type          string
	Format        string
	Widget        string
	Placeholder   string
	Options       []option.Option
	EmptyOption   string
	NoOptionsText string
	Min           float64
	Max           float64
	Step          float64
	Metadata      map[string]string
}

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(def Definition) bool

// Constructor builds a widget for a definition.
type Constructor func(host *field.Host, def Definition) (field.Field, error)

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for field definitions based on explicit hints or
// registered matchers, and builds them. Higher priority wins; ties fall back
// to registration order.
type Registry struct {
	mu           sync.RWMutex
	rules        []rule
	constructors map[string]Constructor
}

// NewRegistry constructs a registry with the built-in widgets registered.
func NewRegistry() *Registry {
	reg := &Registry{constructors: make(map[string]Constructor)}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. The
// latest registration of a name wins during resolution.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// RegisterConstructor installs or replaces the constructor for name.
func (r *Registry) RegisterConstructor(name string, ctor Constructor) {
	if r == nil || ctor == nil || strings.TrimSpace(name) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[strings.TrimSpace(name)] = ctor
}

// Resolve returns the widget name for a definition. An explicit Widget (or
// the "widget" metadata entry) is honoured before matcher evaluation.
func (r *Registry) Resolve(def Definition) (string, bool) {
	if explicit := explicitWidget(def); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(def) {
			return entry.name, true
		}
	}
	return "", false
}

// Build resolves and constructs the widget for def.
func (r *Registry) Build(host *field.Host, def Definition) (field.Field, error) {
	name, ok := r.Resolve(def)
	if !ok {
		return nil, fmt.Errorf("%w for field %q", ErrUnknownWidget, def.Name)
	}
	r.mu.RLock()
	ctor := r.constructors[name]
	r.mu.RUnlock()
	if ctor == nil {
		return nil, fmt.Errorf("%w %q for field %q", ErrUnknownWidget, name, def.Name)
	}
	w, err := ctor(host, def)
	if err != nil {
		return nil, fmt.Errorf("widgets: build %s %q: %w", name, def.Name, err)
	}
	return w, nil
}

func explicitWidget(def Definition) string {
	if widget := strings.TrimSpace(def.Widget); widget != "" {
		return widget
	}
	if def.Metadata != nil {
		return strings.TrimSpace(def.Metadata["widget"])
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetToggle, 90, func(def Definition) bool {
		return def.Type == "boolean"
	})
	r.Register(WidgetCheckbox, 85, func(def Definition) bool {
		return def.Type == "array" && len(def.Options) > 0
	})
	r.Register(WidgetAutocomplete, 80, func(def Definition) bool {
		return len(def.Options) > AutocompleteThreshold
	})
	r.Register(WidgetDropdown, 70, func(def Definition) bool {
		return len(def.Options) > 0
	})
	r.Register(WidgetDate, 65, func(def Definition) bool {
		return def.Type == "date" || strings.EqualFold(def.Format, "date")
	})
	r.Register(WidgetTime, 64, func(def Definition) bool {
		return def.Type == "time" || strings.EqualFold(def.Format, "time")
	})
	r.Register(WidgetSlider, 60, func(def Definition) bool {
		return (def.Type == "number" || def.Type == "integer") && def.Max > def.Min
	})
	r.Register(WidgetTextArea, 50, func(def Definition) bool {
		format := strings.ToLower(strings.TrimSpace(def.Format))
		return format == "textarea" || format == "multiline"
	})
	r.Register(WidgetInput, 0, func(Definition) bool { return true })

	r.constructors[WidgetInput] = func(host *field.Host, def Definition) (field.Field, error) {
		typ := InputText
		switch {
		case def.Type == "number" || def.Type == "integer":
			typ = InputNumber
		case strings.EqualFold(def.Format, "email"):
			typ = InputEmail
		case strings.EqualFold(def.Format, "password"):
			typ = InputPassword
		}
		return NewInput(host, InputConfig{ID: def.Name, Type: typ, Placeholder: def.Placeholder}), nil
	}
	r.constructors[WidgetTextArea] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewTextArea(host, InputConfig{ID: def.Name, Placeholder: def.Placeholder}), nil
	}
	r.constructors[WidgetSelect] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewSelect(host, selectConfig(def)), nil
	}
	r.constructors[WidgetDropdown] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewDropdown(host, selectConfig(def)), nil
	}
	r.constructors[WidgetAutocomplete] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewAutocomplete(host, AutocompleteConfig{
			ID:            def.Name,
			Options:       def.Options,
			Placeholder:   def.Placeholder,
			NoOptionsText: def.NoOptionsText,
		}), nil
	}
	r.constructors[WidgetDate] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewDateField(host, TemporalConfig{ID: def.Name, Format: temporalFormat(def)})
	}
	r.constructors[WidgetTime] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewTimeField(host, TemporalConfig{ID: def.Name, Format: temporalFormat(def)})
	}
	r.constructors[WidgetRadio] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewRadioGroup(host, ChoiceConfig{ID: def.Name, Options: def.Options}), nil
	}
	r.constructors[WidgetCheckbox] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewCheckboxGroup(host, ChoiceConfig{ID: def.Name, Options: def.Options}), nil
	}
	r.constructors[WidgetSlider] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewSlider(host, SliderConfig{ID: def.Name, Min: def.Min, Max: def.Max, Step: def.Step}), nil
	}
	r.constructors[WidgetToggle] = func(host *field.Host, def Definition) (field.Field, error) {
		return NewToggle(host, def.Name), nil
	}
}

func selectConfig(def Definition) SelectConfig {
	return SelectConfig{
		ID:          def.Name,
		Options:     def.Options,
		EmptyOption: def.EmptyOption,
		Placeholder: def.Placeholder,
	}
}

// temporalFormat reads the token format from the "format" metadata entry;
// Format itself only selects the widget.
func temporalFormat(def Definition) string {
	if def.Metadata != nil {
		return def.Metadata["format"]
	}
	return ""
}
