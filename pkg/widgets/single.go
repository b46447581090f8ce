package widgets

import "github.com/goliatone/go-formfields/pkg/option"

// single is single-value selection storage. With an empty option label set,
// the "" option stands for no selection.
type single struct {
	value *string
	empty string
}

func (s *single) selection() []string {
	if s.value == nil {
		if s.empty != "" {
			return []string{""}
		}
		return nil
	}
	return []string{*s.value}
}

func (s *single) get() any {
	if s.value == nil {
		return nil
	}
	return *s.value
}

func (s *single) set(value string) {
	if value == "" && s.empty != "" {
		s.value = nil
		return
	}
	s.value = &value
}

func (s *single) clear() { s.value = nil }

func (s *single) write(value any) {
	v, ok := asString(value)
	if !ok {
		s.value = nil
		return
	}
	s.set(v)
}

// withEmpty prepends the empty option when a label is configured.
func withEmpty(label string, opts []option.Option) []option.Option {
	if label == "" {
		return opts
	}
	out := make([]option.Option, 0, len(opts)+1)
	out = append(out, option.Option{Value: "", Label: label})
	return append(out, opts...)
}
