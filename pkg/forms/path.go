package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// GetPath resolves a dotted path into a form value.
func GetPath(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	current := any(root)
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// SetPath writes value at a dotted path, creating intermediate maps and
// slices as needed. Numeric segments address slice entries.
func SetPath(root map[string]any, path string, value any) error {
	if root == nil {
		return fmt.Errorf("forms: root map is nil")
	}
	if path == "" {
		return fmt.Errorf("forms: empty path")
	}
	segments := strings.Split(path, ".")
	_, err := setSegment(root, segments, value, path)
	return err
}

func setSegment(node any, segments []string, value any, path string) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	segment := segments[0]
	rest := segments[1:]

	if idx, err := strconv.Atoi(segment); err == nil {
		if idx < 0 {
			return nil, fmt.Errorf("forms: negative index in path %q", path)
		}
		list, _ := node.([]any)
		if m, ok := node.(map[string]any); ok && m != nil {
			child, err := setSegment(m[segment], rest, value, path)
			if err != nil {
				return nil, err
			}
			m[segment] = child
			return m, nil
		}
		if len(list) <= idx {
			list = append(list, make([]any, idx+1-len(list))...)
		}
		child, err := setSegment(list[idx], rest, value, path)
		if err != nil {
			return nil, err
		}
		list[idx] = child
		return list, nil
	}

	m, ok := node.(map[string]any)
	if !ok || m == nil {
		if node != nil {
			if _, isList := node.([]any); isList {
				return nil, fmt.Errorf("forms: expected numeric segment, got %q in path %q", segment, path)
			}
		}
		m = make(map[string]any)
	}
	child, err := setSegment(m[segment], rest, value, path)
	if err != nil {
		return nil, err
	}
	m[segment] = child
	return m, nil
}

// Clone deep-copies maps and slices of a form value. Leaves are shared.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = Clone(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = Clone(v)
		}
		return clone
	default:
		return typed
	}
}

// CloneMap deep-copies a group value; nil becomes an empty map.
func CloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return make(map[string]any)
	}
	return Clone(src).(map[string]any)
}

// Decode copies a form value into out, matching `form` struct tags and
// converting loosely typed input such as numeric strings.
func Decode(value any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "form",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: out,
	})
	if err != nil {
		return fmt.Errorf("forms: decoder: %w", err)
	}
	if err := dec.Decode(value); err != nil {
		return fmt.Errorf("forms: decode: %w", err)
	}
	return nil
}
