package shape

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ShapeError lists every path where a form value left its frame.
type ShapeError struct {
	Mismatches []string
}

func (e *ShapeError) Error() string {
	return "shape: form value does not match its frame:\n" + strings.Join(e.Mismatches, "\n")
}

// Validate reports a *ShapeError when value does not fit frame. Outside
// development builds it returns nil without inspecting anything.
func Validate(value, frame map[string]any) error {
	if !DevMode {
		return nil
	}
	return Check(value, frame)
}

// Check is Validate without the development-build gate.
func Check(value, frame map[string]any) error {
	if mismatches := Diff(value, frame); len(mismatches) > 0 {
		return &ShapeError{Mismatches: mismatches}
	}
	return nil
}

// Diff compares value against frame and returns one message per mismatch:
// keys missing from the frame, and nested values where the frame holds a
// leaf. Numeric keys are looked up as index 0 since a frame needs a single
// exemplar element per array.
func Diff(value, frame map[string]any) []string {
	var out []string
	diff(value, frame, "", &out)
	sort.Strings(out)
	return out
}

func diff(value, frame any, path string, out *[]string) {
	for _, entry := range entries(value) {
		numeric := isIndex(entry.key)
		lookup := entry.key
		if numeric {
			lookup = "0"
		}
		expected, present := child(frame, lookup)
		p := entry.key
		if path != "" {
			p = path + "." + entry.key
		}

		if isNested(entry.value) {
			if !numeric && !isNested(expected) {
				*out = append(*out, fmt.Sprintf("[group] mismatch: '%s'", p))
			}
			diff(entry.value, expected, p, out)
			continue
		}
		if !present && !numeric {
			*out = append(*out, fmt.Sprintf("[control] mismatch: '%s'", p))
		}
	}
}

type entry struct {
	key   string
	value any
}

func entries(v any) []entry {
	switch typed := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]entry, 0, len(keys))
		for _, k := range keys {
			out = append(out, entry{key: k, value: typed[k]})
		}
		return out
	case []any:
		out := make([]entry, 0, len(typed))
		for i, item := range typed {
			out = append(out, entry{key: strconv.Itoa(i), value: item})
		}
		return out
	}
	return nil
}

func child(frame any, key string) (any, bool) {
	switch typed := frame.(type) {
	case map[string]any:
		v, ok := typed[key]
		return v, ok
	case []any:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(typed) {
			return nil, false
		}
		return typed[idx], true
	}
	return nil, false
}

func isNested(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

func isIndex(key string) bool {
	if key == "" {
		return false
	}
	_, err := strconv.ParseFloat(key, 64)
	return err == nil
}
