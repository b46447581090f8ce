package rules

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formfields/pkg/rules/expr"
)

// Required passes when the value at path is present and not blank. Empty
// strings, lists and maps count as blank; false and 0 do not.
func Required(path string) Check {
	return func(model map[string]any) bool {
		value, ok := expr.Lookup(model, path)
		if !ok || value == nil {
			return false
		}
		switch v := value.(type) {
		case string:
			return strings.TrimSpace(v) != ""
		case []any:
			return len(v) > 0
		case []string:
			return len(v) > 0
		case map[string]any:
			return len(v) > 0
		}
		return true
	}
}

// MinLength passes when the string (or list) at path has at least n runes
// (or items). Missing and blank values pass; pair it with Required.
func MinLength(path string, n int) Check {
	return func(model map[string]any) bool {
		value, ok := expr.Lookup(model, path)
		if !ok || value == nil {
			return true
		}
		switch v := value.(type) {
		case string:
			return v == "" || utf8.RuneCountInString(v) >= n
		case []any:
			return len(v) >= n
		case []string:
			return len(v) >= n
		}
		return utf8.RuneCountInString(fmt.Sprint(value)) >= n
	}
}

// Equals passes when the values at path and other are deeply equal.
func Equals(path, other string) Check {
	return func(model map[string]any) bool {
		a, _ := expr.Lookup(model, path)
		b, _ := expr.Lookup(model, other)
		return reflect.DeepEqual(a, b)
	}
}

// Pattern passes when the value at path matches re. Missing and blank values
// pass.
func Pattern(path string, re *regexp.Regexp) Check {
	return func(model map[string]any) bool {
		value, ok := expr.Lookup(model, path)
		if !ok || value == nil {
			return true
		}
		s := fmt.Sprint(value)
		return s == "" || re.MatchString(s)
	}
}
