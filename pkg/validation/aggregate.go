package validation

import (
	"fmt"

	"github.com/goliatone/go-formfields/pkg/forms"
)

// RootFormKey is the reserved ErrorMap key for form-level errors.
const RootFormKey = "rootForm"

// ErrorMap maps a control path (or RootFormKey) to its messages.
type ErrorMap map[string][]string

// First returns the first message for path.
func (m ErrorMap) First(path string) string {
	if msgs := m[path]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// MergeValuesAndRawValues overlays the raw value of root (disabled controls
// included) onto its live value. Keys only present in raw are adopted,
// nested maps are merged recursively and the live value wins otherwise.
// Maps that need no change are returned as-is.
func MergeValuesAndRawValues(root forms.AbstractControl) map[string]any {
	live, _ := root.Value().(map[string]any)
	raw, _ := root.RawValue().(map[string]any)
	merged, _ := mergeMaps(live, raw)
	if merged == nil {
		merged = map[string]any{}
	}
	return merged
}

func mergeMaps(live, raw map[string]any) (map[string]any, bool) {
	var out map[string]any
	set := func(key string, value any) {
		if out == nil {
			out = make(map[string]any, len(live)+1)
			for k, v := range live {
				out[k] = v
			}
		}
		out[key] = value
	}
	for key, rv := range raw {
		lv, ok := live[key]
		if !ok {
			set(key, rv)
			continue
		}
		lm, liveMap := lv.(map[string]any)
		rm, rawMap := rv.(map[string]any)
		if !liveMap || !rawMap {
			continue
		}
		if merged, changed := mergeMaps(lm, rm); changed {
			set(key, merged)
		}
	}
	if out == nil {
		return live, false
	}
	return out, true
}

// AllFormErrors walks the tree depth first and collects errors of enabled
// controls by path. Group and array errors are recorded under the group path
// using the last error key in sorted order. A RootFormKey entry on the root is
// reported under RootFormKey. Disabled subtrees are skipped.
func AllFormErrors(root forms.AbstractControl) ErrorMap {
	out := ErrorMap{}
	if root == nil {
		return out
	}
	collectErrors(root, "", out)
	if root.Enabled() {
		if v, ok := root.Errors()[RootFormKey]; ok {
			if msgs := messages(v); len(msgs) > 0 {
				out[RootFormKey] = msgs
			}
		}
	}
	return out
}

func collectErrors(c forms.AbstractControl, path string, out ErrorMap) {
	if c.Disabled() {
		return
	}
	if forms.IsContainer(c) {
		if errs := c.Errors(); path != "" && len(errs) > 0 {
			keys := errs.Keys()
			last := keys[len(keys)-1]
			if msgs := messages(errs[last]); len(msgs) > 0 {
				out[path] = msgs
			} else {
				out[path] = []string{last}
			}
		}
		for _, entry := range forms.Children(c) {
			childPath := entry.Key
			if path != "" {
				childPath = path + "." + entry.Key
			}
			collectErrors(entry.Control, childPath, out)
		}
		return
	}
	if errs := c.Errors(); len(errs) > 0 {
		out[path] = MessagesOf(errs)
	}
}

// MessagesOf flattens a control's errors into display messages. The
// orchestrator's "errors" list wins; otherwise each key contributes its string
// value or, failing that, the key itself.
func MessagesOf(errs forms.Errors) []string {
	if msgs := messages(errs["errors"]); len(msgs) > 0 {
		return msgs
	}
	out := make([]string, 0, len(errs))
	for _, key := range errs.Keys() {
		if s, ok := errs[key].(string); ok && s != "" {
			out = append(out, s)
			continue
		}
		out = append(out, key)
	}
	return out
}

func messages(v any) []string {
	switch typed := v.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), typed...)
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case bool:
		return nil
	default:
		return []string{fmt.Sprint(typed)}
	}
}
