package presenter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formfields/pkg/forms"
	"github.com/goliatone/go-formfields/pkg/validation"
)

// ErrorMapping splits a server error payload into control-level and
// form-level messages keyed by dotted control paths.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// ErrorMap folds the mapping into a validation.ErrorMap, form-level messages
// under validation.RootFormKey.
func (m ErrorMapping) ErrorMap() validation.ErrorMap {
	out := validation.ErrorMap{}
	for path, msgs := range m.Fields {
		out[path] = append([]string(nil), msgs...)
	}
	if len(m.Form) > 0 {
		out[validation.RootFormKey] = append([]string(nil), m.Form...)
	}
	return out
}

// MapErrorPayload normalises a server error payload (dotted paths, bracket
// indices, JSON pointers, schema pointers embedded in messages) onto the
// controls under root. Unknown paths become form-level messages.
func MapErrorPayload(root forms.AbstractControl, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	paths := make(map[string]struct{})
	collectControlPaths(root, "", paths)

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, rawPath := range keys {
		msgs := normalizeMessages(payload[rawPath])
		if len(msgs) == 0 {
			continue
		}
		mapped, formLevel := mapErrorPath(rawPath, paths)
		if formLevel {
			for _, msg := range msgs {
				if path, ok := mapErrorPath(extractJSONPointer(msg), paths); !ok && path != "" {
					mapping.Fields[path] = append(mapping.Fields[path], msg)
					continue
				}
				mapping.Form = append(mapping.Form, msg)
			}
			continue
		}
		mapping.Fields[mapped] = append(mapping.Fields[mapped], msgs...)
	}

	for path, msgs := range mapping.Fields {
		mapping.Fields[path] = normalizeMessages(msgs)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// Apply writes the mapping onto the tree as control errors, in the same shape
// the orchestrator produces, and returns the paths it could not resolve.
// Must run on the tree's loop goroutine.
func Apply(root forms.AbstractControl, mapping ErrorMapping) []string {
	var missing []string
	paths := make([]string, 0, len(mapping.Fields))
	for path := range mapping.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		c, err := forms.Lookup(root, path)
		if err != nil {
			missing = append(missing, path)
			continue
		}
		c.SetErrors(serverErrors(mapping.Fields[path]))
	}
	if len(mapping.Form) > 0 {
		errs := serverErrors(mapping.Form)
		errs[validation.RootFormKey] = mapping.Form
		root.SetErrors(errs)
	}
	return missing
}

func serverErrors(msgs []string) forms.Errors {
	return forms.Errors{"error": msgs[0], "errors": msgs, "server": true}
}

func collectControlPaths(c forms.AbstractControl, prefix string, dest map[string]struct{}) {
	if c == nil || !forms.IsContainer(c) {
		return
	}
	for _, entry := range forms.Children(c) {
		path := joinPath(prefix, entry.Key)
		dest[path] = struct{}{}
		collectControlPaths(entry.Control, path, dest)
	}
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, paths map[string]struct{}) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := parsePathSegments(trimmed)
	if len(segments) == 0 {
		return "", true
	}

	best := ""
	for _, variant := range segmentVariants(segments) {
		path := longestMatchingPath(variant, paths)
		if segmentCount(path) > segmentCount(best) {
			best = path
		}
	}
	if best == "" {
		return "", true
	}
	return best, false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = clean[1:]
	}
	clean = strings.NewReplacer("[", ".", "]", "", "//", "/").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for i := 0; i < len(parts); i++ {
		segment := strings.TrimSpace(parts[i])
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		switch segment {
		case "":
			continue
		case "properties":
			// schema pointers name the property in the next segment
			continue
		case "items":
			if i > 0 && parts[i-1] != "properties" {
				continue
			}
		}
		out = append(out, segment)
	}
	return out
}

func segmentVariants(segments []string) [][]string {
	var variants [][]string
	seen := make(map[string]struct{}, 4)
	add := func(candidate []string) {
		if len(candidate) == 0 {
			return
		}
		key := strings.Join(candidate, ".")
		if _, exists := seen[key]; exists {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, append([]string(nil), candidate...))
	}

	add(segments)
	noWrappers := dropWrapperSegments(segments)
	add(noWrappers)
	add(stripNumericSegments(segments))
	add(stripNumericSegments(noWrappers))
	return variants
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func longestMatchingPath(segments []string, paths map[string]struct{}) string {
	for end := len(segments); end > 0; end-- {
		candidate := strings.Join(segments[:end], ".")
		if _, ok := paths[candidate]; ok {
			return candidate
		}
	}
	return ""
}

// extractJSONPointer pulls a pointer out of validator messages such as
// `value is required at #/properties/email`.
func extractJSONPointer(message string) string {
	if idx := strings.LastIndex(message, " at "); idx >= 0 {
		return trimPointer(message[idx+4:])
	}
	if idx := strings.LastIndex(message, "#/"); idx >= 0 {
		return trimPointer(message[idx:])
	}
	return ""
}

func trimPointer(pointer string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(pointer), ".)];,"))
}

func segmentCount(path string) int {
	if path == "" {
		return 0
	}
	return strings.Count(path, ".") + 1
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors", strings.ToLower(validation.RootFormKey):
		return true
	}
	return false
}
