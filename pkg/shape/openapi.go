package shape

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// maxDepth bounds recursion through self-referencing schemas.
const maxDepth = 16

// FrameFromOpenAPI loads an OpenAPI document and builds the frame of the
// named component schema.
func FrameFromOpenAPI(ctx context.Context, raw []byte, component string) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, errors.New("shape: openapi document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("shape: load document: %w", err)
	}
	if doc.Components == nil {
		return nil, fmt.Errorf("shape: component %q not found", component)
	}
	ref, ok := doc.Components.Schemas[component]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("shape: component %q not found", component)
	}
	frame, ok := FrameFromSchema(ref.Value).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("shape: component %q is not an object schema", component)
	}
	return frame, nil
}

// FrameFromSchema builds an exemplar value for s: objects become maps of
// their properties, arrays a single exemplar item and scalars their zero
// value.
func FrameFromSchema(s *openapi3.Schema) any {
	return frameOf(s, 0)
}

func frameOf(s *openapi3.Schema, depth int) any {
	if s == nil || depth > maxDepth {
		return nil
	}
	props := collectProperties(s)
	switch {
	case len(props) > 0 || s.Type.Is(openapi3.TypeObject):
		out := make(map[string]any, len(props))
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out[name] = frameOf(props[name], depth+1)
		}
		return out
	case s.Type.Is(openapi3.TypeArray):
		if s.Items == nil {
			return []any{}
		}
		return []any{frameOf(s.Items.Value, depth+1)}
	case s.Type.Is(openapi3.TypeString):
		return ""
	case s.Type.Is(openapi3.TypeInteger), s.Type.Is(openapi3.TypeNumber):
		return 0
	case s.Type.Is(openapi3.TypeBoolean):
		return false
	}
	return nil
}

func collectProperties(s *openapi3.Schema) map[string]*openapi3.Schema {
	out := make(map[string]*openapi3.Schema)
	for name, ref := range s.Properties {
		if ref != nil && ref.Value != nil {
			out[name] = ref.Value
		}
	}
	for _, ref := range s.AllOf {
		if ref == nil || ref.Value == nil {
			continue
		}
		for name, prop := range collectProperties(ref.Value) {
			if _, exists := out[name]; !exists {
				out[name] = prop
			}
		}
	}
	return out
}
