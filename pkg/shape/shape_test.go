package shape

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDiffReportsUnknownKeys(t *testing.T) {
	frame := map[string]any{
		"firstName": "",
		"passwords": map[string]any{"password": "", "confirm": ""},
		"items":     []any{map[string]any{"sku": ""}},
		"tags":      []any{""},
	}
	value := map[string]any{
		"firstName":  "Ada",
		"firstName2": map[string]any{"x": 1},
		"lastname":   "Lovelace",
		"passwords":  map[string]any{"password": "x", "confrim": "y"},
		"tags":       []any{"a", "b"},
		"items": []any{
			map[string]any{"sku": "A"},
			map[string]any{"sku": "B", "qty": 2},
		},
	}

	got := Diff(value, frame)
	want := []string{
		"[control] mismatch: 'firstName2.x'",
		"[control] mismatch: 'items.1.qty'",
		"[control] mismatch: 'lastname'",
		"[control] mismatch: 'passwords.confrim'",
		"[group] mismatch: 'firstName2'",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatches (-want +got):\n%s", diff)
	}
}

func TestCheckAndValidate(t *testing.T) {
	frame := map[string]any{"a": ""}
	if err := Check(map[string]any{"a": "x"}, frame); err != nil {
		t.Fatalf("expected matching value to pass, got %v", err)
	}

	err := Check(map[string]any{"b": "x"}, frame)
	var shapeErr *ShapeError
	if !errors.As(err, &shapeErr) || len(shapeErr.Mismatches) != 1 {
		t.Fatalf("expected a ShapeError with one mismatch, got %v", err)
	}

	err = Validate(map[string]any{"b": "x"}, frame)
	if DevMode && err == nil {
		t.Fatalf("development builds must report mismatches")
	}
	if !DevMode && err != nil {
		t.Fatalf("production builds must not validate, got %v", err)
	}
}

func TestFrameFromOpenAPI(t *testing.T) {
	const document = `{
  "openapi": "3.0.3",
  "info": {"title": "Accounts", "version": "1.0.0"},
  "paths": {},
  "components": {
    "schemas": {
      "Account": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "age": {"type": "integer"},
          "active": {"type": "boolean"},
          "address": {"$ref": "#/components/schemas/Address"},
          "tags": {"type": "array", "items": {"type": "string"}}
        }
      },
      "Address": {
        "type": "object",
        "properties": {"city": {"type": "string"}}
      }
    }
  }
}`

	frame, err := FrameFromOpenAPI(context.Background(), []byte(document), "Account")
	if err != nil {
		t.Fatalf("FrameFromOpenAPI returned error: %v", err)
	}
	want := map[string]any{
		"name":    "",
		"age":     0,
		"active":  false,
		"address": map[string]any{"city": ""},
		"tags":    []any{""},
	}
	if diff := cmp.Diff(want, frame); diff != "" {
		t.Fatalf("frame mismatch (-want +got):\n%s", diff)
	}

	if _, err := FrameFromOpenAPI(context.Background(), []byte(document), "Missing"); err == nil {
		t.Fatalf("expected an error for a missing component")
	}
}
