package forms

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestSetPathBuildsIntermediateContainers(t *testing.T) {
	root := map[string]any{"name": "Ada"}

	if err := SetPath(root, "passwords.confirm", "abd"); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	if err := SetPath(root, "items.1.sku", "B-2"); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}

	want := map[string]any{
		"name":      "Ada",
		"passwords": map[string]any{"confirm": "abd"},
		"items":     []any{nil, map[string]any{"sku": "B-2"}},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	got, ok := GetPath(root, "items.1.sku")
	if !ok || got != "B-2" {
		t.Fatalf("GetPath = %v, %v", got, ok)
	}
	if _, ok := GetPath(root, "items.4.sku"); ok {
		t.Fatalf("expected out of range lookup to fail")
	}
}

func TestSetPathRejectsNamedSegmentOnList(t *testing.T) {
	root := map[string]any{"items": []any{"a"}}
	if err := SetPath(root, "items.name", "x"); err == nil {
		t.Fatalf("expected an error for a named segment on a list")
	}
	if err := SetPath(nil, "a", 1); err == nil {
		t.Fatalf("expected an error for a nil root")
	}
}

func TestCloneIsDeep(t *testing.T) {
	src := map[string]any{"a": map[string]any{"b": []any{1, 2}}}
	clone := CloneMap(src)
	if err := SetPath(clone, "a.b.0", 9); err != nil {
		t.Fatalf("SetPath returned error: %v", err)
	}
	if got, _ := GetPath(src, "a.b.0"); got != 1 {
		t.Fatalf("source mutated through clone: %v", got)
	}
}

func TestDecode(t *testing.T) {
	type account struct {
		Name    string        `form:"name"`
		Age     int           `form:"age"`
		Timeout time.Duration `form:"timeout"`
		Tags    []string      `form:"tags"`
	}
	var out account
	err := Decode(map[string]any{
		"name":    "Ada",
		"age":     "36",
		"timeout": "2s",
		"tags":    "a,b",
	}, &out)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	want := account{Name: "Ada", Age: 36, Timeout: 2 * time.Second, Tags: []string{"a", "b"}}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
}
