package frontmatter

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_MetadataAndBody(t *testing.T) {
	input := "---\ntitle: React Hooks\ncategory: libs\ntags:\n  - react\n  - hooks\ndescription: Hook patterns\nlast_updated: \"2025-01-15\"\n---\n# React Hooks\nBody text.\n"
	meta, body := Decode(input)

	want := Meta{
		Title:       "React Hooks",
		Category:    "libs",
		Tags:        []string{"react", "hooks"},
		Description: "Hook patterns",
		LastUpdated: "2025-01-15",
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("meta mismatch (-want +got):\n%s", diff)
	}
	if body != "# React Hooks\nBody text.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestDecode_NoFrontmatter(t *testing.T) {
	input := "# Just a heading\nSome text.\n"
	meta, body := Decode(input)
	if !meta.IsZero() {
		t.Errorf("expected zero meta, got %+v", meta)
	}
	if body != input {
		t.Errorf("body = %q, want full content", body)
	}
}

func TestDecode_MalformedYAMLFallsBack(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	meta, body := Decode(input)
	// Malformed metadata degrades to "no metadata found".
	if !meta.IsZero() {
		t.Errorf("expected zero meta on invalid YAML, got %+v", meta)
	}
	if body != input {
		t.Errorf("body = %q, want full content", body)
	}
}

func TestDecode_MissingClosingDelimiter(t *testing.T) {
	input := "---\ntitle: Dangling\n"
	meta, body := Decode(input)
	if !meta.IsZero() {
		t.Errorf("expected zero meta, got %+v", meta)
	}
	if body != input {
		t.Errorf("body = %q", body)
	}
}

func TestEncode_FillsLastUpdated(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	out := Encode(Meta{Title: "Docker", Category: "tools"}, now)

	if !strings.HasPrefix(out, "---\n") || !strings.HasSuffix(out, "---\n") {
		t.Fatalf("not delimiter-wrapped: %q", out)
	}
	if !strings.Contains(out, "last_updated: \"2025-03-14\"") &&
		!strings.Contains(out, "last_updated: 2025-03-14") {
		t.Errorf("last_updated not filled: %q", out)
	}
}

func TestEncode_PreservesExistingLastUpdated(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	out := Encode(Meta{Title: "Docker", LastUpdated: "2024-01-01"}, now)
	if !strings.Contains(out, "2024-01-01") {
		t.Errorf("existing last_updated overwritten: %q", out)
	}
	if strings.Contains(out, "2025-03-14") {
		t.Errorf("unexpected new date: %q", out)
	}
}

func TestRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	in := Meta{
		Title:       "Weekly Notes",
		Category:    "meetings",
		Tags:        []string{"weekly", "team"},
		Description: "Standup notes",
	}
	body := "# Weekly Notes\n\nContent.\n"

	meta, gotBody := Decode(Encode(in, now) + body)

	want := in
	want.LastUpdated = "2025-06-01"
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Errorf("round-trip meta mismatch (-want +got):\n%s", diff)
	}
	if gotBody != body {
		t.Errorf("round-trip body = %q, want %q", gotBody, body)
	}
}

func TestDecodeRaw_KeepsUnknownKeys(t *testing.T) {
	input := "---\ntitle: X\nauthor: someone\n---\nbody\n"
	raw, _ := DecodeRaw(input)
	if raw["author"] != "someone" {
		t.Errorf("raw = %v, want author preserved", raw)
	}
}
