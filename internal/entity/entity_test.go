package entity

import (
	"encoding/json"
	"testing"
)

func fromJSON(t *testing.T, s string) Entity {
	t.Helper()
	var e Entity
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		t.Fatalf("bad test JSON: %v", err)
	}
	return e
}

func TestContractualAccessors(t *testing.T) {
	e := fromJSON(t, `{"id":"i-1","uuid":"u-1","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}`)

	if e.ID() != "i-1" || e.UUID() != "u-1" {
		t.Errorf("identity accessors: id=%q uuid=%q", e.ID(), e.UUID())
	}
	if e.CreatedAt() != "2024-01-01T00:00:00Z" || e.UpdatedAt() != "2024-01-02T00:00:00Z" {
		t.Errorf("timestamp accessors: created=%q updated=%q", e.CreatedAt(), e.UpdatedAt())
	}
}

func TestAccessorsOnMissingOrWrongType(t *testing.T) {
	e := fromJSON(t, `{"id":42}`)

	if e.ID() != "" {
		t.Errorf("non-string id should read as empty, got %q", e.ID())
	}
	if e.UpdatedAt() != "" {
		t.Errorf("missing updated_at should read as empty, got %q", e.UpdatedAt())
	}
	var nilEntity Entity
	if nilEntity.ID() != "" {
		t.Error("nil entity accessors must not panic")
	}
}

func TestCloneIsDeep(t *testing.T) {
	e := fromJSON(t, `{"id":"i-1","tags":["a"],"meta":{"k":"v"}}`)

	c := e.Clone()
	c["tags"].([]any)[0] = "mutated"
	c["meta"].(map[string]any)["k"] = "mutated"

	if e["tags"].([]any)[0] != "a" || e["meta"].(map[string]any)["k"] != "v" {
		t.Errorf("clone shares nested state with original: %v", e)
	}
}

func TestEqual(t *testing.T) {
	a := fromJSON(t, `{"id":"i-1","tags":["a","b"],"n":1}`)
	b := fromJSON(t, `{"n":1,"tags":["a","b"],"id":"i-1"}`)

	if !Equal(a, b) {
		t.Error("key order must not affect equality")
	}
	b["tags"] = []any{"b", "a"}
	if Equal(a, b) {
		t.Error("array element order is significant")
	}
}

func TestCompareTimestamps(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2024-01-01T00:00:00Z", "2024-01-02T00:00:00Z", -1},
		{"2024-01-02T00:00:00Z", "2024-01-01T00:00:00Z", 1},
		{"2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", 0},
		// A set timestamp always beats an unset one.
		{"", "2024-01-01T00:00:00Z", -1},
		{"2024-01-01T00:00:00Z", "", 1},
		{"", "", 0},
		// Same instant in different zones compares equal chronologically.
		{"2024-01-01T12:00:00Z", "2024-01-01T13:00:00+01:00", 0},
		// Naive timestamps (no zone) still parse.
		{"2024-01-01T00:00:00", "2024-01-02T00:00:00", -1},
		// Unparseable strings fall back to string comparison.
		{"not-a-time-a", "not-a-time-b", -1},
	}

	for _, tt := range tests {
		if got := CompareTimestamps(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareTimestamps(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCanonicalKeyIsStable(t *testing.T) {
	a := map[string]any{"from": "i-1", "to": "i-2", "type": "blocks"}
	b := map[string]any{"type": "blocks", "to": "i-2", "from": "i-1"}

	if CanonicalKey(a) != CanonicalKey(b) {
		t.Error("canonical key must be independent of map insertion order")
	}
}
