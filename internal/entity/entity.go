// Package entity defines the schema-flexible record model shared by the
// merge engine, the JSONL codec, and the sync service.
//
// An Entity is an opaque field->value mapping decoded from a JSONL line.
// Only two fields are contractual: "id" (the merge identity key) and
// "updated_at" (the latest-wins tie-break signal). Everything else is
// carried through the merge without a declared schema.
package entity

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// Field names with contractual meaning during a merge.
const (
	FieldID        = "id"
	FieldUUID      = "uuid"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// Entity is one structured work item (issue or spec) as a flat-ish mapping
// of fields. Values hold the shapes produced by encoding/json: string,
// float64, bool, nil, []any, map[string]any.
type Entity map[string]any

// ID returns the merge identity key, or "" if unset or not a string.
func (e Entity) ID() string { return e.stringField(FieldID) }

// UUID returns the secondary identifier. The merge engine never matches on
// it; it travels with the record as an opaque field.
func (e Entity) UUID() string { return e.stringField(FieldUUID) }

// CreatedAt returns the raw created_at timestamp string.
func (e Entity) CreatedAt() string { return e.stringField(FieldCreatedAt) }

// UpdatedAt returns the raw updated_at timestamp string.
func (e Entity) UpdatedAt() string { return e.stringField(FieldUpdatedAt) }

func (e Entity) stringField(name string) string {
	if e == nil {
		return ""
	}
	if s, ok := e[name].(string); ok {
		return s
	}
	return ""
}

// Clone returns a deep copy. The merge engine copies every input record so
// it holds no references into caller-owned storage.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		// Scalars decoded from JSON are immutable.
		return val
	}
}

// Equal reports whether two entities carry identical fields and values.
func Equal(a, b Entity) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !ValueEqual(av, bv) {
			return false
		}
	}
	return true
}

// ValueEqual compares two JSON-decoded values.
func ValueEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// CanonicalKey renders a value as a canonical string for set membership,
// used when array fields are merged as unions.
func CanonicalKey(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable for values that did not come from JSON decoding.
		return ""
	}
	return string(data)
}

// CompareTimestamps orders two ISO-8601 timestamp strings. Parsed times are
// compared chronologically; if either fails to parse, the raw strings are
// compared (the format is string-sortable by contract). Empty beats nothing:
// a set timestamp is always newer than an unset one.
func CompareTimestamps(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}
	ta, okA := ParseTimestamp(a)
	tb, okB := ParseTimestamp(b)
	if okA && okB {
		if ta.Before(tb) {
			return -1
		}
		if ta.After(tb) {
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

// ParseTimestamp parses an ISO-8601 timestamp, accepting the RFC3339 forms
// the ledgers actually contain.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
