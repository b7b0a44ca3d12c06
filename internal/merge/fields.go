package merge

import (
	"fmt"
	"strings"

	"github.com/sudocode-ai/sudocode/internal/entity"
	"github.com/sudocode-ai/sudocode/internal/textmerge"
)

// fieldShape classifies a field value structurally; there is no declared
// schema, so the shape is decided per field per merge from the three
// versions actually present.
type fieldShape int

const (
	shapeScalar fieldShape = iota
	shapeText
	shapeScalarArray
	shapeStructArray
)

func detectShape(base, ours, theirs any) fieldShape {
	if isStringWithNewline(base) || isStringWithNewline(ours) || isStringWithNewline(theirs) {
		return shapeText
	}
	for _, v := range []any{ours, theirs, base} {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		if allStructs(arr) && !anyArrayWithScalars(base, ours, theirs) {
			return shapeStructArray
		}
		return shapeScalarArray
	}
	return shapeScalar
}

func isStringWithNewline(v any) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, "\n")
}

func allStructs(arr []any) bool {
	for _, item := range arr {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

// anyArrayWithScalars guards the struct-array classification: if any of the
// three versions holds a non-struct element, the field merges as a scalar
// array (canonical-JSON keyed union), which is safe for both element kinds.
func anyArrayWithScalars(vals ...any) bool {
	for _, v := range vals {
		arr, ok := v.([]any)
		if !ok {
			continue
		}
		if len(arr) > 0 && !allStructs(arr) {
			return true
		}
	}
	return false
}

// fieldContext carries the per-record inputs a field strategy needs to
// resolve a genuine conflict: the identity for the log entry and both
// sides' updated_at for the latest-wins rule.
type fieldContext struct {
	entityID      string
	hasBase       bool
	oursUpdated   string
	theirsUpdated string
}

// oursIsNewer applies the recency tie-break: ours wins only when strictly
// newer; a tie keeps theirs as the stable default.
func (c fieldContext) oursIsNewer() bool {
	return entity.CompareTimestamps(c.oursUpdated, c.theirsUpdated) > 0
}

// mergeFieldValue reconciles one field across its base/ours/theirs versions.
// A nil return for the conflict means the field resolved without one.
func mergeFieldValue(name string, base, ours, theirs any, ctx fieldContext) (any, *entity.Conflict) {
	// Generic shortcuts apply to every shape. With no base record at all,
	// only the equality shortcut is sound: a value matching the absent
	// base just means the other side supplied the field.
	if ctx.hasBase {
		oursChanged := !entity.ValueEqual(base, ours)
		theirsChanged := !entity.ValueEqual(base, theirs)
		switch {
		case !oursChanged && !theirsChanged:
			return base, nil
		case oursChanged && !theirsChanged:
			return ours, nil
		case !oursChanged && theirsChanged:
			return theirs, nil
		}
	}
	if entity.ValueEqual(ours, theirs) {
		return ours, nil
	}
	if !ctx.hasBase {
		// Concurrent addition with one side missing the field entirely:
		// treat the supplied value as a one-sided addition.
		if ours == nil {
			return theirs, nil
		}
		if theirs == nil {
			return ours, nil
		}
	}

	switch detectShape(base, ours, theirs) {
	case shapeText:
		return mergeTextField(name, base, ours, theirs, ctx)
	case shapeScalarArray:
		return unionArrays(base, ours, theirs, entity.CanonicalKey), nil
	case shapeStructArray:
		return unionArrays(base, ours, theirs, structKey), nil
	default:
		return resolveScalarConflict(name, ours, theirs, ctx)
	}
}

// resolveScalarConflict applies latest-wins to a scalar both sides changed.
func resolveScalarConflict(name string, ours, theirs any, ctx fieldContext) (any, *entity.Conflict) {
	winner, resolution := theirs, entity.ResolutionTheirs
	if ctx.oursIsNewer() {
		winner, resolution = ours, entity.ResolutionOurs
	}
	return winner, &entity.Conflict{
		EntityID:   ctx.entityID,
		Field:      name,
		Kind:       entity.ConflictKindField,
		Action:     fmt.Sprintf("auto-resolved scalar field %q by latest updated_at", name),
		Resolution: resolution,
	}
}

// mergeTextField line-merges a multi-line string field. When the edits
// overlap, the whole field falls back to the newer side verbatim; conflict
// markers are never injected into a field value.
func mergeTextField(name string, base, ours, theirs any, ctx fieldContext) (any, *entity.Conflict) {
	baseStr, baseOK := base.(string)
	oursStr, oursOK := ours.(string)
	theirsStr, theirsOK := theirs.(string)
	if !oursOK || !theirsOK {
		// One side replaced text with a non-string; no line merge possible.
		return resolveScalarConflict(name, ours, theirs, ctx)
	}

	if ctx.hasBase && baseOK {
		if res := textmerge.Merge(baseStr, oursStr, theirsStr); !res.Conflicted {
			return res.Merged, nil
		}
	}

	winner, resolution := any(theirsStr), entity.ResolutionTheirs
	if ctx.oursIsNewer() {
		winner, resolution = any(oursStr), entity.ResolutionOurs
	}
	// "YAML conflict" is preserved terminology from the engine's origin as
	// a front-matter reconciler; downstream tooling matches on it.
	return winner, &entity.Conflict{
		EntityID:   ctx.entityID,
		Field:      name,
		Kind:       entity.ConflictKindField,
		Action:     fmt.Sprintf("auto-resolved YAML conflict in field %q by latest updated_at", name),
		Resolution: resolution,
	}
}

// unionArrays merges array fields as a de-duplicated union of ours and
// theirs. Base items come first in base order, then new items in the order
// first seen across ours then theirs. There are no removal semantics: an
// item absent from only one side is not a deletion. On key collision with
// differing payloads the theirs payload wins silently.
func unionArrays(base, ours, theirs any, key func(any) string) []any {
	baseArr := asArray(base)
	oursArr := asArray(ours)
	theirsArr := asArray(theirs)

	inSides := make(map[string]bool, len(oursArr)+len(theirsArr))
	payload := make(map[string]any, len(oursArr)+len(theirsArr))
	for _, item := range oursArr {
		k := key(item)
		inSides[k] = true
		payload[k] = item
	}
	for _, item := range theirsArr {
		k := key(item)
		inSides[k] = true
		payload[k] = item
	}

	var out []any
	emitted := make(map[string]bool, len(inSides))
	emit := func(item any) {
		k := key(item)
		if emitted[k] || !inSides[k] {
			return
		}
		emitted[k] = true
		out = append(out, payload[k])
	}
	for _, item := range baseArr {
		emit(item)
	}
	for _, item := range oursArr {
		emit(item)
	}
	for _, item := range theirsArr {
		emit(item)
	}
	return out
}

func asArray(v any) []any {
	arr, _ := v.([]any)
	return arr
}

// structKey derives the natural de-duplication key for an array-of-struct
// element: its own id when present, else the (from, to, type) triple used
// by relationship records, else the whole value canonically.
func structKey(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return entity.CanonicalKey(v)
	}
	if id, ok := m["id"].(string); ok && id != "" {
		return "id:" + id
	}
	from, fromOK := m["from"].(string)
	to, toOK := m["to"].(string)
	typ, typOK := m["type"].(string)
	if fromOK && toOK && typOK {
		return "rel:" + from + "\x00" + to + "\x00" + typ
	}
	return entity.CanonicalKey(v)
}
