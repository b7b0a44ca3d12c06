// Package merge implements the three-way merge engine for JSONL entity
// collections (issues and specs).
//
// The engine is a pure function from three snapshots to one reconciled
// snapshot plus a conflict report: it performs no I/O, holds no locks, and
// keeps no state between invocations. Records are matched across the three
// collections strictly by their "id" field; genuine conflicts resolve
// deterministically by latest updated_at, with theirs as the stable
// tie-break default.
package merge

import (
	"fmt"
	"slices"
	"sort"

	"github.com/sudocode-ai/sudocode/internal/entity"
)

// Result is the sole output artifact of a merge: the reconciled collection
// plus the accumulated conflict log. Immutable once returned.
type Result struct {
	Entities []entity.Entity `json:"entities"`
	Stats    Stats           `json:"stats"`
}

// Stats carries the per-invocation conflict log.
type Stats struct {
	Conflicts []entity.Conflict `json:"conflicts"`
}

// ThreeWay merges a common ancestor with two diverged versions of an
// entity collection. All inputs are value-copied; the result holds no
// references into caller-owned data.
//
// Classification per id:
//   - present everywhere: field-merge, keep
//   - modified on one side, deleted on the other: the modification wins
//   - unmodified on the surviving side, deleted on the other: the delete wins
//   - added on one side only: kept as-is
//   - added on both sides (concurrent addition): field-merged with no base
func ThreeWay(base, ours, theirs []entity.Entity) *Result {
	baseMap := indexByID(base)
	oursMap := indexByID(ours)
	theirsMap := indexByID(theirs)

	var conflicts []entity.Conflict
	var merged []entity.Entity

	for _, id := range unionIDs(base, ours, theirs) {
		b, inBase := baseMap[id]
		o, inOurs := oursMap[id]
		t, inTheirs := theirsMap[id]

		switch {
		case inBase && inOurs && inTheirs:
			merged = append(merged, mergeEntity(b, o, t, true, &conflicts))

		case inBase && inOurs && !inTheirs:
			// Deleted in theirs. A modified survivor beats the delete; an
			// unmodified one had nothing to lose.
			if !entity.Equal(b, o) {
				merged = append(merged, o.Clone())
			}

		case inBase && !inOurs && inTheirs:
			if !entity.Equal(b, t) {
				merged = append(merged, t.Clone())
			}

		case inBase:
			// Deleted in both: drop.

		case inOurs && inTheirs:
			// Concurrent addition under the same id.
			merged = append(merged, mergeEntity(nil, o, t, false, &conflicts))

		case inOurs:
			merged = append(merged, o.Clone())

		case inTheirs:
			merged = append(merged, t.Clone())
		}
	}

	ensureUniqueIDs(merged)
	sortByCreatedAt(merged)

	return &Result{
		Entities: merged,
		Stats:    Stats{Conflicts: conflicts},
	}
}

// indexByID maps a collection by merge identity. Later occurrences of a
// duplicate id within one input shadow earlier ones: JSONL ledgers are
// append-oriented, so the last line is the freshest.
func indexByID(entities []entity.Entity) map[string]entity.Entity {
	m := make(map[string]entity.Entity, len(entities))
	for _, e := range entities {
		m[e.ID()] = e
	}
	return m
}

// unionIDs returns every distinct id in first-seen order across base, then
// ours, then theirs. The stable visit order keeps the conflict log
// deterministic across invocations.
func unionIDs(collections ...[]entity.Entity) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, coll := range collections {
		for _, e := range coll {
			id := e.ID()
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// mergeEntity reconciles every field of a record present in both diverged
// versions. No field is dropped: any field present in any of the three
// versions appears in the output, resolved by its shape's strategy.
func mergeEntity(base, ours, theirs entity.Entity, hasBase bool, conflicts *[]entity.Conflict) entity.Entity {
	ctx := fieldContext{
		entityID:      ours.ID(),
		hasBase:       hasBase,
		oursUpdated:   ours.UpdatedAt(),
		theirsUpdated: theirs.UpdatedAt(),
	}

	out := make(entity.Entity, len(ours))
	for _, name := range unionFields(base, ours, theirs) {
		switch name {
		case entity.FieldID:
			out[name] = ours[name]
			continue
		case entity.FieldUpdatedAt:
			// updated_at is the tie-break signal, not a merged field: the
			// output carries the newer side's timestamp, never a conflict.
			if entity.CompareTimestamps(ctx.oursUpdated, ctx.theirsUpdated) > 0 {
				out[name] = ours[name]
			} else {
				out[name] = theirs[name]
			}
			continue
		}

		val, conflict := mergeFieldValue(name, base[name], ours[name], theirs[name], ctx)
		if conflict != nil {
			*conflicts = append(*conflicts, *conflict)
		}
		// A nil winner means the field was removed on the prevailing side
		// (absence wins as absence); an explicit JSON null is kept.
		if val == nil && !hasExplicitNull(name, base, ours, theirs) {
			continue
		}
		out[name] = cloneAny(val)
	}
	return out
}

func hasExplicitNull(name string, versions ...entity.Entity) bool {
	for _, v := range versions {
		if val, ok := v[name]; ok && val == nil {
			return true
		}
	}
	return false
}

func cloneAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return map[string]any(entity.Entity(val).Clone())
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneAny(item)
		}
		return out
	default:
		return v
	}
}

// unionFields returns the sorted union of field names across the three
// versions of a record.
func unionFields(versions ...entity.Entity) []string {
	seen := make(map[string]bool)
	var names []string
	for _, v := range versions {
		for name := range v {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// ensureUniqueIDs renames colliding ids in the output collection. The
// collision can only arise through caller error or a pathological rename,
// since classification already keys by id; the older record (by
// updated_at) gets a numeric disambiguating suffix.
func ensureUniqueIDs(entities []entity.Entity) {
	byID := make(map[string]int, len(entities))
	taken := make(map[string]bool, len(entities))
	for _, e := range entities {
		taken[e.ID()] = true
	}

	for i, e := range entities {
		id := e.ID()
		prev, ok := byID[id]
		if !ok {
			byID[id] = i
			continue
		}

		// Rename the older of the two.
		loser := i
		if entity.CompareTimestamps(entities[prev].UpdatedAt(), e.UpdatedAt()) < 0 {
			loser = prev
			byID[id] = i
		}
		renamed := disambiguate(id, taken)
		taken[renamed] = true
		entities[loser][entity.FieldID] = renamed
		byID[renamed] = loser
	}
}

func disambiguate(id string, taken map[string]bool) string {
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// sortByCreatedAt orders the output ascending by created_at. The sort is
// stable: ties preserve first-seen order, independent of which input
// collection a record came from.
func sortByCreatedAt(entities []entity.Entity) {
	slices.SortStableFunc(entities, func(a, b entity.Entity) int {
		return entity.CompareTimestamps(a.CreatedAt(), b.CreatedAt())
	})
}
