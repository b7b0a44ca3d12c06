// Package sudocode exposes a minimal public API over the JSONL merge
// engine for tools that embed it instead of shelling out to sc.
//
// The exported surface is deliberately small: the entity model, the
// three-way merger, and the legacy resolver. Everything else lives under
// internal/ and may change without notice.
package sudocode

import (
	"github.com/sudocode-ai/sudocode/internal/entity"
	"github.com/sudocode-ai/sudocode/internal/merge"
)

// Core types for working with entity collections.
type (
	Entity   = entity.Entity
	Conflict = entity.Conflict
	Result   = merge.Result
)

// ThreeWay merges a common ancestor with two diverged versions of an
// entity collection. See internal/merge for the full contract.
func ThreeWay(base, ours, theirs []Entity) *Result {
	return merge.ThreeWay(base, ours, theirs)
}

// ResolveEntities is the legacy union-and-latest-wins resolver.
func ResolveEntities(records []Entity) ([]Entity, []Conflict) {
	return merge.ResolveEntities(records, merge.DefaultResolveOptions())
}
