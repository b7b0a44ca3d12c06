package merge

import (
	"fmt"

	"github.com/sudocode-ai/sudocode/internal/entity"
)

// ResolveOptions controls the legacy two-way resolver.
type ResolveOptions struct {
	// SortByCreated orders the resolved collection ascending by created_at,
	// matching the three-way merger's output ordering.
	SortByCreated bool
}

// DefaultResolveOptions returns the options the legacy call path uses.
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{SortByCreated: true}
}

// ResolveEntities is the legacy union-and-latest-wins resolver. It has no
// common base, so it cannot tell a one-sided change from a conflict: every
// duplicate id is resolved by recency and logged. Retained for one older
// call path; new callers should use ThreeWay.
func ResolveEntities(records []entity.Entity, opts ResolveOptions) ([]entity.Entity, []entity.Conflict) {
	var resolved []entity.Entity
	var conflicts []entity.Conflict

	index := make(map[string]int, len(records))
	dupes := make(map[string]int)
	for _, rec := range records {
		id := rec.ID()
		pos, seen := index[id]
		if !seen {
			index[id] = len(resolved)
			resolved = append(resolved, rec.Clone())
			continue
		}

		dupes[id]++
		// Strictly newer replaces; a tie keeps the earlier occurrence.
		if entity.CompareTimestamps(rec.UpdatedAt(), resolved[pos].UpdatedAt()) > 0 {
			resolved[pos] = rec.Clone()
		}
	}

	for _, rec := range resolved {
		id := rec.ID()
		n, ok := dupes[id]
		if !ok {
			continue
		}
		conflicts = append(conflicts, entity.Conflict{
			EntityID:   id,
			Kind:       entity.ConflictKindDuplicate,
			Action:     fmt.Sprintf("kept latest of %d duplicate records for %q", n+1, id),
			Resolution: entity.ResolutionLatest,
		})
	}

	if opts.SortByCreated {
		sortByCreatedAt(resolved)
	}
	return resolved, conflicts
}
