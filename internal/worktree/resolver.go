// Package worktree auto-resolves JSONL ledger conflicts surfaced by a real
// git merge, then stages the reconciled files through the normal git index.
//
// The engine itself never touches git or the filesystem; this package owns
// that boundary. Each conflicted ledger is rebuilt from the three index
// stages (ancestor, ours, theirs) and handed to merge.ThreeWay; when a
// stage is unavailable the working file's literal conflict markers are
// parsed instead.
package worktree

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sudocode-ai/sudocode/internal/entity"
	"github.com/sudocode-ai/sudocode/internal/git"
	"github.com/sudocode-ai/sudocode/internal/jsonl"
	"github.com/sudocode-ai/sudocode/internal/merge"
)

// Resolver auto-resolves conflicted JSONL ledgers in one repository.
type Resolver struct {
	// RepoDir is the repository root the resolver operates on.
	RepoDir string

	// Ledgers restricts resolution to these paths (relative to RepoDir).
	// Empty means every unmerged *.jsonl path.
	Ledgers []string

	// DryRun performs the merges and reports but writes and stages nothing.
	DryRun bool
}

// Summary reports one AutoResolveAll invocation.
type Summary struct {
	Resolved  []string // paths successfully reconciled (and staged unless DryRun)
	Conflicts []entity.Conflict
	Warnings  []string
}

// AutoResolveAll finds every unmerged ledger path and resolves each one.
// Ledgers resolve concurrently; git index operations serialize behind the
// index lock, which git.Add retries.
func (r *Resolver) AutoResolveAll(ctx context.Context) (*Summary, error) {
	unmerged, err := git.UnmergedPaths(ctx, r.RepoDir)
	if err != nil {
		return nil, err
	}

	var targets []string
	for _, p := range unmerged {
		if r.wants(p) {
			targets = append(targets, p)
		}
	}

	summary := &Summary{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, path := range targets {
		path := path
		g.Go(func() error {
			result, warnings, err := r.ResolvePath(gctx, path)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", path, err)
			}
			mu.Lock()
			defer mu.Unlock()
			summary.Resolved = append(summary.Resolved, path)
			summary.Conflicts = append(summary.Conflicts, result.Stats.Conflicts...)
			summary.Warnings = append(summary.Warnings, warnings...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

// wants reports whether path is a ledger this resolver handles.
func (r *Resolver) wants(path string) bool {
	if len(r.Ledgers) == 0 {
		return strings.HasSuffix(path, ".jsonl")
	}
	for _, l := range r.Ledgers {
		if filepath.ToSlash(l) == filepath.ToSlash(path) {
			return true
		}
	}
	return false
}

// ResolvePath reconciles a single conflicted ledger, writes the result to
// the working tree, and stages it. The returned warnings record malformed
// lines that were skipped.
func (r *Resolver) ResolvePath(ctx context.Context, path string) (*merge.Result, []string, error) {
	result, warnings, err := r.mergeStages(ctx, path)
	if err != nil {
		return nil, warnings, err
	}
	if result == nil {
		result, warnings, err = r.mergeMarkedFile(path)
		if err != nil {
			return nil, warnings, err
		}
	}

	if r.DryRun {
		return result, warnings, nil
	}

	full := filepath.Join(r.RepoDir, path)
	if err := jsonl.WriteEntitiesFile(full, result.Entities); err != nil {
		return nil, warnings, err
	}
	if err := git.Add(ctx, r.RepoDir, path); err != nil {
		return nil, warnings, err
	}
	return result, warnings, nil
}

// mergeStages rebuilds base/ours/theirs from the git index stages. Returns
// a nil result when the ours or theirs stage is missing, signalling the
// caller to fall back to conflict-marker parsing.
func (r *Resolver) mergeStages(ctx context.Context, path string) (*merge.Result, []string, error) {
	var all []string
	read := func(stage int) ([]entity.Entity, bool, error) {
		content, ok, err := git.ShowStage(ctx, r.RepoDir, stage, path)
		if err != nil || !ok {
			return nil, ok, err
		}
		entities, warnings, err := jsonl.ReadEntities(bytes.NewReader(content))
		all = append(all, warnings...)
		return entities, true, err
	}

	base, _, err := read(1) // absent ancestor stage is an empty base
	if err != nil {
		return nil, all, err
	}
	ours, okOurs, err := read(2)
	if err != nil {
		return nil, all, err
	}
	theirs, okTheirs, err := read(3)
	if err != nil {
		return nil, all, err
	}
	if !okOurs || !okTheirs {
		return nil, all, nil
	}
	return merge.ThreeWay(base, ours, theirs), all, nil
}

// mergeMarkedFile resolves a ledger whose working copy carries literal git
// conflict markers: three-way merge with an empty base over the assembled
// ours/theirs collections.
func (r *Resolver) mergeMarkedFile(path string) (*merge.Result, []string, error) {
	content, err := os.ReadFile(filepath.Join(r.RepoDir, path)) // #nosec G304 -- path from git's own unmerged listing
	if err != nil {
		return nil, nil, err
	}
	sections := jsonl.ParseMergeConflictFile(string(content))
	ours, theirs, warnings := jsonl.DecodeSections(sections)
	return merge.ThreeWay(nil, ours, theirs), warnings, nil
}
