// Package git wraps the git CLI operations the sync service needs. All
// helpers are worktree-aware: paths come from git rev-parse rather than
// assuming a .git directory next to the working tree.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsRepo reports whether dir is inside a git working tree.
func IsRepo(dir string) bool {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--is-inside-work-tree")
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

// RepoRoot returns the top-level directory of the working tree containing
// dir.
func RepoRoot(dir string) (string, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// GitDir returns the repository's git directory. In a worktree this is the
// per-worktree directory, not the shared one.
func GitDir(dir string) (string, error) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--git-dir")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// UnmergedPaths lists paths with unresolved merge conflicts, relative to
// the repository root.
func UnmergedPaths(ctx context.Context, dir string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "diff", "--name-only", "--diff-filter=U", "-z")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("listing unmerged paths: %w", err)
	}
	var paths []string
	for _, p := range strings.Split(string(out), "\x00") {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// ShowStage reads one index stage of an unmerged path: stage 1 is the
// common ancestor, 2 is ours, 3 is theirs. ok is false when the stage does
// not exist (e.g. no ancestor for a concurrently added file), which is not
// an error.
func ShowStage(ctx context.Context, dir string, stage int, path string) (content []byte, ok bool, err error) {
	spec := ":" + strconv.Itoa(stage) + ":" + path
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "show", spec) // #nosec G204 -- path from git's own unmerged listing
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := stderr.String()
		if strings.Contains(msg, "does not exist") || strings.Contains(msg, "is in the index, but not at stage") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("git show %s: %w: %s", spec, err, strings.TrimSpace(msg))
	}
	return out, true, nil
}

// Add stages a path, retrying with exponential backoff while another git
// process holds index.lock. Concurrent agents share a repository, so brief
// lock contention during a sync is routine rather than fatal.
func Add(ctx context.Context, dir, path string) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	return backoff.Retry(func() error {
		cmd := exec.CommandContext(ctx, "git", "-C", dir, "add", "--", path) // #nosec G204 -- path from git's own unmerged listing
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			msg := stderr.String()
			if strings.Contains(msg, "index.lock") {
				return fmt.Errorf("index locked: %s", strings.TrimSpace(msg))
			}
			return backoff.Permanent(fmt.Errorf("git add %s: %w: %s", path, err, strings.TrimSpace(msg)))
		}
		return nil
	}, backoff.WithContext(bo, ctx))
}

// ConfigSet writes a repository-local git config key.
func ConfigSet(dir, key, value string) error {
	cmd := exec.Command("git", "-C", dir, "config", key, value) // #nosec G204 -- fixed keys from callers
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git config %s: %w: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}
