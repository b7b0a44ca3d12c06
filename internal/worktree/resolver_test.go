package worktree

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sudocode-ai/sudocode/internal/git"
	"github.com/sudocode-ai/sudocode/internal/jsonl"
)

func run(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}

func writeLedger(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// conflictedLedgerRepo builds a repository where .sudocode/issues.jsonl is
// unmerged: both branches edited the same record's line.
func conflictedLedgerRepo(t *testing.T) (repo, ledger string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	repo = t.TempDir()
	ledger = filepath.Join(".sudocode", "issues.jsonl")

	run(t, repo, "init")
	run(t, repo, "checkout", "-b", "main")
	run(t, repo, "config", "user.name", "test")
	run(t, repo, "config", "user.email", "test@example.com")
	run(t, repo, "config", "commit.gpgsign", "false")

	writeLedger(t, repo, ledger,
		`{"id":"i-1","status":"open","assignee":"","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}`+"\n"+
			`{"id":"i-2","status":"open","created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}`+"\n")
	run(t, repo, "add", ".")
	run(t, repo, "commit", "-m", "seed ledger")

	run(t, repo, "checkout", "-b", "feature")
	writeLedger(t, repo, ledger,
		`{"id":"i-1","status":"closed","assignee":"","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-03T00:00:00Z"}`+"\n"+
			`{"id":"i-2","status":"open","created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}`+"\n")
	run(t, repo, "commit", "-am", "close i-1")

	run(t, repo, "checkout", "main")
	writeLedger(t, repo, ledger,
		`{"id":"i-1","status":"open","assignee":"alice","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-04T00:00:00Z"}`+"\n"+
			`{"id":"i-2","status":"open","created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-02T00:00:00Z"}`+"\n")
	run(t, repo, "commit", "-am", "assign i-1")

	// Conflict is the point; ignore the merge exit status.
	_ = exec.Command("git", "-C", repo, "merge", "feature").Run()

	unmerged, err := git.UnmergedPaths(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(unmerged) != 1 {
		t.Fatalf("setup expected one unmerged path, got %v", unmerged)
	}
	return repo, ledger
}

func TestAutoResolveAllReconcilesAndStages(t *testing.T) {
	repo, ledger := conflictedLedgerRepo(t)
	r := &Resolver{RepoDir: repo}

	summary, err := r.AutoResolveAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Resolved) != 1 || summary.Resolved[0] != ledger {
		t.Fatalf("Resolved = %v, want [%s]", summary.Resolved, ledger)
	}
	if len(summary.Conflicts) != 0 {
		t.Errorf("disjoint field edits must not log conflicts: %v", summary.Conflicts)
	}

	// Both branches' edits must land in the working file.
	entities, _, err := jsonl.ReadEntitiesFile(filepath.Join(repo, ledger))
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 2 {
		t.Fatalf("merged ledger has %d records, want 2", len(entities))
	}
	var found bool
	for _, e := range entities {
		if e.ID() != "i-1" {
			continue
		}
		found = true
		if e["status"] != "closed" || e["assignee"] != "alice" {
			t.Errorf("merged record = %v, want both sides' edits", e)
		}
		if e["updated_at"] != "2024-01-04T00:00:00Z" {
			t.Errorf("updated_at = %v, want the newer side's timestamp", e["updated_at"])
		}
	}
	if !found {
		t.Fatal("record i-1 missing from merged ledger")
	}

	// And the path must be staged: nothing left unmerged.
	unmerged, err := git.UnmergedPaths(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(unmerged) != 0 {
		t.Errorf("still unmerged after resolution: %v", unmerged)
	}
}

func TestAutoResolveAllDryRun(t *testing.T) {
	repo, ledger := conflictedLedgerRepo(t)
	before, err := os.ReadFile(filepath.Join(repo, ledger))
	if err != nil {
		t.Fatal(err)
	}

	r := &Resolver{RepoDir: repo, DryRun: true}
	summary, err := r.AutoResolveAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Resolved) != 1 {
		t.Fatalf("Resolved = %v", summary.Resolved)
	}

	after, err := os.ReadFile(filepath.Join(repo, ledger))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("dry run must not rewrite the working file")
	}
	unmerged, err := git.UnmergedPaths(context.Background(), repo)
	if err != nil {
		t.Fatal(err)
	}
	if len(unmerged) != 1 {
		t.Error("dry run must not stage anything")
	}
}

func TestResolverWantsOnlyConfiguredLedgers(t *testing.T) {
	r := &Resolver{Ledgers: []string{".sudocode/issues.jsonl"}}

	if !r.wants(".sudocode/issues.jsonl") {
		t.Error("configured ledger rejected")
	}
	if r.wants(".sudocode/specs.jsonl") {
		t.Error("unconfigured ledger accepted")
	}

	unrestricted := &Resolver{}
	if !unrestricted.wants("data/anything.jsonl") {
		t.Error("suffix match rejected without configured ledgers")
	}
	if unrestricted.wants("main.go") {
		t.Error("non-ledger path accepted")
	}
}

func TestMergeMarkedFileFallback(t *testing.T) {
	dir := t.TempDir()
	marked := `{"id":"i-1","title":"Clean","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-01T00:00:00Z"}
<<<<<<< HEAD
{"id":"i-2","title":"Ours","created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-05T00:00:00Z"}
=======
{"id":"i-2","title":"Theirs","created_at":"2024-01-02T00:00:00Z","updated_at":"2024-01-03T00:00:00Z"}
>>>>>>> feature
`
	if err := os.WriteFile(filepath.Join(dir, "issues.jsonl"), []byte(marked), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &Resolver{RepoDir: dir}
	result, warnings, err := r.mergeMarkedFile("issues.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(result.Entities) != 2 {
		t.Fatalf("entities = %v, want clean record plus one merged i-2", result.Entities)
	}
	for _, e := range result.Entities {
		if e.ID() == "i-2" && e["title"] != "Ours" {
			t.Errorf("i-2 title = %v, want the newer side", e["title"])
		}
		if s, ok := e["title"].(string); ok && strings.Contains(s, "<<<<<<<") {
			t.Error("markers leaked into merged record")
		}
	}
}
