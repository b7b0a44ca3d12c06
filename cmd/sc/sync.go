package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sudocode-ai/sudocode/internal/config"
	"github.com/sudocode-ai/sudocode/internal/git"
	"github.com/sudocode-ai/sudocode/internal/ui"
	"github.com/sudocode-ai/sudocode/internal/worktree"
)

var (
	syncDryRun     bool
	syncAllLedgers bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Auto-resolve ledger conflicts after a git merge",
	Long: `Auto-resolve JSONL ledger conflicts left by a git merge or rebase.

For every unmerged ledger path, the ancestor/ours/theirs versions are
reconstructed from the git index stages, reconciled by the three-way
engine, written back, and staged. Run 'git merge --continue' (or commit)
afterwards to finish the merge.

By default only the ledgers configured in .sudocode/config.yaml are
considered; --all resolves every unmerged *.jsonl path.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		root, err := git.RepoRoot(".")
		if err != nil {
			FatalErrorWithHint("not in a git repository", "run sc sync from inside the repository being merged")
		}

		resolver := &worktree.Resolver{
			RepoDir: root,
			DryRun:  syncDryRun,
		}
		if !syncAllLedgers {
			resolver.Ledgers = config.Ledgers()
		}

		summary, err := resolver.AutoResolveAll(cmd.Context())
		if err != nil {
			FatalError("%v", err)
		}

		for _, warning := range summary.Warnings {
			WarnError("%s", warning)
		}
		if quietFlag {
			return
		}

		if len(summary.Resolved) == 0 {
			fmt.Println("No conflicted ledgers found")
			return
		}
		for _, path := range summary.Resolved {
			if syncDryRun {
				fmt.Println(ui.Pass("Would resolve %s", path))
			} else {
				fmt.Println(ui.Pass("Resolved and staged %s", path))
			}
		}
		for _, c := range summary.Conflicts {
			fmt.Println(ui.Warn("%s: %s", c.EntityID, c.Action))
			fmt.Println(ui.Detail("resolution: %s", c.Resolution))
		}
		if !syncDryRun {
			fmt.Println(ui.Detail("run 'git merge --continue' to finish the merge"))
		}
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Resolve and report without writing or staging")
	syncCmd.Flags().BoolVar(&syncAllLedgers, "all", false, "Resolve every unmerged *.jsonl path, not just configured ledgers")
	rootCmd.AddCommand(syncCmd)
}
