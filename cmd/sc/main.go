// Command sc keeps sudocode's JSONL work-item ledgers mergeable across git
// branches and worktrees: a git merge driver, a conflict-marker resolver,
// and a post-merge auto-resolution step for the sync workflow.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sudocode-ai/sudocode/internal/config"
	"github.com/sudocode-ai/sudocode/internal/git"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	quietFlag bool

	rootCtx    context.Context
	rootCancel context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "sc",
	Short:         "Merge tooling for sudocode JSONL ledgers",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Config is best-effort here: the merge driver must work even when
		// invoked by git outside an initialized project.
		if root, err := git.RepoRoot("."); err == nil {
			_ = config.Init(root)
		} else {
			_ = config.Init(".")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
}

func main() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer rootCancel()

	if err := rootCmd.ExecuteContext(rootCtx); err != nil {
		FatalError("%v", err)
	}
}
