package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sudocode-ai/sudocode/internal/config"
	"github.com/sudocode-ai/sudocode/internal/git"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .sudocode directory and merge driver",
	Long: `Create .sudocode/config.yaml with default settings and configure the
git merge driver for the project's JSONL ledgers. An existing config file
is left untouched.`,
	Args: cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		root, err := git.RepoRoot(".")
		if err != nil {
			FatalErrorWithHint("not in a git repository", "run 'git init' first")
		}

		if err := config.WriteDefaultConfig(root); err != nil {
			FatalError("writing config: %v", err)
		}
		// Driver installation is auxiliary: a clone without it still works,
		// it just leaves conflict markers for sc resolve.
		if err := installMergeDriver(); err != nil {
			WarnError("failed to configure merge driver: %v", err)
		}

		if !quietFlag {
			fmt.Printf("Initialized %s/%s\n", root, config.DirName)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
