package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sudocode-ai/sudocode/internal/jsonl"
	"github.com/sudocode-ai/sudocode/internal/merge"
	"github.com/sudocode-ai/sudocode/internal/ui"
)

var resolveDryRun bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <file>",
	Short: "Resolve git conflict markers left in a JSONL ledger",
	Long: `Resolve literal git conflict markers (<<<<<<< / ======= / >>>>>>>)
left in a JSONL ledger by a merge that ran without the merge driver.

The clean sections plus each conflict side are assembled into effective
"ours" and "theirs" collections and reconciled by the same three-way
engine the merge driver uses. A file with no conflict markers is left
untouched (not an error).

With --dry-run the resolution is performed and reported but the file is
not rewritten.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		path := args[0]
		marked, err := jsonl.HasGitConflictMarkers(path)
		if err != nil {
			FatalError("%v", err)
		}
		if !marked {
			if !quietFlag {
				fmt.Printf("%s has no conflict markers, nothing to do\n", path)
			}
			return
		}

		result, warnings, err := resolveMarkedFile(path, resolveDryRun)
		if err != nil {
			FatalError("%v", err)
		}

		for _, warning := range warnings {
			WarnError("%s", warning)
		}
		if quietFlag {
			return
		}

		verb := "Resolved"
		if resolveDryRun {
			verb = "Would resolve"
		}
		fmt.Println(ui.Pass("%s %s: %d entities", verb, path, len(result.Entities)))
		for _, c := range result.Stats.Conflicts {
			fmt.Println(ui.Warn("%s: %s", c.EntityID, c.Action))
			fmt.Println(ui.Detail("resolution: %s", c.Resolution))
		}
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveDryRun, "dry-run", false, "Report the resolution without rewriting the file")
	rootCmd.AddCommand(resolveCmd)
}

// resolveMarkedFile reconciles a conflict-marked ledger in place.
func resolveMarkedFile(path string, dryRun bool) (*merge.Result, []string, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- ledger path from CLI argument
	if err != nil {
		return nil, nil, err
	}

	sections := jsonl.ParseMergeConflictFile(string(content))
	ours, theirs, warnings := jsonl.DecodeSections(sections)
	result := merge.ThreeWay(nil, ours, theirs)

	if !dryRun {
		if err := jsonl.WriteEntitiesFile(path, result.Entities); err != nil {
			return nil, warnings, err
		}
	}
	return result, warnings, nil
}
