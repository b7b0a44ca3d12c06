package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sudocode-ai/sudocode/internal/config"
	"github.com/sudocode-ai/sudocode/internal/git"
	"github.com/sudocode-ai/sudocode/internal/jsonl"
	"github.com/sudocode-ai/sudocode/internal/merge"
)

var mergeInstall bool

var mergeCmd = &cobra.Command{
	Use:   "merge <base> <ours> <theirs>",
	Short: "Git merge driver for JSONL ledgers",
	Long: `Three-way merge driver for JSONL entity ledgers.

Invoked by git during a merge via the configured driver:

  [merge "sudocode"]
      driver = sc merge %O %A %B

Reads the ancestor, current, and other versions, reconciles them, and
writes the result back to the current (%A) path. Conflicts are always
auto-resolved deterministically; the driver exits non-zero only on I/O
failure, in which case it appends a diagnostic to the merge driver log
and leaves the target untouched.

Use --install to configure the driver and .gitattributes in the current
repository.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if mergeInstall {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(3)(cmd, args)
	},
	Run: func(_ *cobra.Command, args []string) {
		if mergeInstall {
			if err := installMergeDriver(); err != nil {
				FatalError("%v", err)
			}
			if !quietFlag {
				fmt.Println("Configured merge driver for JSONL ledgers")
			}
			return
		}

		if err := runMergeDriver(args[0], args[1], args[2]); err != nil {
			logMergeFailure(args[1], err)
			os.Exit(1)
		}
	},
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeInstall, "install", false, "Configure the git merge driver for this repository")
	rootCmd.AddCommand(mergeCmd)
}

// runMergeDriver merges three ledger files and writes the reconciled
// collection to the ours path. Success is silent: git invokes the driver
// on every ledger merge and clean merges should produce no output.
func runMergeDriver(basePath, oursPath, theirsPath string) error {
	base, warnings, err := jsonl.ReadEntitiesFile(basePath)
	if err != nil {
		return err
	}
	ours, w, err := jsonl.ReadEntitiesFile(oursPath)
	warnings = append(warnings, w...)
	if err != nil {
		return err
	}
	theirs, w, err := jsonl.ReadEntitiesFile(theirsPath)
	warnings = append(warnings, w...)
	if err != nil {
		return err
	}

	for _, warning := range warnings {
		WarnError("%s", warning)
	}

	result := merge.ThreeWay(base, ours, theirs)
	return jsonl.WriteEntitiesFile(oursPath, result.Entities)
}

// logMergeFailure appends a diagnostic to the rotating merge driver log.
// The driver runs as a git child process with no terminal of its own, so
// the log file is the only durable place for the failure to land.
func logMergeFailure(oursPath string, err error) {
	root := "."
	if r, rootErr := git.RepoRoot("."); rootErr == nil {
		root = r
	}
	logger := log.New(&lumberjack.Logger{
		Filename:   config.MergeLogPath(root),
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}, "", log.LstdFlags)
	logger.Printf("Merge failed for: %s: %v", oursPath, err)

	fmt.Fprintf(os.Stderr, "Merge failed for: %s: %v\n", oursPath, err)
}

// installMergeDriver configures merge.sudocode.driver in the repository's
// git config and routes the configured ledgers through it in
// .gitattributes.
func installMergeDriver() error {
	root, err := git.RepoRoot(".")
	if err != nil {
		return err
	}
	if err := git.ConfigSet(root, "merge.sudocode.driver", "sc merge %O %A %B"); err != nil {
		return err
	}
	if err := git.ConfigSet(root, "merge.sudocode.name", "sudocode JSONL merge driver"); err != nil {
		return err
	}
	return ensureGitattributes(root)
}

func ensureGitattributes(root string) error {
	path := filepath.Join(root, ".gitattributes")
	existing, err := os.ReadFile(path) // #nosec G304 -- repo root from git rev-parse
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var missing []string
	for _, ledger := range config.Ledgers() {
		line := filepath.ToSlash(ledger) + " merge=sudocode"
		if !strings.Contains(string(existing), line) {
			missing = append(missing, line)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	content := string(existing)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += strings.Join(missing, "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0o644)
}
