// Package config loads project configuration from .sudocode/config.yaml
// with environment overrides (SUDOCODE_*). Precedence: environment variable,
// then config.yaml, then the built-in default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// DirName is the project metadata directory at the repository root.
const DirName = ".sudocode"

// Config keys.
const (
	KeyLedgers      = "ledgers"
	KeySyncBranch   = "sync-branch"
	KeyMergeLogFile = "merge.log-file"
)

// DefaultLedgers are the ledger paths, relative to the repository root,
// that the sync service resolves when none are configured.
var DefaultLedgers = []string{
	filepath.Join(DirName, "issues.jsonl"),
	filepath.Join(DirName, "specs.jsonl"),
}

// DefaultMergeLogFile is where the merge driver appends failure
// diagnostics, relative to the repository root.
var DefaultMergeLogFile = filepath.Join(DirName, "merge-driver.log")

var (
	v    *viper.Viper
	once sync.Once
)

// Init loads config.yaml from the project directory under root. Safe to
// call more than once; only the first call reads the file. A missing
// config file is not an error: defaults apply.
func Init(root string) error {
	var err error
	once.Do(func() {
		err = load(root)
	})
	return err
}

func load(root string) error {
	vp := viper.New()
	vp.SetConfigName("config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Join(root, DirName))
	vp.SetEnvPrefix("SUDOCODE")
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	vp.AutomaticEnv()

	vp.SetDefault(KeyLedgers, DefaultLedgers)
	vp.SetDefault(KeyMergeLogFile, DefaultMergeLogFile)
	vp.SetDefault(KeySyncBranch, "")

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errorsAs(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("reading %s/config.yaml: %w", DirName, err)
		}
	}
	v = vp
	return nil
}

// errorsAs is a tiny shim so load reads cleanly; viper returns a value
// type for the not-found case.
func errorsAs(err error, target *viper.ConfigFileNotFoundError) bool {
	if e, ok := err.(viper.ConfigFileNotFoundError); ok {
		*target = e
		return true
	}
	return false
}

func active() *viper.Viper {
	if v == nil {
		// Callers that skip Init (unit tests, library use) get defaults.
		_ = load(".")
	}
	return v
}

// GetString returns a string config value.
func GetString(key string) string { return active().GetString(key) }

// Ledgers returns the configured JSONL ledger paths relative to root.
func Ledgers() []string {
	if paths := active().GetStringSlice(KeyLedgers); len(paths) > 0 {
		return paths
	}
	return DefaultLedgers
}

// MergeLogPath returns the absolute merge-driver log path for root.
func MergeLogPath(root string) string {
	p := active().GetString(KeyMergeLogFile)
	if p == "" {
		p = DefaultMergeLogFile
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// SyncBranch returns the configured sync branch, or "" meaning the current
// branch.
func SyncBranch() string {
	if env := os.Getenv("SUDOCODE_SYNC_BRANCH"); env != "" {
		return env
	}
	return active().GetString(KeySyncBranch)
}

// Reset discards loaded configuration so tests can re-Init with a
// different root.
func Reset() {
	v = nil
	once = sync.Once{}
}
