package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig is the subset of config.yaml read directly from disk rather
// than through the viper singleton. The merge driver runs as a short-lived
// git child process whose CWD is not necessarily the repository root, so
// it reads the file for the directory it was pointed at instead of
// whatever viper was initialized against.
type LocalConfig struct {
	Ledgers      []string `yaml:"ledgers"`
	SyncBranch   string   `yaml:"sync-branch"`
	MergeLogFile string   `yaml:"merge.log-file"`
}

// LoadLocalConfig reads config.yaml from the project directory under root.
// Returns an empty LocalConfig (not nil) if the file is missing or fails
// to parse; defaults apply in that case.
func LoadLocalConfig(root string) *LocalConfig {
	data, err := os.ReadFile(filepath.Join(root, DirName, "config.yaml")) // #nosec G304 -- project dir from caller
	if err != nil {
		return &LocalConfig{}
	}

	var cfg LocalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &LocalConfig{}
	}
	return &cfg
}

// WriteDefaultConfig creates .sudocode/config.yaml with the default
// settings, leaving an existing file untouched.
func WriteDefaultConfig(root string) error {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(map[string]any{
		KeyLedgers:      DefaultLedgers,
		KeySyncBranch:   "",
		KeyMergeLogFile: DefaultMergeLogFile,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
