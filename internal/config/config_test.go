package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initAt(t *testing.T, root string) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
	require.NoError(t, Init(root))
}

func TestDefaultsWithoutConfigFile(t *testing.T) {
	initAt(t, t.TempDir())

	assert.Equal(t, DefaultLedgers, Ledgers())
	assert.Equal(t, "", SyncBranch())
}

func TestConfigFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	yaml := "ledgers:\n  - data/work.jsonl\nsync-branch: sudocode-sync\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	initAt(t, root)

	assert.Equal(t, []string{"data/work.jsonl"}, Ledgers())
	assert.Equal(t, "sudocode-sync", SyncBranch())
}

func TestEnvOverridesConfigFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, DirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("sync-branch: from-file\n"), 0o644))
	t.Setenv("SUDOCODE_SYNC_BRANCH", "from-env")

	initAt(t, root)

	assert.Equal(t, "from-env", SyncBranch())
}

func TestMergeLogPath(t *testing.T) {
	initAt(t, t.TempDir())

	assert.Equal(t, filepath.Join("/repo", DirName, "merge-driver.log"), MergeLogPath("/repo"))
}

func TestLoadLocalConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DirName), 0o755))
	yaml := "ledgers:\n  - a.jsonl\n  - b.jsonl\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, DirName, "config.yaml"), []byte(yaml), 0o644))

	cfg := LoadLocalConfig(root)

	assert.Equal(t, []string{"a.jsonl", "b.jsonl"}, cfg.Ledgers)
}

func TestLoadLocalConfigMissingFile(t *testing.T) {
	cfg := LoadLocalConfig(t.TempDir())

	require.NotNil(t, cfg)
	assert.Empty(t, cfg.Ledgers)
}

func TestWriteDefaultConfig(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, WriteDefaultConfig(root))

	cfg := LoadLocalConfig(root)
	assert.Equal(t, DefaultLedgers, cfg.Ledgers)

	// A second call must not clobber an edited file.
	path := filepath.Join(root, DirName, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ledgers:\n  - custom.jsonl\n"), 0o644))
	require.NoError(t, WriteDefaultConfig(root))
	assert.Equal(t, []string{"custom.jsonl"}, LoadLocalConfig(root).Ledgers)
}
