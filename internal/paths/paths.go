// Package paths resolves the per-user quantify directory that holds the
// configuration file and the persistent stats cache. The directory lives
// outside any working tree so cached data survives across checkouts.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
)

const (
	// DirName is the per-user quantify directory under $HOME
	DirName = ".quantify"
	// ConfigFileName is the configuration file inside DataDir
	ConfigFileName = "config.json"
	// CacheDBName is the SQLite stats cache inside DataDir
	CacheDBName = "stats_cache.db"
)

// envDataDir overrides the data dir location, mainly for tests.
const envDataDir = "QUANTIFY_DIR"

// DataDir returns the per-user quantify directory without creating it
func DataDir() (string, error) {
	if dir := os.Getenv(envDataDir); dir != "" {
		return dir, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// EnsureDataDir returns the per-user quantify directory, creating it if needed
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

// ConfigPath returns the location of the configuration file
func ConfigPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// CacheDBPath returns the location of the stats cache database
func CacheDBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, CacheDBName), nil
}
