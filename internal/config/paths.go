package config

import (
	"os"
	"path/filepath"
)

// DataDir returns ~/.formcheck, or ./.formcheck when no home directory is known.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".formcheck"
	}
	return filepath.Join(home, ".formcheck")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "formcheck.db")
}

// DefaultHooksDir returns the directory scanned for hook manifests.
func DefaultHooksDir() string {
	return filepath.Join(DataDir(), "hooks")
}

// DefaultConfigPath returns the default YAML config path.
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}
