package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the default data directory based on the host OS.
// It prefers standard locations when available and falls back to a dotdir
// in the user's home directory.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "jobq")
	}

	// Common Linux/Unix system dir
	if isDir("/var/lib") {
		return "/var/lib/jobq"
	}

	// macOS: ~/Library/Application Support/Jobq
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "Jobq")
	}

	// Windows: %USERPROFILE%/AppData/Local/Jobq
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "Jobq")
	}

	// Fallback: ~/.jobq
	return filepath.Join(homeDir, ".jobq")
}

// ResolveDataDir picks the broker's data directory: an explicit override
// wins, then the configured storage dir, then the OS default.
func ResolveDataDir(explicit string, cfg Config) string {
	if explicit != "" {
		return explicit
	}
	if cfg.Storage.DataDir != "" {
		return cfg.Storage.DataDir
	}
	return DefaultDataDir()
}

// ResolveStagingDir picks the staging directory: the configured dir, or a
// "staging" subdirectory of the data dir.
func ResolveStagingDir(cfg Config, dataDir string) string {
	if cfg.Staging.Dir != "" {
		return cfg.Staging.Dir
	}
	return filepath.Join(dataDir, "staging")
}

// StoreDir returns the Pebble store path inside the data dir.
func StoreDir(dataDir string) string { return filepath.Join(dataDir, "store") }

// LockFile returns the single-instance lock path inside the data dir.
func LockFile(dataDir string) string { return filepath.Join(dataDir, "jobq.lock") }

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
