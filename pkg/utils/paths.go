package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	appDirName = "moodlog"
	dbFileName = "moodlog.db"
)

// GetDefaultDBPathOnly returns a system-appropriate default path for the database
func GetDefaultDBPathOnly() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return dbFileName
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(homeDir, "AppData", "Roaming", appDirName, dbFileName)
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appDirName, dbFileName)
	default: // Primarily Linux, but also other UNIX-like systems.
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName, dbFileName)
		}
		return filepath.Join(homeDir, ".local", "share", appDirName, dbFileName)
	}
}

// ResolveAndEnsureDBPath expands providedPath (or the default path when it is
// empty) to an absolute path and creates its parent directory.
func ResolveAndEnsureDBPath(providedPath string) (string, error) {
	targetPath := providedPath
	if targetPath == "" {
		targetPath = GetDefaultDBPathOnly()
	}

	if strings.HasPrefix(targetPath, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory to expand path '%s': %w", targetPath, err)
		}
		targetPath = filepath.Join(homeDir, targetPath[2:])
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", targetPath, err)
	}
	targetPath = absPath

	dbDir := filepath.Dir(targetPath)
	if _, err := os.Stat(dbDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory '%s' for database: %w", dbDir, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("failed to stat directory '%s' for database: %w", dbDir, err)
	}

	return targetPath, nil
}
