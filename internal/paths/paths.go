// Package paths resolves the configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppDir is the directory name used under the platform config and data roots.
const AppDir = "upkeep"

// Environment variables that override directory resolution.
const (
	EnvConfigDir = "UPKEEP_CONFIG_DIR"
	EnvDataDir   = "UPKEEP_DATA_DIR"
)

// platformDir holds platform lookups that tests override.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/upkeep (fallback ~/.config/upkeep)
// macOS:   ~/Library/Application Support/upkeep
// Windows: %APPDATA%/upkeep
func DefaultConfigDir() (string, error) {
	return platformPath("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/upkeep (fallback ~/.local/share/upkeep)
// macOS and Windows: same as DefaultConfigDir.
func DefaultDataDir() (string, error) {
	return platformPath("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func platformPath(xdgVar, homeRel string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppDir), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, AppDir), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppDir), nil
}

// ResolveConfigDir returns the configuration directory:
// flag > UPKEEP_CONFIG_DIR > DefaultConfigDir. The result is absolute.
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir returns the data directory:
// flag > UPKEEP_DATA_DIR > data_dir from config.yaml > DefaultDataDir.
// The result is absolute.
func ResolveDataDir(flag, configured string) (string, error) {
	return firstAbs(DefaultDataDir, flag, os.Getenv(EnvDataDir), configured)
}

func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}
