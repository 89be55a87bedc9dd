// Package defaults resolves the platform data directory and embeds the
// bundled fallback manifest used when the Manifest Store cannot reach the
// Small-Model Client to generate one (spec §4.1 generate()).
//
// Platform paths:
//
//	macOS:   ~/Library/Application Support/Corvid/
//	Windows: %AppData%\Corvid\
//	Linux:   ~/.config/corvid/
//
// Override with CORVID_DATA_DIR.
package defaults

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

//go:embed dotcorvid/*
var bundled embed.FS

// DataDir returns the platform-appropriate data directory.
func DataDir() (string, error) {
	if dir := os.Getenv("CORVID_DATA_DIR"); dir != "" {
		return dir, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}

	if runtime.GOOS == "linux" {
		return filepath.Join(configDir, "corvid"), nil
	}
	return filepath.Join(configDir, "Corvid"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// BundledManifest returns the contents of the embedded fallback manifest
// (dotcorvid/manifest.yaml), used when Manifest.Generate cannot reach a
// small model and must fall back to a bundled default category set.
func BundledManifest() ([]byte, error) {
	return bundled.ReadFile("dotcorvid/manifest.yaml")
}

// BundledConfig returns the embedded default daemon configuration.
func BundledConfig() ([]byte, error) {
	return bundled.ReadFile("dotcorvid/config.yaml")
}
