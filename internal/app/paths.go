package app

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the per-user cache and config directories.
const AppName = "restyle"

// DefaultServeAddr is where the HTTP surface listens by default.
const DefaultServeAddr = "127.0.0.1:8501"

// DefaultCacheDir returns the per-user classification cache directory.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName, "llm")
}

// DefaultConfigFile returns the per-user config file path. It may not exist.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// manifestPath returns the sidecar path next to the output document.
func manifestPath(outputPath string) string {
	return outputPath + ".manifest.json"
}
