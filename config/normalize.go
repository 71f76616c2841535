package config

import (
	"path/filepath"
	"strings"
)

// Normalize applies post-validation normalization.
// It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Storage.Medium = strings.ToLower(cfg.Storage.Medium)
	if cfg.Storage.Path != "" {
		cfg.Storage.Path = filepath.Clean(cfg.Storage.Path)
	}
	for i, name := range cfg.Catalog.Names {
		cfg.Catalog.Names[i] = strings.TrimSpace(name)
	}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
}

// MinimumFreeBytes returns the free-space floor in bytes
func (s StorageConfig) MinimumFreeBytes() uint64 {
	return s.MinimumFreeMB * 1024 * 1024
}
