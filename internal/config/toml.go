// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Log    LogConfig    `toml:"log"`
	Report ReportConfig `toml:"report"`
}

// LogConfig maps settings for locating and reading time logs.
type LogConfig struct {
	DataDir      *string `toml:"data-dir"`
	IgnoredWeeks []int   `toml:"ignored-weeks"`
}

// ReportConfig maps report and chart settings.
type ReportConfig struct {
	ChartWidth  *int    `toml:"chart-width"`
	ChartHeight *int    `toml:"chart-height"`
	Color       *bool   `toml:"color"`
	WeekCount   *string `toml:"week-count"`
	LogLevel    *string `toml:"log-level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if cfg.Log.DataDir != nil {
		expanded := ExpandHome(*cfg.Log.DataDir)
		cfg.Log.DataDir = &expanded
	}
	return cfg, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
