// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Session SessionConfig `toml:"session"`
	Analyze AnalyzeConfig `toml:"analyze"`
	Log     LogConfig     `toml:"log"`
}

// SessionConfig maps experiment settings.
type SessionConfig struct {
	Name        *string  `toml:"name"`
	Device      *string  `toml:"device"`
	Trials      *int     `toml:"trials"`
	Width       *int     `toml:"width"`
	Height      *int     `toml:"height"`
	Hold        *float64 `toml:"hold"`
	MinDistance *float64 `toml:"min-distance"`
	RadiusMin   *int     `toml:"radius-min"`
	RadiusMax   *int     `toml:"radius-max"`
	FPS         *int     `toml:"fps"`
	OutDir      *string  `toml:"out-dir"`
}

// AnalyzeConfig maps batch analysis settings.
type AnalyzeConfig struct {
	DefaultQuantile *float64           `toml:"default-quantile"`
	Quantiles       map[string]float64 `toml:"quantiles"`
	XMin            *float64           `toml:"x-min"`
	XMax            *float64           `toml:"x-max"`
	YMin            *float64           `toml:"y-min"`
	YMax            *float64           `toml:"y-max"`
	Out             *string            `toml:"out"`
}

// LogConfig maps diagnostic logging settings.
type LogConfig struct {
	Level      *string `toml:"level"`
	File       *string `toml:"file"`
	MaxSize    *int    `toml:"max-size"`
	MaxBackups *int    `toml:"max-backups"`
	MaxAge     *int    `toml:"max-age"`
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
