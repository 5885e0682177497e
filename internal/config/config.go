// Package config loads evsloty configuration from JSONC files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	HistoryFile      string `json:"history_file,omitempty"`
	SnapshotFile     string `json:"snapshot_file,omitempty"`
	SpinsBeforeYield int    `json:"spins_before_yield,omitempty"`
	StressReaders    int    `json:"stress_readers,omitempty"`
	StressWrites     int    `json:"stress_writes,omitempty"`
	StressKeys       int    `json:"stress_keys,omitempty"`

	// Resolved working directory (from -C flag or os.Getwd)
	EffectiveCwd string `json:"-"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		StressReaders: 4,
		StressWrites:  10000,
		StressKeys:    16,
	}
}

// FileName is the default project config file name.
const FileName = ".evsloty.json"

// historyFileName is placed in $HOME when no history_file is configured.
const historyFileName = ".evsloty_history"

// globalPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/evsloty/config.json if set, otherwise
// ~/.config/evsloty/config.json. Returns "" if neither is known.
func globalPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "evsloty", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "evsloty", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath string            // -c/--config flag value
	Overrides  Config            // non-zero fields win over every file
	Env        map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config ($XDG_CONFIG_HOME/evsloty/config.json)
// 3. Project config file (.evsloty.json, if it exists)
// 4. Explicit config file via ConfigPath (replaces 3)
// 5. Overrides from CLI flags.
//
// File paths in the returned Config are absolute.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	if path := globalPath(input.Env); path != "" {
		globalCfg, loaded, err := loadFile(path, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg = merge(cfg, globalCfg)
			cfg.Sources.Global = path
		}
	}

	projectCfg, projectPath, err := loadProject(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg = merge(cfg, projectCfg)
	cfg.Sources.Project = projectPath

	cfg = merge(cfg, input.Overrides)

	err = validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	if cfg.HistoryFile == "" {
		if home := input.Env["HOME"]; home != "" {
			cfg.HistoryFile = filepath.Join(home, historyFileName)
		}
	} else {
		cfg.HistoryFile = resolve(workDir, cfg.HistoryFile)
	}

	if cfg.SnapshotFile != "" {
		cfg.SnapshotFile = resolve(workDir, cfg.SnapshotFile)
	}

	return cfg, nil
}

// loadProject loads .evsloty.json from workDir, or configPath if given.
func loadProject(workDir, configPath string) (Config, string, error) {
	path := filepath.Join(workDir, FileName)
	mustExist := false

	if configPath != "" {
		path = resolve(workDir, configPath)
		mustExist = true

		_, statErr := os.Stat(path)
		if statErr != nil {
			return Config{}, "", fmt.Errorf("%w: %s", ErrFileNotFound, configPath)
		}
	}

	cfg, loaded, err := loadFile(path, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	return cfg, path, nil
}

// loadFile loads a config file. If mustExist is false, a missing file
// returns a zero config and loaded=false.
func loadFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s", ErrFileRead, path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}

	return cfg, true, nil
}

// Parse decodes a JSONC config document. Comments and trailing commas are
// allowed; unknown fields are rejected.
func Parse(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	err = dec.Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.HistoryFile != "" {
		base.HistoryFile = overlay.HistoryFile
	}

	if overlay.SnapshotFile != "" {
		base.SnapshotFile = overlay.SnapshotFile
	}

	if overlay.SpinsBeforeYield != 0 {
		base.SpinsBeforeYield = overlay.SpinsBeforeYield
	}

	if overlay.StressReaders != 0 {
		base.StressReaders = overlay.StressReaders
	}

	if overlay.StressWrites != 0 {
		base.StressWrites = overlay.StressWrites
	}

	if overlay.StressKeys != 0 {
		base.StressKeys = overlay.StressKeys
	}

	return base
}

func validate(cfg Config) error {
	positive := []struct {
		name  string
		value int
	}{
		{"stress_readers", cfg.StressReaders},
		{"stress_writes", cfg.StressWrites},
		{"stress_keys", cfg.StressKeys},
	}

	for _, f := range positive {
		if f.value < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidValue, f.name, f.value)
		}
	}

	return nil
}

func resolve(workDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workDir, path)
}

// Format renders cfg as indented JSON, including resolved paths.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}

	return string(data), nil
}
