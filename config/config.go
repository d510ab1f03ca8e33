// Package config handles avm.toml player configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file looked up by Load and FindAndLoad.
const FileName = "avm.toml"

// Storage backend names.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendSQLite = "sqlite"
)

// Config represents an avm.toml player configuration.
type Config struct {
	Player  Player  `toml:"player"`
	Limits  Limits  `toml:"limits"`
	Storage Storage `toml:"storage"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the avm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Player describes the emulated player and the movie it runs.
type Player struct {
	Version    uint8   `toml:"version"`
	SwfVersion uint8   `toml:"swf_version"`
	FrameRate  float64 `toml:"frame_rate"`
	MovieURL   string  `toml:"movie_url"`
}

// Limits bounds script execution.
type Limits struct {
	MaxRecursionDepth int `toml:"max_recursion_depth"`
	// MaxActionsPerRun of 0 disables the action budget.
	MaxActionsPerRun *int `toml:"max_actions_per_run"`
	Avm2MaxCallDepth int  `toml:"avm2_max_call_depth"`
}

// Storage selects where SharedObjects persist.
type Storage struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	Origin  string `toml:"origin"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no avm.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Parse decodes an avm.toml document and applies defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if _, err := toml.Decode(string(data), &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load parses the avm.toml file in the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir to find an avm.toml file, then loads
// it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

func (c *Config) applyDefaults() {
	if c.Player.Version == 0 {
		c.Player.Version = 32
	}
	if c.Player.SwfVersion == 0 {
		c.Player.SwfVersion = 10
	}
	if c.Player.FrameRate <= 0 {
		c.Player.FrameRate = 24
	}
	if c.Limits.MaxRecursionDepth <= 0 {
		c.Limits.MaxRecursionDepth = 256
	}
	if c.Limits.MaxActionsPerRun == nil {
		n := 1_000_000
		c.Limits.MaxActionsPerRun = &n
	}
	if c.Limits.Avm2MaxCallDepth <= 0 {
		c.Limits.Avm2MaxCallDepth = 256
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendMemory
	}
	if c.Storage.Origin == "" {
		c.Storage.Origin = "localhost"
	}
}

// Validate reports settings the player cannot honor.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendDisk, BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage backend %q needs a path", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if *c.Limits.MaxActionsPerRun < 0 {
		return fmt.Errorf("max_actions_per_run must not be negative")
	}
	return nil
}

// MaxActions returns the per-run action budget; 0 means unlimited.
func (l Limits) MaxActions() int {
	if l.MaxActionsPerRun == nil {
		return 0
	}
	return *l.MaxActionsPerRun
}

// StoragePath resolves the storage path against the config directory.
func (c *Config) StoragePath() string {
	if c.Storage.Path == "" || filepath.IsAbs(c.Storage.Path) || c.Dir == "" {
		return c.Storage.Path
	}
	return filepath.Join(c.Dir, c.Storage.Path)
}
