package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the optional fdcopy configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults. Nil means "not set".
type DefaultsConfig struct {
	Strategy   *string `toml:"strategy"`
	Facility   *string `toml:"facility"`
	BufferSize *string `toml:"buffer_size"`
	ChunkSize  *string `toml:"chunk_size"`
	BWLimit    *string `toml:"bwlimit"`
	Atomic     *bool   `toml:"atomic"`
	Verify     *bool   `toml:"verify"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "fdcopy", "config.toml")
}

// Load reads the config file from the XDG path. Returns a zero Config
// (no error) if the file does not exist. Config is always optional.
func Load() (Config, error) {
	path := Path()
	if path == "" {
		return Config{}, nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file from an explicit path. A missing file yields a
// zero Config. Keys fdcopy does not know are an error so that typos do not
// pass silently.
func LoadFile(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
