package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/seamcarve/seamcarve"
)

// Config holds the defaults read from the configuration file.
// Flags set on the command line take precedence.
type Config struct {
	SeamColor string `toml:"seam_color"`
	Quality   int    `toml:"quality"`
	Workers   int    `toml:"workers"`
	Report    bool   `toml:"report"`
}

func defaultConfig() Config {
	return Config{
		SeamColor: "#ff0000",
		Quality:   seamcarve.DefaultQuality,
		Workers:   runtime.NumCPU(),
	}
}

// defaultConfigPath returns $XDG_CONFIG_HOME/seamcarve/config.toml,
// falling back to ~/.config when the variable is not set.
func defaultConfigPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "seamcarve", "config.toml")
}

// loadConfig reads the configuration file at path, or the default one when path is empty.
// A missing default file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		if path = defaultConfigPath(); path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
