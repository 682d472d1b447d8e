package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prefstore/internal/logging"

	"github.com/BurntSushi/toml"
)

const defaultConfigPath = "~/.prefstore/config.toml"

type Config struct {
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
}

type StoreConfig struct {
	DataDir         string `toml:"data_dir"`
	Name            string `toml:"name"`
	LegacyMigration string `toml:"legacy_migration"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir: "~/.prefstore",
			Name:    "settings",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML config file and returns the parsed Config.
// If path is empty the default location is tried; a missing default file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = expandHome(defaultConfigPath)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks the fields that would otherwise fail later, at first
// store access.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Store.DataDir) == "" {
		errs = append(errs, errors.New("store.data_dir must not be empty"))
	}
	if err := validName("store.name", c.Store.Name, true); err != nil {
		errs = append(errs, err)
	}
	if err := validName("store.legacy_migration", c.Store.LegacyMigration, false); err != nil {
		errs = append(errs, err)
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func validName(field, name string, required bool) error {
	if name == "" {
		if required {
			return fmt.Errorf("%s must not be empty", field)
		}
		return nil
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%s: %q is not a plain file name", field, name)
	}
	return nil
}

// ExpandHome resolves a leading ~/ to the user's home directory.
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
