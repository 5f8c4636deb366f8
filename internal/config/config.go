// Package config resolves where trackers live and how the CLI behaves.
//
// Sources, later ones winning: built-in defaults, the YAML file in the user
// config directory, the nearest .env.local, then the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DBPath         string `yaml:"db_path"`
	LogLevel       string `yaml:"log_level"`
	Output         string `yaml:"output"`
	DefaultTracker string `yaml:"default_tracker"`

	// NotifyTime is the reminder time ("HH:MM") given to new questionnaires
	NotifyTime string `yaml:"notify_time" validate:"omitempty,datetime=15:04"`
	// BundleDir is where bundles are written and read when no path is given
	BundleDir string `yaml:"bundle_dir" validate:"required"`
}

const (
	// LocalDBPath is the project-local database; it wins over the
	// per-user database when it exists in the working directory.
	LocalDBPath = ".wilds/wilds.db"

	envLocalFile = ".env.local"
	appDir       = "wilds"
)

// binding maps an environment variable (and its _FILE variant, if any) onto
// a config field
type binding struct {
	env      string
	fromFile bool
	field    func(*Config) *string
}

var bindings = []binding{
	{"WILDS_DB_PATH", true, func(c *Config) *string { return &c.DBPath }},
	{"WILDS_LOG_LEVEL", false, func(c *Config) *string { return &c.LogLevel }},
	{"WILDS_OUTPUT", false, func(c *Config) *string { return &c.Output }},
	{"WILDS_TRACKER", false, func(c *Config) *string { return &c.DefaultTracker }},
	{"WILDS_NOTIFY_TIME", false, func(c *Config) *string { return &c.NotifyTime }},
	{"WILDS_BUNDLE_DIR", false, func(c *Config) *string { return &c.BundleDir }},
}

var validate = validator.New()

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		LogLevel:   "info",
		Output:     "table",
		NotifyTime: "20:00",
		BundleDir:  ".wilds-bundle",
	}
}

// Load builds the configuration from every source. A config file that
// exists but does not parse is an error; a missing one is not.
func Load() (*Config, error) {
	cfg := Defaults()

	if path, err := userPath("XDG_CONFIG_HOME", ".config", "config.yaml"); err == nil {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}

	// godotenv never overrides variables already set in the environment
	if path := findUp(envLocalFile); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	for _, b := range bindings {
		if v := lookup(b); v != "" {
			*b.field(cfg) = v
		}
	}

	if cfg.DBPath == "" {
		path, err := defaultDBPath()
		if err != nil {
			return nil, err
		}
		cfg.DBPath = path
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// lookup reads a binding from the environment. The plain variable wins
// over the _FILE variant; an unreadable file counts as unset.
func lookup(b binding) string {
	if v := os.Getenv(b.env); v != "" {
		return v
	}
	if !b.fromFile {
		return ""
	}
	path := os.Getenv(b.env + "_FILE")
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func defaultDBPath() (string, error) {
	if _, err := os.Stat(LocalDBPath); err == nil {
		return LocalDBPath, nil
	}
	path, err := userPath("XDG_DATA_HOME", filepath.Join(".local", "share"), "wilds.db")
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return path, nil
}

// userPath returns <$xdgVar or ~/fallback>/wilds/name
func userPath(xdgVar, fallback, name string) (string, error) {
	if base := os.Getenv(xdgVar); base != "" {
		return filepath.Join(base, appDir, name), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, appDir, name), nil
}

// findUp returns the nearest file called name in the working directory or
// one of its parents, stopping after the home directory. Empty if none.
func findUp(name string) string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	home, _ := os.UserHomeDir()
	home = filepath.Clean(home)

	for dir = filepath.Clean(dir); ; {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if dir == home || parent == dir {
			return ""
		}
		dir = parent
	}
}
