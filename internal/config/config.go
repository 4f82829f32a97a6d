package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/hochfrequenz/stem-splitter/internal/domain"
)

// Config holds all application configuration
type Config struct {
	Tool          ToolConfig          `toml:"tool"`
	Defaults      DefaultsConfig      `toml:"defaults"`
	Notifications NotificationsConfig `toml:"notifications"`
	Log           LogConfig           `toml:"log"`
	Watch         WatchConfig         `toml:"watch"`
}

// ToolConfig describes the separation tool
type ToolConfig struct {
	Binary   string   `toml:"binary"`
	Args     []string `toml:"args"`
	ModelDir string   `toml:"model_dir"`
}

// DefaultsConfig holds the values the form starts with
type DefaultsConfig struct {
	Stem      string `toml:"stem"`
	OutputDir string `toml:"output_dir"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop bool `toml:"desktop"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	File   string `toml:"file"`
	Format string `toml:"format"`
}

// WatchConfig holds settings for the inbox watcher
type WatchConfig struct {
	Debounce string `toml:"debounce"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Tool: ToolConfig{
			Binary:   "demucs",
			ModelDir: "htdemucs",
		},
		Defaults: DefaultsConfig{
			Stem: domain.DefaultStemLabel(),
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Log: LogConfig{
			Level:  "info",
			File:   filepath.Join(configDir(), "stem-splitter.log"),
			Format: "text",
		},
		Watch: WatchConfig{
			Debounce: "2s",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}

	// Expand paths
	cfg.Defaults.OutputDir = ExpandPath(cfg.Defaults.OutputDir)
	cfg.Log.File = ExpandPath(cfg.Log.File)
	cfg.Tool.Binary = ExpandPath(cfg.Tool.Binary)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail much later
func (c *Config) Validate() error {
	if c.Defaults.Stem != "" {
		if _, err := domain.ParseStem(c.Defaults.Stem); err != nil {
			return errors.Wrap(err, "defaults.stem")
		}
	}
	if _, err := c.DebounceDuration(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.Newf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// DefaultStemLabel returns the configured default stem as a dropdown label
func (c *Config) DefaultStemLabel() string {
	stem, err := domain.ParseStem(c.Defaults.Stem)
	if err != nil {
		return domain.DefaultStemLabel()
	}
	return stem.Label()
}

// DebounceDuration parses watch.debounce
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Watch.Debounce == "" {
		return 2 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 0, errors.Wrap(err, "watch.debounce")
	}
	return d, nil
}

// Save writes the configuration to a TOML file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}

	return os.WriteFile(path, data, 0644)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	if d := os.Getenv("STEM_SPLITTER_CONFIG_DIR"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stem-splitter")
}
