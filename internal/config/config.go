package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory under $HOME.
const DirName = ".tally"

// Global configuration structure.
type Global struct {
	// HTTP fetches
	HTTPTimeoutSec int   `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	MaxSourceBytes int64 `mapstructure:"max_source_bytes" yaml:"max_source_bytes"`

	// Output
	DefaultFormat string `mapstructure:"default_format" yaml:"default_format"`
	OtherLabel    string `mapstructure:"other_label" yaml:"other_label"`
	Color         bool   `mapstructure:"color" yaml:"color"`
	BarWidth      int    `mapstructure:"bar_width" yaml:"bar_width"`
	TitleCase     bool   `mapstructure:"title_case" yaml:"title_case"`

	// Recipes in this directory shadow built-ins with the same name.
	RecipesDir string `mapstructure:"recipes_dir" yaml:"recipes_dir"`
	Workers    int    `mapstructure:"workers" yaml:"workers"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Dir returns ~/.tally.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tally/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TALLY")
	v.AutomaticEnv()

	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("max_source_bytes", 32<<20)
	v.SetDefault("default_format", "text")
	v.SetDefault("other_label", "Other")
	v.SetDefault("color", true)
	v.SetDefault("bar_width", 40)
	v.SetDefault("title_case", false)
	v.SetDefault("recipes_dir", "")
	v.SetDefault("workers", 4)
	v.SetDefault("log_level", "warn")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.RecipesDir == "" {
		if dir, err := Dir(); err == nil {
			c.RecipesDir = filepath.Join(dir, "recipes")
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no command can work with.
func (c *Global) Validate() error {
	if c.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("http_timeout_sec must be > 0")
	}
	if c.MaxSourceBytes <= 0 {
		return fmt.Errorf("max_source_bytes must be > 0")
	}
	if c.BarWidth < 10 || c.BarWidth > 200 {
		return fmt.Errorf("bar_width must be between 10 and 200")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1")
	}
	if strings.TrimSpace(c.OtherLabel) == "" {
		return fmt.Errorf("other_label must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "off":
	default:
		return fmt.Errorf("invalid log_level %q (use debug|info|warn|error|off)", c.LogLevel)
	}
	return nil
}
