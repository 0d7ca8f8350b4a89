package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"quantify/internal/paths"
	"quantify/internal/qerrors"
)

// Config represents the complete quantify configuration
type Config struct {
	Version   int      `json:"version" mapstructure:"version"`
	Author    string   `json:"author" mapstructure:"author"`
	RootPaths []string `json:"rootPaths" mapstructure:"rootPaths"`

	// Exclusion overrides. A nil slice means "use built-in defaults"; a
	// non-nil slice fully replaces the defaults for that category (no
	// merging). Callers should warn the user when a replacement is active.
	ExcludeDirs       []string `json:"excludeDirs,omitempty" mapstructure:"excludeDirs"`
	ExcludeExtensions []string `json:"excludeExtensions,omitempty" mapstructure:"excludeExtensions"`
	ExcludeFilenames  []string `json:"excludeFilenames,omitempty" mapstructure:"excludeFilenames"`

	// IncludePatterns maps a project type name to allow-list globs that
	// replace the built-in patterns for that type.
	IncludePatterns map[string][]string `json:"includePatterns,omitempty" mapstructure:"includePatterns"`

	Workers           int           `json:"workers" mapstructure:"workers"`
	GitTimeoutSeconds int           `json:"gitTimeoutSeconds" mapstructure:"gitTimeoutSeconds"`
	Logging           LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:           1,
		Author:            "",
		RootPaths:         []string{},
		Workers:           8,
		GitTimeoutSeconds: 60,
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads the configuration from config.json in the per-user quantify
// directory. A missing file yields the defaults.
func Load() (*Config, error) {
	dir, err := paths.DataDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads the configuration from config.json in the given directory
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", 1)
	v.SetDefault("workers", 8)
	v.SetDefault("gitTimeoutSeconds", 60)
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.level", "info")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, qerrors.New(qerrors.ConfigInvalid, "failed to read config", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, qerrors.New(qerrors.ConfigInvalid, "failed to parse config", err)
	}

	return &cfg, nil
}

// Save writes the configuration to config.json in the given directory
func (c *Config) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, paths.ConfigFileName), data, 0o644)
}

// Validate checks if the configuration can drive an aggregation run
func (c *Config) Validate() error {
	if c.Author == "" {
		return qerrors.New(qerrors.ConfigInvalid, "author is required", nil)
	}
	if len(c.RootPaths) == 0 {
		return qerrors.New(qerrors.ConfigInvalid, "at least one root path is required", nil)
	}
	if c.Workers <= 0 {
		return qerrors.New(qerrors.ConfigInvalid, "workers must be positive", nil)
	}
	return nil
}

// OverriddenCategories reports which exclusion categories carry user
// overrides. Each override fully replaces the built-in defaults, which is
// surprising enough to warn about.
func (c *Config) OverriddenCategories() []string {
	var out []string
	if c.ExcludeDirs != nil {
		out = append(out, "excludeDirs")
	}
	if c.ExcludeExtensions != nil {
		out = append(out, "excludeExtensions")
	}
	if c.ExcludeFilenames != nil {
		out = append(out, "excludeFilenames")
	}
	return out
}
