package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	ferrors "github.com/Aman-CERP/scorefusion/internal/errors"
	"github.com/Aman-CERP/scorefusion/internal/logging"
	"github.com/Aman-CERP/scorefusion/internal/params"
	"github.com/Aman-CERP/scorefusion/internal/pipeline"
)

// Environment variables that override file values.
const (
	EnvNormalization = "SCOREFUSION_NORMALIZATION"
	EnvCombination   = "SCOREFUSION_COMBINATION"
	EnvWeights       = "SCOREFUSION_WEIGHTS"
	EnvLogLevel      = "SCOREFUSION_LOG_LEVEL"
)

// Config is the complete scorefusion configuration.
type Config struct {
	Normalization pipeline.TechniqueConfig `yaml:"normalization" json:"normalization"`
	Combination   pipeline.TechniqueConfig `yaml:"combination" json:"combination"`
	Logging       LoggingConfig            `yaml:"logging" json:"logging"`
	Cache         CacheConfig              `yaml:"cache" json:"cache"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// CacheConfig configures the validated pipeline cache.
type CacheConfig struct {
	// Size is the number of pipelines kept (default: 64).
	Size int `yaml:"size" json:"size"`
}

// NewConfig returns a configuration with defaults: min_max normalization,
// unweighted arithmetic mean, info-level JSON logs.
func NewConfig() *Config {
	def := pipeline.DefaultConfig()
	return &Config{
		Normalization: def.Normalization,
		Combination:   def.Combination,
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
		Cache: CacheConfig{Size: pipeline.DefaultCacheSize},
	}
}

// Pipeline returns the pipeline part of the configuration.
func (c *Config) Pipeline() pipeline.Config {
	return pipeline.Config{Normalization: c.Normalization, Combination: c.Combination}
}

// LoggingSetup returns the logging.Config for this configuration.
func (c *Config) LoggingSetup() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.FilePath = c.Logging.File
	return cfg
}

// GetUserConfigPath returns the path of the user configuration file:
//   - $XDG_CONFIG_HOME/scorefusion/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/scorefusion/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scorefusion", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "scorefusion", "config.yaml")
	}
	return filepath.Join(home, ".config", "scorefusion", "config.yaml")
}

// Load builds the configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (GetUserConfigPath), if present
//  3. The file at path, if path is non-empty (it must exist)
//  4. Environment variables (SCOREFUSION_*)
//
// The result is validated, including building the pipeline once.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if path != "" {
		if !fileExists(path) {
			return nil, ferrors.New(ferrors.ErrCodeConfigNotFound,
				fmt.Sprintf("config file not found: %s", path), nil).
				WithSuggestion("run 'scorefusion config init' to create one")
		}
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML parses path and merges its non-zero values into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return ferrors.IOError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return ferrors.ConfigError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c. A technique section
// that names a technique replaces the whole section, parameters included.
func (c *Config) mergeWith(other *Config) {
	if other.Normalization.Technique != "" {
		c.Normalization = other.Normalization
	} else if other.Normalization.Parameters != nil {
		c.Normalization.Parameters = other.Normalization.Parameters
	}
	if other.Combination.Technique != "" {
		c.Combination = other.Combination
	} else if other.Combination.Parameters != nil {
		c.Combination.Parameters = other.Combination.Parameters
	}

	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}

	if other.Cache.Size != 0 {
		c.Cache.Size = other.Cache.Size
	}
}

// applyEnvOverrides applies SCOREFUSION_* environment variable overrides.
// Malformed values are ignored.
func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvNormalization)); v != "" && v != c.Normalization.Technique {
		// bounds belong to min_max only
		c.Normalization = pipeline.TechniqueConfig{Technique: v}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCombination)); v != "" {
		c.Combination.Technique = v
	}
	if v := os.Getenv(EnvWeights); v != "" {
		if weights, err := parseWeightList(v); err == nil {
			if c.Combination.Parameters == nil {
				c.Combination.Parameters = map[string]any{}
			}
			c.Combination.Parameters[params.Weights] = weights
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
}

// parseWeightList parses "0.4,0.6".
func parseWeightList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	weights := make([]float64, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}
	return weights, nil
}

// Validate checks the configuration. Technique errors keep their own codes.
func (c *Config) Validate() error {
	if _, err := pipeline.New(c.Pipeline()); err != nil {
		return err
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return ferrors.ConfigError(
			fmt.Sprintf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level), nil)
	}
	switch strings.ToLower(c.Logging.Format) {
	case logging.FormatJSON, logging.FormatText:
	default:
		return ferrors.ConfigError(
			fmt.Sprintf("logging.format must be 'json' or 'text', got %s", c.Logging.Format), nil)
	}

	if c.Cache.Size < 0 {
		return ferrors.ConfigError(fmt.Sprintf("cache.size must be non-negative, got %d", c.Cache.Size), nil)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.IOError("failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.IOError("failed to write config file", err)
	}
	return nil
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, ferrors.InternalError("failed to marshal config", err)
	}
	return data, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
