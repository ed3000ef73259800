package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for config files whose extension is not recognised
var ErrUnknownFormat = errors.New("unknown config format")

// Config represents the nbtest configuration
type Config struct {
	Display             string            `json:"display,omitempty" yaml:"display,omitempty" toml:"display,omitempty"`
	Packages            []string          `json:"packages,omitempty" yaml:"packages,omitempty" toml:"packages,omitempty"`
	Run                 string            `json:"run,omitempty" yaml:"run,omitempty" toml:"run,omitempty"`
	Skip                string            `json:"skip,omitempty" yaml:"skip,omitempty" toml:"skip,omitempty"`
	Tags                []string          `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	Timeout             string            `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty"` // go duration, e.g. 10m
	Count               int               `json:"count,omitempty" yaml:"count,omitempty" toml:"count,omitempty"`
	Race                *bool             `json:"race,omitempty" yaml:"race,omitempty" toml:"race,omitempty"`
	Short               *bool             `json:"short,omitempty" yaml:"short,omitempty" toml:"short,omitempty"`
	Subtests            *bool             `json:"subtests,omitempty" yaml:"subtests,omitempty" toml:"subtests,omitempty"`
	NoColor             *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty" toml:"noColor,omitempty"`
	Verbose             *bool             `json:"verbose,omitempty" yaml:"verbose,omitempty" toml:"verbose,omitempty"`
	GoTool              string            `json:"goTool,omitempty" yaml:"goTool,omitempty" toml:"goTool,omitempty"`
	Dir                 string            `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	EnvFile             string            `json:"envFile,omitempty" yaml:"envFile,omitempty" toml:"envFile,omitempty"`
	Env                 map[string]string `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"` // passed to the test process
	MaxUpdatesPerSecond float64           `json:"maxUpdatesPerSecond,omitempty" yaml:"maxUpdatesPerSecond,omitempty" toml:"maxUpdatesPerSecond,omitempty"`
	Timings             int               `json:"timings,omitempty" yaml:"timings,omitempty" toml:"timings,omitempty"` // slowest tests to report
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetRace returns the race detector setting, defaulting to false
func (c *Config) GetRace() bool {
	return getBool(c.Race, false)
}

// GetShort returns the short mode setting, defaulting to false
func (c *Config) GetShort() bool {
	return getBool(c.Short, false)
}

// GetSubtests returns whether subtests are reported on their own, defaulting to false
func (c *Config) GetSubtests() bool {
	return getBool(c.Subtests, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// TimeoutDuration parses Timeout. An empty timeout is zero.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// ConfigFilenames contains the possible config file names, in search order
var ConfigFilenames = []string{
	".nbtest.yaml",
	".nbtest.yml",
	"nbtest.yaml",
	".nbtest.json",
	".nbtest.toml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

type format int

const (
	formatJSON format = iota
	formatYAML
	formatTOML
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return formatJSON, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".toml":
		return formatTOML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	doc, err := decodeDocument(data, f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := Validate(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	config := DefaultConfig()
	switch f {
	case formatJSON:
		err = json.Unmarshal(data, config)
	case formatYAML:
		err = yaml.Unmarshal(data, config)
	case formatTOML:
		err = toml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if _, err := config.TimeoutDuration(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// decodeDocument decodes a config file into a generic document for schema validation
func decodeDocument(data []byte, f format) (map[string]any, error) {
	doc := map[string]any{}
	var err error
	switch f {
	case formatJSON:
		err = json.Unmarshal(data, &doc)
	case formatYAML:
		err = yaml.Unmarshal(data, &doc)
	case formatTOML:
		err = toml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Display != "" {
		result.Display = other.Display
	}
	if len(other.Packages) > 0 {
		result.Packages = other.Packages
	}
	if other.Run != "" {
		result.Run = other.Run
	}
	if other.Skip != "" {
		result.Skip = other.Skip
	}
	if len(other.Tags) > 0 {
		result.Tags = other.Tags
	}
	if other.Timeout != "" {
		result.Timeout = other.Timeout
	}
	if other.Count > 0 {
		result.Count = other.Count
	}
	if other.GoTool != "" {
		result.GoTool = other.GoTool
	}
	if other.Dir != "" {
		result.Dir = other.Dir
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.MaxUpdatesPerSecond > 0 {
		result.MaxUpdatesPerSecond = other.MaxUpdatesPerSecond
	}
	if other.Timings > 0 {
		result.Timings = other.Timings
	}

	// Boolean flags - only override if explicitly set in other config
	if other.Race != nil {
		result.Race = other.Race
	}
	if other.Short != nil {
		result.Short = other.Short
	}
	if other.Subtests != nil {
		result.Subtests = other.Subtests
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}

	// Merge env
	if len(other.Env) > 0 {
		merged := make(map[string]string, len(c.Env)+len(other.Env))
		for k, v := range c.Env {
			merged[k] = v
		}
		for k, v := range other.Env {
			merged[k] = v
		}
		result.Env = merged
	}

	return &result
}
