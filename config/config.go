package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/k1LoW/expand"
)

const (
	DefaultOutputName = "screenshots.pdf"
	DefaultResolution = 100.0
)

var (
	homePath       string
	configHomePath string
	stateHomePath  string
)

type Config struct {
	// Directory where screenshots are stored and scanned
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
	// Path of the PDF file to create
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
	// Resolution (DPI) written to the PDF pages
	Resolution float64 `yaml:"resolution,omitempty" json:"resolution,omitempty"`
	// CEL conditions; a page is skipped if any of them is true
	Skip []string `yaml:"skip,omitempty" json:"skip,omitempty"`
	// Whether to drop pages equivalent to the previous page
	Dedupe *bool `yaml:"dedupe,omitempty" json:"dedupe,omitempty"`
	// User-Agent used when capturing pages
	UserAgent string `yaml:"userAgent,omitempty" json:"userAgent,omitempty"`
}

func init() {
	var err error
	homePath, err = os.UserHomeDir()
	if err != nil {
		panic(fmt.Sprintf("failed to get home directory: %v", err))
	}
}

// Load loads the configuration from the config file.
// It searches for config files in the following order:
// 1. $XDG_CONFIG_HOME/shotpdf/config-{profile}.yml
// 2. $XDG_CONFIG_HOME/shotpdf/config.yml
// If no config file is found, it returns an empty Config struct.
// Environment variables in the file are expanded before parsing.
func Load(profile string) (*Config, error) {
	var configBasePaths []string
	if profile != "" {
		configBasePaths = append(configBasePaths, filepath.Join(configPath(), fmt.Sprintf("config-%s", profile)))
	}
	configBasePaths = append(configBasePaths, filepath.Join(configPath(), "config"))
	cfg := &Config{}
	for _, basePath := range configBasePaths {
		for _, ext := range []string{".yml", ".yaml"} {
			p := basePath + ext
			if b, err := os.ReadFile(p); err == nil {
				if err := yaml.Unmarshal(expand.ExpandenvYAMLBytes(b), cfg); err != nil {
					return nil, fmt.Errorf("failed to unmarshal config %s: %w", p, err)
				}
				return cfg, nil
			}
		}
	}
	// If no config file is found, return an empty config
	return cfg, nil
}

// ScreenshotDir returns the screenshot directory, falling back to the current directory.
func (c *Config) ScreenshotDir() string {
	if c == nil || c.Dir == "" {
		return "."
	}
	return c.Dir
}


func (c *Config) PageResolution() float64 {
	if c == nil || c.Resolution <= 0 {
		return DefaultResolution
	}
	return c.Resolution
}

// ConfigPath returns the path to the configuration directory.
func ConfigPath() string {
	return configPath()
}

func configPath() string {
	if configHomePath != "" {
		return configHomePath
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		configHomePath = filepath.Join(v, "shotpdf")
	} else {
		configHomePath = filepath.Join(homePath, ".config", "shotpdf")
	}
	return configHomePath
}

func StateHomePath() string {
	if stateHomePath != "" {
		return stateHomePath
	}
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		stateHomePath = filepath.Join(v, "shotpdf")
	} else {
		stateHomePath = filepath.Join(homePath, ".local", "state", "shotpdf")
	}
	return stateHomePath
}
