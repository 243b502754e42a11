// Package config provides configuration loading and management for larascan.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete larascan configuration.
type Config struct {
	App    AppConfig    `yaml:"app"`
	Scan   ScanConfig   `yaml:"scan"`
	Output OutputConfig `yaml:"output"`
	Watch  WatchConfig  `yaml:"watch"`
}

// AppConfig describes the documented API.
type AppConfig struct {
	// Title is the OpenAPI document title
	Title string `yaml:"title"`
	// Description is the OpenAPI document description
	Description string `yaml:"description"`
	// Version is the documented API version
	Version string `yaml:"version"`
	// Servers lists server URLs for the OpenAPI document
	Servers []string `yaml:"servers"`
}

// ScanConfig configures source discovery and analysis.
type ScanConfig struct {
	// Root is the Laravel application root (default: current directory)
	Root string `yaml:"root"`
	// RouteFiles are glob patterns for route files, relative to Root
	RouteFiles []string `yaml:"route_files"`
	// ClassGlobs are glob patterns for controller and request classes
	ClassGlobs []string `yaml:"class_globs"`
	// Workers is the number of concurrent analysis workers (default: NumCPU)
	Workers int `yaml:"workers"`
}

// OutputConfig configures spec generation.
type OutputConfig struct {
	// Path is where the OpenAPI document is written
	Path string `yaml:"path"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long to wait for more changes before regenerating
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Title:   "Laravel API",
			Version: "1.0.0",
		},
		Scan: ScanConfig{
			Root:       ".",
			RouteFiles: []string{"routes/api.php", "routes/web.php"},
			ClassGlobs: []string{"app/**/*.php"},
			Workers:    runtime.NumCPU(),
		},
		Output: OutputConfig{
			Path: "openapi.v3.yaml",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.App.Title == "" {
		return fmt.Errorf("app.title is required")
	}
	if c.Scan.Root == "" {
		return fmt.Errorf("scan.root is required")
	}
	if len(c.Scan.RouteFiles) == 0 {
		return fmt.Errorf("scan.route_files must not be empty")
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output.path is required")
	}
	return nil
}

// Merge overlays non-zero fields from other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.App.Title != "" {
		c.App.Title = other.App.Title
	}
	if other.App.Description != "" {
		c.App.Description = other.App.Description
	}
	if other.App.Version != "" {
		c.App.Version = other.App.Version
	}
	if len(other.App.Servers) > 0 {
		c.App.Servers = other.App.Servers
	}
	if other.Scan.Root != "" {
		c.Scan.Root = other.Scan.Root
	}
	if len(other.Scan.RouteFiles) > 0 {
		c.Scan.RouteFiles = other.Scan.RouteFiles
	}
	if len(other.Scan.ClassGlobs) > 0 {
		c.Scan.ClassGlobs = other.Scan.ClassGlobs
	}
	if other.Scan.Workers > 0 {
		c.Scan.Workers = other.Scan.Workers
	}
	if other.Output.Path != "" {
		c.Output.Path = other.Output.Path
	}
	if other.Watch.Debounce > 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}
