// Package config handles Storypane configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Project overlay file (<project>/.storypane.toml)
//  2. Environment variables (STORYPANE_*)
//  3. Config file (~/.config/storypane/config.yaml)
//  4. Built-in defaults
//
// The supervisor re-reads configuration on every start request, so edits
// take effect on the next explicit start rather than mid-lifecycle.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// DefaultTool is the dev-server tool supervised by default.
	DefaultTool = "storybook"
	// DefaultPort is Storybook's conventional dev-server port.
	DefaultPort = 6006
	// DefaultInactivityMinutes is how long an idle server lives before auto-stop.
	DefaultInactivityMinutes = 5

	// MinInactivityMinutes and MaxInactivityMinutes bound the configured timeout.
	MinInactivityMinutes = 1
	MaxInactivityMinutes = 60
)

// ProjectOverlayName is the per-project configuration file read from the
// project directory.
const ProjectOverlayName = ".storypane.toml"

// Config holds the Storypane configuration.
type Config struct {
	v *viper.Viper
}

// ProjectOverlay mirrors the keys a project may pin in .storypane.toml.
type ProjectOverlay struct {
	Tool              string `toml:"tool,omitempty"`
	Dir               string `toml:"dir,omitempty"`
	Port              int    `toml:"port,omitempty"`
	InactivityMinutes int    `toml:"inactivity_minutes,omitempty"`
}

// Load reads configuration from all sources.
func Load() *Config {
	v := viper.New()

	// Set defaults
	v.SetDefault("storybook.tool", DefaultTool)
	v.SetDefault("storybook.dir", ".")
	v.SetDefault("storybook.port", DefaultPort)
	v.SetDefault("server.inactivity_minutes", DefaultInactivityMinutes)

	// Config file location
	home, err := os.UserHomeDir()
	if err == nil {
		configDir := filepath.Join(home, ".config", "storypane")
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("STORYPANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found, but warn on other errors)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Warning: error reading config file: %v\n", err)
		}
	}

	return &Config{v: v}
}

// ApplyProjectOverlay merges <dir>/.storypane.toml on top of the loaded
// configuration. A missing overlay file is not an error.
func (c *Config) ApplyProjectOverlay(dir string) error {
	path := filepath.Join(dir, ProjectOverlayName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("read %s: %w", path, err)
	}

	var overlay ProjectOverlay
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if overlay.Tool != "" {
		c.v.Set("storybook.tool", overlay.Tool)
	}

	if overlay.Dir != "" {
		c.v.Set("storybook.dir", overlay.Dir)
	}

	if overlay.Port != 0 {
		c.v.Set("storybook.port", overlay.Port)
	}

	if overlay.InactivityMinutes != 0 {
		c.v.Set("server.inactivity_minutes", overlay.InactivityMinutes)
	}

	return nil
}

// Get returns a configuration value.
func (c *Config) Get(key string) interface{} {
	return c.v.Get(key)
}

// GetString returns a configuration value as string.
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt returns a configuration value as int.
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// Set sets a configuration value and persists it.
func (c *Config) Set(key string, value interface{}) error {
	c.v.Set(key, value)

	// Ensure config directory exists
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configDir := filepath.Join(home, ".config", "storypane")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	configFile := filepath.Join(configDir, "config.yaml")
	return c.v.WriteConfigAs(configFile)
}

// All returns all configuration as a map.
func (c *Config) All() map[string]interface{} {
	return c.v.AllSettings()
}

// Tool returns the configured dev-server tool name.
func (c *Config) Tool() string {
	return c.GetString("storybook.tool")
}

// ProjectDir returns the configured project directory.
func (c *Config) ProjectDir() string {
	return c.GetString("storybook.dir")
}

// Port returns the configured dev-server port.
func (c *Config) Port() int {
	return c.GetInt("storybook.port")
}

// InactivityTimeout returns the idle auto-stop duration, clamped to the
// allowed 1–60 minute range.
func (c *Config) InactivityTimeout() time.Duration {
	minutes := c.GetInt("server.inactivity_minutes")

	if minutes < MinInactivityMinutes {
		minutes = MinInactivityMinutes
	}

	if minutes > MaxInactivityMinutes {
		minutes = MaxInactivityMinutes
	}

	return time.Duration(minutes) * time.Minute
}
