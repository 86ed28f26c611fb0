// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/hovercard/internal/placement"
)

// Default configuration values.
const (
	DefaultTUIGap        = 1
	DefaultTUIMargin     = 1
	DefaultTileWidth     = 24
	DefaultTileHeight    = 3
	DefaultBusName       = "io.github.jmylchreest.Hovercard"
	DefaultOutputFormat  = "plain"
	DefaultPlainTemplate = ""
)

// Config represents the hovercard configuration.
type Config struct {
	Placement PlacementConfig `toml:"placement"`
	TUI       TUIConfig       `toml:"tui"`
	Cards     CardsConfig     `toml:"cards"`
	Output    OutputConfig    `toml:"output"`
	DBus      DBusConfig      `toml:"dbus"`
	HTTP      HTTPConfig      `toml:"http"`
}

// PlacementConfig holds placement engine options.
type PlacementConfig struct {
	Gap      int      `toml:"gap"`      // Space between trigger and popover
	Margin   int      `toml:"margin"`   // Minimum distance from viewport edges
	Priority []string `toml:"priority"` // Sides to try in order
}

// TUIConfig holds TUI-specific settings. Units are terminal cells.
type TUIConfig struct {
	Placement  PlacementConfig `toml:"placement"`
	TileWidth  int             `toml:"tile_width"`
	TileHeight int             `toml:"tile_height"`
	ShowHelp   bool            `toml:"show_help"`
	Mouse      bool            `toml:"mouse"`
}

// CardsConfig holds card catalog settings.
type CardsConfig struct {
	Dir string `toml:"dir"` // Extra card templates (empty = default)
}

// OutputConfig holds CLI output defaults.
type OutputConfig struct {
	Format        string `toml:"format"`         // plain, json, yaml
	PlainTemplate string `toml:"plain_template"` // Optional text/template for plain output
}

// DBusConfig holds placement service settings.
type DBusConfig struct {
	BusName string `toml:"bus_name"`
}

// HTTPConfig holds the optional HTTP placement API served by hovercardd.
type HTTPConfig struct {
	Listen string `toml:"listen"` // host:port, empty disables the API
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Placement: PlacementConfig{
			Gap:      placement.DefaultGap,
			Margin:   placement.DefaultMargin,
			Priority: defaultPriority(),
		},
		TUI: TUIConfig{
			Placement: PlacementConfig{
				Gap:      DefaultTUIGap,
				Margin:   DefaultTUIMargin,
				Priority: defaultPriority(),
			},
			TileWidth:  DefaultTileWidth,
			TileHeight: DefaultTileHeight,
			ShowHelp:   true,
			Mouse:      true,
		},
		Cards: CardsConfig{
			Dir: "", // Use CardsDir()
		},
		Output: OutputConfig{
			Format:        DefaultOutputFormat,
			PlainTemplate: DefaultPlainTemplate,
		},
		DBus: DBusConfig{
			BusName: DefaultBusName,
		},
	}
}

func defaultPriority() []string {
	sides := placement.DefaultPriority()
	names := make([]string, len(sides))
	for i, s := range sides {
		names[i] = string(s)
	}
	return names
}

// Options converts the section into placement options.
func (p PlacementConfig) Options() (placement.Options, error) {
	priority, err := placement.ParsePriority(p.Priority)
	if err != nil {
		return placement.Options{}, err
	}
	return placement.Options{
		Gap:      p.Gap,
		Margin:   p.Margin,
		Priority: priority,
	}, nil
}

// Validate checks the section for usable values.
func (p PlacementConfig) Validate() error {
	if p.Gap < 0 {
		return fmt.Errorf("gap must not be negative, got %d", p.Gap)
	}
	if p.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", p.Margin)
	}
	if _, err := placement.ParsePriority(p.Priority); err != nil {
		return err
	}
	return nil
}

// ConfigDir returns the hovercard configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "hovercard")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// CardsDir returns the user card templates directory.
func (c *Config) CardsDir() string {
	if c.Cards.Dir != "" {
		return expandPath(c.Cards.Dir)
	}
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "cards")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed and replaces the file atomically.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Placement.Validate(); err != nil {
		return fmt.Errorf("placement: %w", err)
	}
	if err := c.TUI.Placement.Validate(); err != nil {
		return fmt.Errorf("tui.placement: %w", err)
	}

	if c.TUI.TileWidth < 8 || c.TUI.TileWidth > 80 {
		return fmt.Errorf("tile_width must be between 8 and 80, got %d", c.TUI.TileWidth)
	}
	if c.TUI.TileHeight < 3 || c.TUI.TileHeight > 10 {
		return fmt.Errorf("tile_height must be between 3 and 10, got %d", c.TUI.TileHeight)
	}

	switch c.Output.Format {
	case "plain", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q, must be one of: plain, json, yaml", c.Output.Format)
	}

	if c.DBus.BusName == "" {
		return errors.New("dbus bus_name must not be empty")
	}

	if c.HTTP.Listen != "" {
		if _, _, err := net.SplitHostPort(c.HTTP.Listen); err != nil {
			return fmt.Errorf("invalid http listen address %q: %w", c.HTTP.Listen, err)
		}
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 1 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
