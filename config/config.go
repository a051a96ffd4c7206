package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/slighter12/sanshu-mcp-go/mcp"
)

// DefaultUIBinaryName is the executable launched for interactive tools.
const DefaultUIBinaryName = "等一下"

// ErrRequiredToolDisabled is returned when a write tries to switch off the
// always-enabled tool.
var ErrRequiredToolDisabled = fmt.Errorf("tool %q is required and cannot be disabled", mcp.ToolZhi)

// Config represents the MCP server configuration
type Config struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Description string      `json:"description"`
	Server      Server      `json:"server"`
	Transports  []Transport `json:"transports"`
	Logging     Logging     `json:"logging"`
	UI          UI          `json:"ui"`
	MCP         MCPConfig   `json:"mcp_config"`
	History     History     `json:"history"`
	Images      Images      `json:"images"`
}

// Server represents server configuration
type Server struct {
	Host  string `json:"host"`
	Port  int    `json:"port"`
	Debug bool   `json:"debug"`
}

// Transport represents a transport configuration
type Transport struct {
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// Logging represents logging configuration
type Logging struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	Path   string `json:"path"`
}

// UI configures the interactive helper process.
type UI struct {
	BinaryName string `json:"binary_name"`
	ClientMode string `json:"client_mode"`
}

// MCPConfig holds per-tool enablement flags keyed by tool config key.
type MCPConfig struct {
	Tools map[string]bool `json:"tools"`
}

// History configures the interaction history store.
type History struct {
	Enabled    bool   `json:"enabled"`
	Path       string `json:"path"`
	MaxEntries int    `json:"max_entries"`
}

// Images configures the sweep of image files saved for file-pointer clients.
type Images struct {
	TTLMinutes           int `json:"ttl_minutes"`
	SweepIntervalMinutes int `json:"sweep_interval_minutes"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.TempDir()
	}
	return &Config{
		Name:        "sanshu-mcp-go",
		Version:     "0.1.0",
		Description: "Interactive MCP tool server with a human-in-the-loop popup bridge",
		Server: Server{
			Host:  "localhost",
			Port:  9080,
			Debug: false,
		},
		Transports: []Transport{
			{Type: "stdio", Enabled: true},
			{Type: "streamable_http", Enabled: true},
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
			Path:   filepath.Join(home, ".sanshu", "logs", "mcp.log"),
		},
		UI: UI{
			BinaryName: DefaultUIBinaryName,
		},
		MCP: MCPConfig{
			Tools: mcp.DefaultToolStates(),
		},
		History: History{
			Enabled:    true,
			Path:       filepath.Join(home, ".sanshu", "history.db"),
			MaxEntries: 20,
		},
		Images: Images{
			TTLMinutes:           60,
			SweepIntervalMinutes: 10,
		},
	}
}

// LoadConfig loads the configuration from a file. Comments and trailing
// commas are accepted.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// Override with environment variables (highest priority).
	applyEnvOverrides(cfg)
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a file
func SaveConfig(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config cannot be nil")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if enabled, ok := cfg.MCP.Tools[mcp.ToolZhi]; ok && !enabled {
		return ErrRequiredToolDisabled
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func applyEnvOverrides(cfg *Config) {
	if portStr := os.Getenv("MCP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			cfg.Server.Port = port
		} else {
			log.Printf("warning: ignoring invalid MCP_PORT value %q: %v", portStr, err)
		}
	}

	if host := os.Getenv("MCP_HOST"); host != "" {
		cfg.Server.Host = host
	}

	if debug := os.Getenv("MCP_DEBUG"); debug != "" {
		if parsed, err := strconv.ParseBool(debug); err == nil {
			cfg.Server.Debug = parsed
		} else {
			log.Printf("warning: ignoring invalid MCP_DEBUG value %q: %v", debug, err)
		}
	}

	if logLevel := os.Getenv("MCP_LOG_LEVEL"); logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if logPath := os.Getenv("MCP_LOG_PATH"); logPath != "" {
		cfg.Logging.Path = logPath
	}

	if client := os.Getenv("MCP_AI_CLIENT"); client != "" {
		cfg.UI.ClientMode = client
	}

	if binary := os.Getenv("SANSHU_UI_BINARY"); binary != "" {
		cfg.UI.BinaryName = binary
	}
}

// Normalize canonicalizes config values so downstream validation and runtime
// logic operate on stable representations.
func (c *Config) Normalize() {
	c.Server.Host = strings.TrimSpace(c.Server.Host)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Path = strings.TrimSpace(c.Logging.Path)
	c.UI.BinaryName = strings.TrimSpace(c.UI.BinaryName)
	if c.UI.BinaryName == "" {
		c.UI.BinaryName = DefaultUIBinaryName
	}
	c.UI.ClientMode = strings.ToLower(strings.TrimSpace(c.UI.ClientMode))
	if c.MCP.Tools == nil {
		c.MCP.Tools = mcp.DefaultToolStates()
	}
	c.History.Path = strings.TrimSpace(c.History.Path)
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = 20
	}
	if c.Images.TTLMinutes <= 0 {
		c.Images.TTLMinutes = 60
	}
	if c.Images.SweepIntervalMinutes <= 0 {
		c.Images.SweepIntervalMinutes = 10
	}
	for i := range c.Transports {
		c.Transports[i].Type = strings.ToLower(strings.TrimSpace(c.Transports[i].Type))
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid port number")
	}

	if c.Server.Host == "" {
		return errors.New("host cannot be empty")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return errors.New("invalid log level")
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return errors.New("invalid log format")
	}

	if len(c.Transports) == 0 {
		return errors.New("at least one transport must be enabled")
	}

	validTransportTypes := map[string]bool{
		"stdio":           true,
		"streamable_http": true,
	}

	enabledTransports := 0
	for _, t := range c.Transports {
		if !validTransportTypes[t.Type] {
			return fmt.Errorf("invalid transport type: %s", t.Type)
		}
		if t.Enabled {
			enabledTransports++
		}
	}

	if enabledTransports == 0 {
		return errors.New("at least one transport must be enabled")
	}

	if c.History.Enabled && c.History.Path == "" {
		return errors.New("history path cannot be empty when history is enabled")
	}

	return nil
}

// ToolEnabled reports the stored flag for a tool config key, falling back to
// the documented default when the key is absent.
func (c *Config) ToolEnabled(key string) bool {
	if enabled, ok := c.MCP.Tools[key]; ok {
		return enabled
	}
	return mcp.DefaultToolEnabled(key)
}

// ResolveConfigPath returns the path that should be used for configuration.
func ResolveConfigPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv("SANSHU_CONFIG_PATH")); path != "" {
		return path, nil
	}

	if _, err := os.Stat("config/sanshu_config.json"); err == nil {
		return "config/sanshu_config.json", nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".sanshu", "config", "sanshu_config.json"), nil
}

// EnsureDefaultConfig creates a default config file if one does not exist.
func EnsureDefaultConfig(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("config path cannot be empty")
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	defaultConfig := NewConfig()
	defaultConfig.Normalize()
	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
