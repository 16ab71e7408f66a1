package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport   string   `mapstructure:"transport"`
	HTTPPort    int      `mapstructure:"http_port"`
	MCPPort     int      `mapstructure:"mcp_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	Backend        string   `mapstructure:"backend"`
	Image          string   `mapstructure:"image"`
	MemoryMB       int      `mapstructure:"memory_mb"`
	NetworkEnabled bool     `mapstructure:"network_enabled"`
	MaxConcurrent  int      `mapstructure:"max_concurrent"`
	Environment    []string `mapstructure:"environment"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// Transport names
const (
	TransportHTTP  = "http"
	TransportStdio = "stdio"
	TransportMCP   = "mcp"
)

// Backend names
const (
	BackendLocal  = "local"
	BackendDocker = "docker"
	BackendPodman = "podman"
)

var validLogLevels = map[string]bool{
	"debug":  true,
	"info":   true,
	"warn":   true,
	"error":  true,
	"dpanic": true,
	"panic":  true,
	"fatal":  true,
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("CODERUN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.transport", TransportHTTP)
	viper.SetDefault("server.http_port", 5000)
	viper.SetDefault("server.mcp_port", 8081)
	viper.SetDefault("server.cors_origins", []string{"*"})

	viper.SetDefault("sandbox.backend", BackendLocal)
	viper.SetDefault("sandbox.image", "python:3.11-slim")
	viper.SetDefault("sandbox.memory_mb", 512)
	viper.SetDefault("sandbox.network_enabled", false)
	viper.SetDefault("sandbox.max_concurrent", 0)
	viper.SetDefault("sandbox.environment", []string{})

	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	switch c.Server.Transport {
	case TransportHTTP, TransportStdio, TransportMCP:
	default:
		return fmt.Errorf("invalid server.transport: %s, must be 'http', 'stdio' or 'mcp'", c.Server.Transport)
	}

	if c.Server.Transport == TransportHTTP && !validPort(c.Server.HTTPPort) {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}

	if c.Server.Transport == TransportMCP && !validPort(c.Server.MCPPort) {
		return fmt.Errorf("server.mcp_port out of range: %d", c.Server.MCPPort)
	}

	switch c.Sandbox.Backend {
	case BackendLocal:
	case BackendDocker, BackendPodman:
		if c.Sandbox.Image == "" {
			return fmt.Errorf("sandbox.image is required for the %s backend", c.Sandbox.Backend)
		}
		if c.Sandbox.MemoryMB <= 0 {
			return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
		}
	default:
		return fmt.Errorf("unsupported sandbox.backend: %s", c.Sandbox.Backend)
	}

	if c.Sandbox.MaxConcurrent < 0 {
		return fmt.Errorf("sandbox.max_concurrent must not be negative, got: %d", c.Sandbox.MaxConcurrent)
	}

	// Entries are KEY=VALUE; viper lowercases map keys, which env names cannot survive.
	for _, kv := range c.Sandbox.Environment {
		if key, _, ok := strings.Cut(kv, "="); !ok || key == "" {
			return fmt.Errorf("invalid sandbox.environment entry: %q, must be KEY=VALUE", kv)
		}
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
