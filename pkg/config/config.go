package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Presence PresenceConfig `yaml:"presence"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig represents database configuration.
// Dialect selects the gorm driver: "sqlite" for development, "postgres" for production.
type DatabaseConfig struct {
	Dialect string `yaml:"dialect"`
	DSN     string `yaml:"dsn"`
}

// PresenceConfig holds the inactivity decay timeouts.
// OfflineTimeout is measured from the last activity, not from entering away.
type PresenceConfig struct {
	AwayTimeout    time.Duration `yaml:"away_timeout"`
	OfflineTimeout time.Duration `yaml:"offline_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Load from YAML file if it exists
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a configuration with default values
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Dialect: "sqlite",
			DSN:     "pulse.db",
		},
		Presence: PresenceConfig{
			AwayTimeout:    5 * time.Minute,
			OfflineTimeout: 15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// getConfigPath returns the configuration file path
func getConfigPath() string {
	// Check environment variable first
	if path := os.Getenv("PULSE_CONFIG"); path != "" {
		return path
	}

	// Look for config.yaml in current directory
	return "config.yaml"
}

// applyEnv overrides configuration with environment variables
func (c *Config) applyEnv() {
	// Server configuration
	if host := os.Getenv("PULSE_SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PULSE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if readTimeout := os.Getenv("PULSE_SERVER_READ_TIMEOUT"); readTimeout != "" {
		if d, err := time.ParseDuration(readTimeout); err == nil {
			c.Server.ReadTimeout = d
		}
	}
	if writeTimeout := os.Getenv("PULSE_SERVER_WRITE_TIMEOUT"); writeTimeout != "" {
		if d, err := time.ParseDuration(writeTimeout); err == nil {
			c.Server.WriteTimeout = d
		}
	}

	// Database configuration
	if dialect := os.Getenv("PULSE_DATABASE_DIALECT"); dialect != "" {
		c.Database.Dialect = dialect
	}
	if dsn := os.Getenv("PULSE_DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}

	// Presence configuration
	if awayTimeout := os.Getenv("PULSE_PRESENCE_AWAY_TIMEOUT"); awayTimeout != "" {
		if d, err := time.ParseDuration(awayTimeout); err == nil {
			c.Presence.AwayTimeout = d
		}
	}
	if offlineTimeout := os.Getenv("PULSE_PRESENCE_OFFLINE_TIMEOUT"); offlineTimeout != "" {
		if d, err := time.ParseDuration(offlineTimeout); err == nil {
			c.Presence.OfflineTimeout = d
		}
	}

	// Logging configuration
	if level := os.Getenv("PULSE_LOGGING_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if format := os.Getenv("PULSE_LOGGING_FORMAT"); format != "" {
		c.Logging.Format = format
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}

	// Validate database configuration
	if c.Database.Dialect != "sqlite" && c.Database.Dialect != "postgres" {
		return fmt.Errorf("unsupported database dialect: %s", c.Database.Dialect)
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	// Validate presence configuration
	if c.Presence.AwayTimeout <= 0 {
		return fmt.Errorf("away timeout must be positive")
	}

	if c.Presence.OfflineTimeout <= c.Presence.AwayTimeout {
		return fmt.Errorf("offline timeout must be greater than away timeout")
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}

	return nil
}
