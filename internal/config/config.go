// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Monitor       MonitorConfig      `mapstructure:"monitor"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// MonitorConfig contains the availability check configuration
type MonitorConfig struct {
	Name             string        `mapstructure:"name"`
	URL              string        `mapstructure:"url"`
	Recipients       []string      `mapstructure:"recipients"`
	CheckInterval    time.Duration `mapstructure:"check_interval"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	LogRoot          string        `mapstructure:"log_root"`
}

// StorageConfig contains incident store configuration
type StorageConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Type             string        `mapstructure:"type"` // sqlite, postgres
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	Enabled                    bool          `mapstructure:"enabled"`
	NotificationTimeout        time.Duration `mapstructure:"notification_timeout"`
	RetryAttempts              int           `mapstructure:"retry_attempts"`
	RetryDelay                 time.Duration `mapstructure:"retry_delay"`
	EnableEmailNotifications   bool          `mapstructure:"enable_email_notifications"`
	EnableWebhookNotifications bool          `mapstructure:"enable_webhook_notifications"`
	WebhookURL                 string        `mapstructure:"webhook_url"`
	SMTPHost                   string        `mapstructure:"smtp_host"`
	SMTPPort                   int           `mapstructure:"smtp_port"`
	SMTPUsername               string        `mapstructure:"smtp_username"`
	SMTPPassword               string        `mapstructure:"smtp_password"`
	FromEmail                  string        `mapstructure:"from_email"`
	FromName                   string        `mapstructure:"from_name"`
	UseTLS                     bool          `mapstructure:"use_tls"`
}

// ServerConfig contains HTTP status server configuration
type ServerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
	Output string `mapstructure:"output"` // stdout, file
	File   string `mapstructure:"file"`
}

// monitorNamePattern restricts monitor names to a filesystem-safe charset
var monitorNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/uptime-watcher")
	}

	viper.SetEnvPrefix("WATCHER")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyEnvOverrides(&config)

	return &config, nil
}

// applyEnvOverrides applies the recognized plain environment overrides.
// CHECK_INTERVAL and REQUEST_TIMEOUT are expressed in whole seconds.
func applyEnvOverrides(config *Config) {
	if v := os.Getenv("MONITOR_URL"); v != "" {
		config.Monitor.URL = v
	}
	if v := os.Getenv("MONITOR_NAME"); v != "" {
		config.Monitor.Name = v
	}
	if v := os.Getenv("CHECK_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			config.Monitor.CheckInterval = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("FAILURE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Monitor.FailureThreshold = n
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			config.Monitor.RequestTimeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Storage.ConnectionString = v
	}
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "uptime-watcher")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)

	// Monitor defaults
	viper.SetDefault("monitor.check_interval", "3s")
	viper.SetDefault("monitor.failure_threshold", 4)
	viper.SetDefault("monitor.request_timeout", "10s")
	viper.SetDefault("monitor.log_root", "./logs")

	// Storage defaults
	viper.SetDefault("storage.enabled", true)
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.connection_string", "./data/incidents.db")
	viper.SetDefault("storage.max_connections", 10)
	viper.SetDefault("storage.max_idle_time", "15m")

	// Notification defaults
	viper.SetDefault("notifications.enabled", true)
	viper.SetDefault("notifications.notification_timeout", "30s")
	viper.SetDefault("notifications.retry_attempts", 3)
	viper.SetDefault("notifications.retry_delay", "10s")
	viper.SetDefault("notifications.enable_email_notifications", true)
	viper.SetDefault("notifications.enable_webhook_notifications", false)
	viper.SetDefault("notifications.smtp_host", "localhost")
	viper.SetDefault("notifications.smtp_port", 587)
	viper.SetDefault("notifications.from_email", "noreply@uptime-watcher.local")
	viper.SetDefault("notifications.from_name", "Uptime Watcher")
	viper.SetDefault("notifications.use_tls", false)

	// Server defaults
	viper.SetDefault("server.enabled", true)
	viper.SetDefault("server.port", 8081)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.enable_metrics", true)
	viper.SetDefault("server.enable_health", true)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration. Invalid configuration is a
// startup failure; nothing here is discovered mid-run.
func (c *Config) Validate() error {
	if c.Monitor.Name == "" {
		return fmt.Errorf("monitor name is required")
	}
	if !monitorNamePattern.MatchString(c.Monitor.Name) {
		return fmt.Errorf("monitor name %q contains characters unsafe for filesystem use", c.Monitor.Name)
	}
	if c.Monitor.URL == "" {
		return fmt.Errorf("monitor URL is required")
	}
	parsed, err := url.Parse(c.Monitor.URL)
	if err != nil {
		return fmt.Errorf("monitor URL is invalid: %w", err)
	}
	if !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("monitor URL must be absolute with http or https scheme, got %q", c.Monitor.URL)
	}
	if c.Monitor.CheckInterval <= 0 {
		return fmt.Errorf("monitor check interval must be positive")
	}
	if c.Monitor.FailureThreshold < 1 {
		return fmt.Errorf("monitor failure threshold must be at least 1")
	}
	if c.Monitor.RequestTimeout <= 0 {
		return fmt.Errorf("monitor request timeout must be positive")
	}
	if c.Monitor.LogRoot == "" {
		return fmt.Errorf("monitor log root is required")
	}
	if c.Storage.Enabled && c.Storage.ConnectionString == "" {
		return fmt.Errorf("storage connection string is required when storage is enabled")
	}
	return nil
}
