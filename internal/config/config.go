// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Scanner ScannerConfig `mapstructure:"scanner"`
	Barcode BarcodeConfig `mapstructure:"barcode"`
	Grocy   GrocyConfig   `mapstructure:"grocy"`
	Lookup  LookupConfig  `mapstructure:"lookup"`
	History HistoryConfig `mapstructure:"history"`
	App     AppConfig     `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host" validate:"required"`
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// ScannerConfig represents scanner device configuration
type ScannerConfig struct {
	HidrawPattern string        `mapstructure:"hidraw_pattern"`
	MaxDevices    int           `mapstructure:"max_devices"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	MaxLineLength int           `mapstructure:"max_line_length"`
	Serial        SerialConfig  `mapstructure:"serial"`
}

// SerialConfig represents serial scanner configuration
type SerialConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	BaudRate     int      `mapstructure:"baud_rate"`
	PortPatterns []string `mapstructure:"port_patterns"`
}

// BarcodeConfig represents the control barcode markers. The markers are
// opaque, case-sensitive, exact-match literals.
type BarcodeConfig struct {
	AddMarker       string `mapstructure:"add_marker"`
	ConsumeMarker   string `mapstructure:"consume_marker"`
	QuantityPrefix  string `mapstructure:"quantity_prefix"`
	DefaultQuantity int    `mapstructure:"default_quantity"`
}

// GrocyConfig represents the Grocy inventory connection
type GrocyConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Configured checks whether a Grocy instance is configured at all.
// Without one the service runs in standalone mode and only records scans.
func (c *GrocyConfig) Configured() bool {
	return strings.TrimSpace(c.URL) != "" && strings.TrimSpace(c.APIKey) != ""
}

// LookupConfig represents the product database fallback chain
type LookupConfig struct {
	OpenFoodFacts bool          `mapstructure:"openfoodfacts"`
	UPCDatabase   bool          `mapstructure:"upcdatabase"`
	EANSearch     bool          `mapstructure:"eansearch"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// HistoryConfig represents scan log storage configuration
type HistoryConfig struct {
	Backend   string         `mapstructure:"backend"`
	MaxRecent int            `mapstructure:"max_recent"`
	Database  DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/barcodebuddy")

	// Environment variable support
	viper.SetEnvPrefix("BARCODEBUDDY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file; running purely on defaults and environment is fine
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Scanner defaults
	viper.SetDefault("scanner.hidraw_pattern", "/dev/hidraw%d")
	viper.SetDefault("scanner.max_devices", 16)
	viper.SetDefault("scanner.poll_interval", "5s")
	viper.SetDefault("scanner.read_timeout", "250ms")
	viper.SetDefault("scanner.max_line_length", 256)
	viper.SetDefault("scanner.serial.enabled", false)
	viper.SetDefault("scanner.serial.baud_rate", 9600)
	viper.SetDefault("scanner.serial.port_patterns", []string{
		"/dev/ttyACM*", "/dev/ttyUSB*",
	})

	// Barcode marker defaults
	viper.SetDefault("barcode.add_marker", "BBUDDY-ADD")
	viper.SetDefault("barcode.consume_marker", "BBUDDY-CONSUME")
	viper.SetDefault("barcode.quantity_prefix", "BBUDDY-Q-")
	viper.SetDefault("barcode.default_quantity", 1)

	// Grocy defaults
	viper.SetDefault("grocy.timeout", "10s")

	// Lookup defaults
	viper.SetDefault("lookup.openfoodfacts", true)
	viper.SetDefault("lookup.upcdatabase", true)
	viper.SetDefault("lookup.eansearch", false)
	viper.SetDefault("lookup.timeout", "10s")

	// History defaults
	viper.SetDefault("history.backend", "memory")
	viper.SetDefault("history.max_recent", 50)
	viper.SetDefault("history.database.host", "localhost")
	viper.SetDefault("history.database.port", 5432)
	viper.SetDefault("history.database.user", "postgres")
	viper.SetDefault("history.database.password", "postgres")
	viper.SetDefault("history.database.dbname", "barcodebuddy")
	viper.SetDefault("history.database.sslmode", "disable")
	viper.SetDefault("history.database.max_open_conns", 10)
	viper.SetDefault("history.database.max_idle_conns", 2)
	viper.SetDefault("history.database.max_lifetime", "5m")

	// App defaults
	viper.SetDefault("app.name", "barcodebuddy")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Scanner.HidrawPattern == "" {
		return fmt.Errorf("scanner.hidraw_pattern is required")
	}
	if !strings.Contains(config.Scanner.HidrawPattern, "%d") {
		return fmt.Errorf("scanner.hidraw_pattern must contain a %%d index placeholder")
	}
	if config.Scanner.MaxDevices < 1 || config.Scanner.MaxDevices > 64 {
		return fmt.Errorf("scanner.max_devices must be between 1 and 64")
	}
	if config.Scanner.MaxLineLength < 16 {
		return fmt.Errorf("scanner.max_line_length must be at least 16")
	}
	if config.Barcode.AddMarker == "" || config.Barcode.ConsumeMarker == "" {
		return fmt.Errorf("barcode mode markers are required")
	}
	if config.Barcode.QuantityPrefix == "" {
		return fmt.Errorf("barcode.quantity_prefix is required")
	}
	if config.Barcode.DefaultQuantity < 1 {
		return fmt.Errorf("barcode.default_quantity must be at least 1")
	}

	// Validate history backend
	if config.History.Backend != "memory" && config.History.Backend != "postgres" {
		return fmt.Errorf("history.backend must be one of: memory, postgres")
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	isValidEnv := false
	for _, env := range validEnvs {
		if config.App.Environment == env {
			isValidEnv = true
			break
		}
	}
	if !isValidEnv {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	isValidLevel := false
	for _, level := range validLevels {
		if config.Logging.Level == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	db := c.History.Database
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
