package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Lark     LarkConfig     `mapstructure:"lark"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// WorkflowConfig selects the stage catalog and rejection model
type WorkflowConfig struct {
	Catalog              string        `mapstructure:"catalog"`
	RejectionModel       string        `mapstructure:"rejection_model"`
	CodePrefix           string        `mapstructure:"code_prefix"`
	CodeRetryAttempts    int           `mapstructure:"code_retry_attempts"`
	UpcomingDeadlineDays int           `mapstructure:"upcoming_deadline_days"`
	// OverdueSweepInterval enables a background sweep when positive. Reads sweep regardless.
	OverdueSweepInterval time.Duration `mapstructure:"overdue_sweep_interval"`
}

// StorageConfig holds rejection image storage configuration
type StorageConfig struct {
	ImageDir      string `mapstructure:"image_dir"`
	MaxImageBytes int64  `mapstructure:"max_image_bytes"`
}

// LarkConfig holds Lark API configuration
type LarkConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	AppSecret string `mapstructure:"app_secret"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads an optional .env file, then the config file, then environment
// overrides. An empty configPath runs on defaults and environment only.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports variables from path without overriding the real environment
func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/fichas.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// Workflow defaults
	v.SetDefault("workflow.catalog", domainwf.CatalogRQ24Rev06)
	v.SetDefault("workflow.rejection_model", string(domainwf.RejectionTerminalQueue))
	v.SetDefault("workflow.code_prefix", "RQ-24")
	v.SetDefault("workflow.code_retry_attempts", 5)
	v.SetDefault("workflow.upcoming_deadline_days", 3)
	v.SetDefault("workflow.overdue_sweep_interval", time.Duration(0))

	// Storage defaults
	v.SetDefault("storage.image_dir", "data/images")
	v.SetDefault("storage.max_image_bytes", 10<<20)

	// Lark defaults
	v.SetDefault("lark.enabled", false)
	v.SetDefault("lark.app_id", "")
	v.SetDefault("lark.app_secret", "")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("lark.enabled", "LARK_ENABLED")
	_ = v.BindEnv("lark.app_id", "LARK_APP_ID")
	_ = v.BindEnv("lark.app_secret", "LARK_APP_SECRET")
	_ = v.BindEnv("database.path", "FICHAS_DB_PATH")
	_ = v.BindEnv("server.port", "FICHAS_PORT")
	_ = v.BindEnv("workflow.catalog", "FICHAS_CATALOG")
	_ = v.BindEnv("workflow.rejection_model", "FICHAS_REJECTION_MODEL")
	_ = v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := domainwf.NewPolicy(c.Workflow.Catalog, domainwf.RejectionModel(c.Workflow.RejectionModel)); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if c.Workflow.CodeRetryAttempts < 1 {
		return fmt.Errorf("workflow.code_retry_attempts must be at least 1")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Workflow.OverdueSweepInterval < 0 {
		return fmt.Errorf("workflow.overdue_sweep_interval cannot be negative")
	}
	if c.Storage.ImageDir == "" {
		return fmt.Errorf("storage.image_dir is required")
	}

	if c.Lark.Enabled {
		if c.Lark.AppID == "" {
			return fmt.Errorf("lark.app_id is required when lark is enabled")
		}
		if c.Lark.AppSecret == "" {
			return fmt.Errorf("lark.app_secret is required when lark is enabled")
		}
	}

	return nil
}

// Policy resolves the configured catalog and rejection model
func (c *Config) Policy() (domainwf.Policy, error) {
	return domainwf.NewPolicy(c.Workflow.Catalog, domainwf.RejectionModel(c.Workflow.RejectionModel))
}
