// Package container provides dependency injection and lifecycle management
// for the foundry ficha workflow service.
package container

import (
	"fmt"
	"time"

	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Workflow WorkflowConfig
	Storage  StorageConfig
	Lark     LarkConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// WorkflowConfig selects the stage policy and ficha service behaviour.
type WorkflowConfig struct {
	Catalog              string
	RejectionModel       domainwf.RejectionModel
	CodePrefix           string
	CodeRetryAttempts    int
	UpcomingDeadlineDays int

	// OverdueSweepInterval starts the background sweep when positive
	OverdueSweepInterval time.Duration
}

// StorageConfig holds rejection image storage settings.
type StorageConfig struct {
	ImageDir      string
	MaxImageBytes int64
}

// LarkConfig holds Lark API settings. Delivery is skipped when disabled.
type LarkConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "data/fichas.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Workflow: WorkflowConfig{
			Catalog:              domainwf.CatalogRQ24Rev06,
			RejectionModel:       domainwf.RejectionTerminalQueue,
			CodePrefix:           "RQ-24",
			CodeRetryAttempts:    5,
			UpcomingDeadlineDays: 3,
		},
		Storage: StorageConfig{
			ImageDir:      "data/images",
			MaxImageBytes: 10 << 20,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if _, err := domainwf.NewPolicy(c.Workflow.Catalog, c.Workflow.RejectionModel); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}
	if c.Storage.ImageDir == "" {
		return fmt.Errorf("storage.image_dir is required")
	}
	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
	}
	return nil
}
