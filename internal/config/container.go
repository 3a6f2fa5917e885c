package config

import (
	"github.com/garyjia/foundry-fichas/internal/container"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

// ToContainerConfig converts the application config to the container config
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Workflow: container.WorkflowConfig{
			Catalog:              c.Workflow.Catalog,
			RejectionModel:       domainwf.RejectionModel(c.Workflow.RejectionModel),
			CodePrefix:           c.Workflow.CodePrefix,
			CodeRetryAttempts:    c.Workflow.CodeRetryAttempts,
			UpcomingDeadlineDays: c.Workflow.UpcomingDeadlineDays,
			OverdueSweepInterval: c.Workflow.OverdueSweepInterval,
		},
		Storage: container.StorageConfig{
			ImageDir:      c.Storage.ImageDir,
			MaxImageBytes: c.Storage.MaxImageBytes,
		},
		Lark: container.LarkConfig{
			Enabled:   c.Lark.Enabled,
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
		},
	}
}
