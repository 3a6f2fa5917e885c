package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, domainwf.CatalogRQ24Rev06, cfg.Workflow.Catalog)
	assert.Equal(t, "terminal_queue", cfg.Workflow.RejectionModel)
	assert.Equal(t, "RQ-24", cfg.Workflow.CodePrefix)
	assert.Equal(t, 5, cfg.Workflow.CodeRetryAttempts)
	assert.Equal(t, 3, cfg.Workflow.UpcomingDeadlineDays)
	assert.Equal(t, int64(10<<20), cfg.Storage.MaxImageBytes)
	assert.False(t, cfg.Lark.Enabled)
	assert.Zero(t, cfg.Workflow.OverdueSweepInterval)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Len(t, policy.Catalog.Stages(), 10)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
workflow:
  catalog: legacy-8
  rejection_model: return_to_stage
  code_prefix: RQ-08
  overdue_sweep_interval: 5m
storage:
  image_dir: /tmp/fichas
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "RQ-08", cfg.Workflow.CodePrefix)
	assert.Equal(t, "/tmp/fichas", cfg.Storage.ImageDir)
	assert.Equal(t, 5*time.Minute, cfg.Workflow.OverdueSweepInterval)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, domainwf.RejectionReturnToStage, policy.RejectionModel)
	assert.Len(t, policy.Catalog.Stages(), 8)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FICHAS_CATALOG", "legacy-8")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy-8", cfg.Workflow.Catalog)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "fichas.db"},
			Workflow: WorkflowConfig{
				Catalog:           domainwf.CatalogRQ24Rev06,
				RejectionModel:    "terminal_queue",
				CodeRetryAttempts: 5,
			},
			Storage: StorageConfig{ImageDir: "images"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown catalog", mutate: func(c *Config) { c.Workflow.Catalog = "rq-99" }, wantErr: true},
		{name: "unknown rejection model", mutate: func(c *Config) { c.Workflow.RejectionModel = "bounce" }, wantErr: true},
		{name: "no retries", mutate: func(c *Config) { c.Workflow.CodeRetryAttempts = 0 }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "negative sweep interval", mutate: func(c *Config) { c.Workflow.OverdueSweepInterval = -time.Second }, wantErr: true},
		{name: "no image dir", mutate: func(c *Config) { c.Storage.ImageDir = "" }, wantErr: true},
		{name: "lark without credentials", mutate: func(c *Config) { c.Lark.Enabled = true }, wantErr: true},
		{
			name: "lark with credentials",
			mutate: func(c *Config) {
				c.Lark = LarkConfig{Enabled: true, AppID: "cli_a1", AppSecret: "secret"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Workflow.OverdueSweepInterval = 10 * time.Minute

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())
	assert.Equal(t, cfg.Database.Path, cc.Database.Path)
	assert.Equal(t, domainwf.RejectionTerminalQueue, cc.Workflow.RejectionModel)
	assert.Equal(t, 10*time.Minute, cc.Workflow.OverdueSweepInterval)
	assert.Equal(t, cfg.Storage.ImageDir, cc.Storage.ImageDir)
}
