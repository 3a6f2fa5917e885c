package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/service"
	"github.com/garyjia/foundry-fichas/internal/config"
	"github.com/garyjia/foundry-fichas/internal/container"
	"github.com/garyjia/foundry-fichas/internal/domain/entity"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	configPath := filepath.Join(base, "config.yaml")
	content := fmt.Sprintf(`database:
  path: %s
storage:
  image_dir: %s
logger:
  level: error
`, filepath.Join(base, "fichas.db"), filepath.Join(base, "images"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	return &cliTestEnv{configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedFicha creates a ficha through the container the commands use
func (e *cliTestEnv) seedFicha(t *testing.T, deadline time.Time) *entity.FichaDetail {
	t.Helper()

	cfg, err := config.Load(e.configPath)
	require.NoError(t, err)
	app, err := container.NewContainer(cfg.ToContainerConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background()))
	defer app.Close()

	detail, err := app.Services().Fichas.Create(context.Background(),
		entity.Actor{UserID: 1, Privilege: entity.PrivilegeStandard},
		service.FichaInput{Designer: "Ana", PartCode: "P-300", SampleQuantity: 2, Deadline: deadline})
	require.NoError(t, err)
	return detail
}

func TestMigrateCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema up to date")

	_, err = os.Stat(filepath.Join(env.baseDir, "fichas.db"))
	assert.NoError(t, err)

	// A second run has nothing to apply
	_, err = env.run(t, "migrate")
	assert.NoError(t, err)
}

func TestUserAddCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "user", "add", "--name", "Bruno", "--email", "bruno@fundicao.com.br",
		"--privilege", "superior", "--sector", "Moldagem")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user 1 (bruno@fundicao.com.br)")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing name", args: []string{"--email", "a@b.com"}, wantErr: "--name"},
		{name: "bad email", args: []string{"--name", "Ana", "--email", "ana"}, wantErr: "invalid email"},
		{name: "bad privilege", args: []string{"--name", "Ana", "--email", "a@b.com", "--privilege", "root"}, wantErr: "unknown privilege"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, append([]string{"user", "add"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSweepOverdueCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := env.run(t, "sweep-overdue")
	require.NoError(t, err)
	assert.Contains(t, out, "No newly overdue fichas")

	// Creation flags a past deadline immediately, so the sweep still finds nothing new
	env.seedFicha(t, time.Now().Add(-48*time.Hour))
	out, err = env.run(t, "sweep-overdue")
	require.NoError(t, err)
	assert.Contains(t, out, "No newly overdue fichas")
}

func TestKanbanCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	detail := env.seedFicha(t, time.Now().Add(72*time.Hour))

	out, err := env.run(t, "kanban")
	require.NoError(t, err)
	assert.Contains(t, out, "Stage")
	assert.Contains(t, out, detail.Code)
	assert.Contains(t, out, "Ana")
}

func TestExportCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	detail := env.seedFicha(t, time.Now().Add(72*time.Hour))

	target := filepath.Join(env.baseDir, "reports", "out.xlsx")
	out, err := env.run(t, "export", fmt.Sprint(detail.ID), "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+target)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	_, err = env.run(t, "export", "abc")
	assert.ErrorContains(t, err, "invalid ficha id")

	_, err = env.run(t, "export", "999")
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil, nil))

	out := renderTable([]string{"A", "B"}, [][]string{{"1"}, {"2", "3"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "A")
	assert.Contains(t, out, "3")
}
