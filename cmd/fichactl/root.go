package main

import (
	"context"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/config"
	"github.com/garyjia/foundry-fichas/internal/container"
	"github.com/garyjia/foundry-fichas/pkg/utils"
)

type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool

	ctx := &commandContext{configFlag: &configFlag, verboseFlag: &verbose}

	rootCmd := &cobra.Command{
		Use:           "fichactl",
		Short:         "Operator tools for the foundry ficha workflow",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "configs/config.yaml", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newSweepCommand(ctx))
	rootCmd.AddCommand(newKanbanCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newUserCommand(ctx))

	return rootCmd
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(*c.configFlag)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg

		c.logger = zap.NewNop()
		if *c.verboseFlag {
			c.logger, c.configErr = utils.NewLogger(utils.LoggerConfig{
				Level:      cfg.Logger.Level,
				OutputPath: "stderr",
				Format:     "console",
			})
		}
	})
	return c.config, c.configErr
}

// withContainer starts the full dependency graph for one command and tears
// it down afterwards. Background workers are never started from the CLI.
func (c *commandContext) withContainer(ctx context.Context, fn func(*container.Container) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	cc := cfg.ToContainerConfig()
	cc.Workflow.OverdueSweepInterval = 0

	app, err := container.NewContainer(cc, c.logger)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	runErr := fn(app)
	if err := app.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
