package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/config"
	"github.com/garyjia/foundry-fichas/internal/container"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
	httpServer "github.com/garyjia/foundry-fichas/internal/interfaces/http"
	"github.com/garyjia/foundry-fichas/pkg/utils"
)

func main() {
	configPath := flag.String("config", envOr("FICHAS_CONFIG", "configs/config.yaml"), "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting foundry ficha workflow service",
		zap.String("catalog", cfg.Workflow.Catalog),
		zap.String("rejection_model", cfg.Workflow.RejectionModel),
		zap.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("Server exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	serverConfig := httpServer.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout
	serverConfig.WriteTimeout = cfg.Server.WriteTimeout
	serverConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	if cfg.Storage.MaxImageBytes > 0 {
		serverConfig.MaxUploadBytes = cfg.Storage.MaxImageBytes*domainwf.MaxRejectionImages + 1<<20
	}

	services := c.Services()
	server := httpServer.NewServer(serverConfig, httpServer.Services{
		Fichas:        services.Fichas,
		Gallery:       services.Gallery,
		Engine:        c.Engine(),
		Dashboard:     services.Dashboard,
		Notifications: services.Notifications,
		Reports:       services.Reports,
		Health: func() (bool, interface{}) {
			h := c.Health()
			return h.Overall, h.Components
		},
	}, container.NewLogger(logger.Named("http")))

	return server.Start(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
