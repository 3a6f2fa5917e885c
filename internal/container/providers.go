package container

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/garyjia/foundry-fichas/internal/application/dispatcher"
	"github.com/garyjia/foundry-fichas/internal/application/port"
	"github.com/garyjia/foundry-fichas/internal/application/service"
	"github.com/garyjia/foundry-fichas/internal/application/workflow"
	domainwf "github.com/garyjia/foundry-fichas/internal/domain/workflow"
	infraLark "github.com/garyjia/foundry-fichas/internal/infrastructure/external/lark"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/repository"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/storage"
	"github.com/garyjia/foundry-fichas/internal/infrastructure/worker"
	"github.com/garyjia/foundry-fichas/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database, applies the embedded migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Fichas        port.FichaRepository
	Children      port.FichaChildRepository
	Movements     port.MovementRepository
	Rejections    port.RejectionRepository
	Gallery       port.StageImageRepository
	Users         port.UserRepository
	Notifications port.NotificationRepository
	Dashboard     port.DashboardRepository
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Fichas:        repository.NewFichaRepository(db.DB, logger),
		Children:      repository.NewChildRepository(db.DB, logger),
		Movements:     repository.NewMovementRepository(db.DB, logger),
		Rejections:    repository.NewRejectionRepository(db.DB, logger),
		Gallery:       repository.NewStageImageRepository(db.DB, logger),
		Users:         repository.NewUserRepository(db.DB, logger),
		Notifications: repository.NewNotificationRepository(db.DB, logger),
		Dashboard:     repository.NewDashboardRepository(db.DB, logger),
	}, nil
}

// ProvideMessenger creates the Lark message sender, or nil when Lark is disabled.
func ProvideMessenger(cfg *LarkConfig, logger *zap.Logger) port.MessageSender {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Lark delivery disabled, notifications are stored only")
		return nil
	}

	client := infraLark.NewClient(infraLark.Config{
		AppID:     cfg.AppID,
		AppSecret: cfg.AppSecret,
	})
	return infraLark.NewMessenger(client, logger)
}

// ProvideImageStorage creates the image directory and the local image storage.
func ProvideImageStorage(cfg *StorageConfig, logger *zap.Logger) (port.ImageStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if err := os.MkdirAll(cfg.ImageDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return storage.NewLocalImageStorage(cfg.ImageDir, cfg.MaxImageBytes, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(newLoggerAdapter(logger.Named("dispatcher"))),
	)
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Policy     domainwf.Policy
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the transition and rejection engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.Engine, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	return workflow.NewEngine(
		deps.Policy,
		deps.Repos.Fichas,
		deps.Repos.Movements,
		deps.Repos.Rejections,
		deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithLogger(newLoggerAdapter(deps.Logger.Named("workflow"))),
	), nil
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Fichas        service.FichaService
	Gallery       service.GalleryService
	Notifications service.NotificationService
	Dashboard     service.DashboardService
	Reports       service.ReportService
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Policy     domainwf.Policy
	Workflow   *WorkflowConfig
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Images     port.ImageStorage
	Messenger  port.MessageSender
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification service to workflow events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Workflow == nil {
		return nil, fmt.Errorf("workflow config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := newLoggerAdapter(deps.Logger.Named("service"))
	catalog := deps.Policy.Catalog

	fichas := service.NewFichaService(
		deps.Policy,
		deps.Repos.Fichas,
		deps.Repos.Children,
		deps.Repos.Movements,
		deps.Repos.Rejections,
		deps.TxManager,
		serviceLogger,
		service.WithFichaDispatcher(deps.Dispatcher),
		service.WithImageStorage(deps.Images),
		service.WithStageImages(deps.Repos.Gallery),
		service.WithCodeFormat(deps.Workflow.CodePrefix, deps.Workflow.CodeRetryAttempts),
	)

	gallery := service.NewGalleryService(
		catalog,
		deps.Repos.Fichas,
		deps.Repos.Gallery,
		deps.Images,
		serviceLogger,
	)

	notifications := service.NewNotificationService(
		catalog,
		deps.Repos.Users,
		deps.Repos.Notifications,
		deps.Messenger,
		serviceLogger,
	)
	if deps.Dispatcher != nil {
		notifications.RegisterHandlers(deps.Dispatcher)
	}

	return &ServiceBundle{
		Fichas:        fichas,
		Gallery:       gallery,
		Notifications: notifications,
		Dashboard: service.NewDashboardService(
			catalog,
			deps.Repos.Dashboard,
			deps.Repos.Fichas,
			deps.Repos.Movements,
			deps.Workflow.UpcomingDeadlineDays,
			serviceLogger,
		),
		Reports: service.NewReportService(catalog, fichas, serviceLogger),
	}, nil
}

// ProvideWorkers registers the overdue sweep when an interval is configured.
// The returned manager may have no workers.
func ProvideWorkers(cfg *WorkflowConfig, sweeper worker.Sweeper, logger *zap.Logger) *worker.Manager {
	manager := worker.NewManager(logger)
	if cfg != nil && cfg.OverdueSweepInterval > 0 {
		manager.Register(worker.NewOverdueWorker(sweeper, cfg.OverdueSweepInterval, logger))
	}
	return manager
}
