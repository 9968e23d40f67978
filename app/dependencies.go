package app

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/sketch-gateway/config"
	"github.com/upb/sketch-gateway/internal/observability"
	"github.com/upb/sketch-gateway/middleware"
	"github.com/upb/sketch-gateway/repositories"
	"github.com/upb/sketch-gateway/repositories/postgres"
	"github.com/upb/sketch-gateway/services/audit"
	"github.com/upb/sketch-gateway/services/backend"
	"github.com/upb/sketch-gateway/services/fallback"
	"github.com/upb/sketch-gateway/services/gateway"
	"github.com/upb/sketch-gateway/services/mock"
	"go.uber.org/zap"
)

// defaultAuditStopTimeout bounds the audit drain when Close gets a context without deadline
const defaultAuditStopTimeout = 5 * time.Second

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Dispatch audit trail; nil when DATABASE_URL is not set
	RepoFactory *postgres.RepositoryFactory
	DB          *postgres.DB
	Dispatches  repositories.DispatchRepository
	Audit       *audit.AuditService

	// Gateway
	Backend *backend.Client
	Mock    *mock.Generator
	Policy  *fallback.Policy
	Metrics *observability.DispatchMetrics
	Gateway *gateway.Service

	// Auth; AuthMiddleware is nil when no shared secret is configured
	TokenValidator *middleware.HMACValidator
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies creates and wires up all application dependencies.
// Nothing here contacts the generation backend; its health is probed per request.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Database != nil {
		if err := deps.initDatabase(ctx, cfg); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := deps.initAudit(cfg); err != nil {
			_ = deps.RepoFactory.Close()
			return nil, fmt.Errorf("failed to initialize audit service: %w", err)
		}
	} else {
		logger.Warn("DATABASE_URL not set, dispatch audit trail disabled")
	}

	deps.initGateway(cfg)
	deps.initAuth(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("backend_url", deps.Backend.BaseURL()),
		zap.Bool("live_generate", cfg.Backend.LiveGenerate),
		zap.Bool("auth_enabled", deps.AuthMiddleware != nil),
		zap.Bool("audit_enabled", deps.Audit != nil))
	return deps, nil
}

// initDatabase opens the audit database and prepares its schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(*cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize dispatch schema: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()
	d.Dispatches = factory.NewRepositories().Dispatches

	return nil
}

// initAudit starts the asynchronous dispatch log writer
func (d *Dependencies) initAudit(cfg *config.Config) error {
	svc := audit.NewAuditService(d.Dispatches, d.Logger, audit.Config{
		BufferSize:  cfg.Database.AuditBufferSize,
		WorkerCount: cfg.Database.AuditWorkers,
	})
	if err := svc.Start(); err != nil {
		return err
	}
	d.Audit = svc
	return nil
}

// initGateway wires the backend client, fallback policy and mock generator into the gateway service
func (d *Dependencies) initGateway(cfg *config.Config) {
	d.Backend = backend.NewClient(backend.Config{
		BaseURL:        cfg.Backend.BaseURL,
		HealthTimeout:  cfg.Backend.HealthTimeout,
		RequestTimeout: cfg.Backend.RequestTimeout,
	}, d.Logger.Named("backend"))

	d.Mock = mock.NewGenerator(mock.Config{
		Delay:            cfg.Mock.Delay,
		Width:            cfg.Mock.Width,
		Height:           cfg.Mock.Height,
		ModelName:        cfg.Mock.ModelName,
		OutputDir:        cfg.Mock.OutputDir,
		DefaultNumImages: cfg.Mock.DefaultSize,
	}, d.Logger.Named("mock"))

	d.Policy = fallback.NewPolicy(cfg.Backend.LiveGenerate)
	d.Metrics = observability.NewDispatchMetrics()

	// A nil *AuditService must not reach the service as a non-nil interface
	var recorder audit.Recorder
	if d.Audit != nil {
		recorder = d.Audit
	}

	d.Gateway = gateway.NewService(d.Backend, d.Mock, d.Policy, recorder, d.Metrics, d.Logger.Named("gateway"))
}

// initAuth enables the token guard when a shared secret is configured
func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Auth.Secret == "" {
		d.Logger.Warn("gateway auth secret not configured, API routes are open")
		return
	}
	d.TokenValidator = middleware.NewHMACValidator(cfg.Auth.Secret, cfg.Auth.Issuer)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.TokenValidator, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain queued dispatch logs before the pool goes away
	if d.Audit != nil {
		timeout := defaultAuditStopTimeout
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Audit.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit service: %w", err))
		}
		d.Audit = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
		d.DB = nil
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
