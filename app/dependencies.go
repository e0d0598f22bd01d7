package app

import (
	"context"
	"fmt"

	"github.com/upb/rolegate/config"
	"github.com/upb/rolegate/handlers"
	"github.com/upb/rolegate/internal/observability"
	"github.com/upb/rolegate/middleware"
	"github.com/upb/rolegate/repositories"
	"github.com/upb/rolegate/repositories/postgres"
	"github.com/upb/rolegate/services/consumers"
	"github.com/upb/rolegate/services/rolecheck"
	"github.com/upb/rolegate/services/users"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	Consumers repositories.ConsumerRepository
	TxManager repositories.TransactionManager

	// Services
	UserService     *users.UserService
	ConsumerService *consumers.ConsumerService

	// Authorization
	RoleCheck *middleware.RoleCheckMiddleware

	// Observability
	MeterProvider *observability.MeterProvider
}

// NewDependencies creates and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	repos := deps.RepoFactory.Repositories()
	if err := deps.wire(repos, deps.RepoFactory.TxManager()); err != nil {
		_ = deps.RepoFactory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewDependenciesFromRepositories wires services and the role check gate over
// already constructed repositories. No database handle is attached, so the
// readiness probe reports not ready.
func NewDependenciesFromRepositories(cfg *config.Config, logger *zap.Logger, repos *repositories.Repositories, txMgr repositories.TransactionManager) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}
	if err := deps.wire(repos, txMgr); err != nil {
		return nil, err
	}
	return deps, nil
}

func (d *Dependencies) wire(repos *repositories.Repositories, txMgr repositories.TransactionManager) error {
	d.Users = repos.Users
	d.Consumers = repos.Consumers
	d.TxManager = txMgr
	d.Logger.Info("repositories initialized")

	if err := d.initObservability(); err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := d.initAuthorization(); err != nil {
		return fmt.Errorf("failed to initialize authorization: %w", err)
	}

	return nil
}

// initDatabase initializes the PostgreSQL connection and creates the schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.DB()

	if err := d.DB.InitSchema(ctx); err != nil {
		_ = factory.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

func (d *Dependencies) initObservability() error {
	provider, err := observability.NewMeterProvider(d.Config.Observability.MetricsEnabled, d.Logger)
	if err != nil {
		return err
	}
	d.MeterProvider = provider
	return nil
}

// initAuthorization builds the services and the role check gate in front of them
func (d *Dependencies) initAuthorization() error {
	hasher := rolecheck.NewBcryptHasher(d.Config.Auth.BcryptCost)

	d.UserService = users.NewUserService(d.Users, d.TxManager, hasher, d.Logger)
	d.ConsumerService = consumers.NewConsumerService(d.Consumers, d.Logger)

	metrics, err := observability.NewAuthzMetrics(d.MeterProvider)
	if err != nil {
		return fmt.Errorf("failed to create authorization metrics: %w", err)
	}

	evaluator := rolecheck.NewEvaluator(
		rolecheck.NewBasicAuthValidator(d.Users, hasher, d.Logger),
		rolecheck.NewCertificateConsumerValidator(
			rolecheck.NewClientCertificateExtractor(d.Config.Auth.ClientCertHeader),
			rolecheck.NewX509SubjectParser(),
			d.Consumers,
			d.Logger,
		),
		d.Logger,
	)
	d.RoleCheck = middleware.NewRoleCheckMiddleware(evaluator, metrics, d.Logger)

	d.Logger.Info("role check initialized",
		zap.Bool("client_cert_header", d.Config.Auth.ClientCertHeader != ""))
	return nil
}

// Readiness returns the database health check, or nil when no database is
// attached. A nil *postgres.DB is never returned inside the interface.
func (d *Dependencies) Readiness() handlers.ReadinessChecker {
	if d.DB == nil {
		return nil
	}
	return d.DB
}

// EnsureBootstrapAdmin creates the configured administrator if it is missing
func (d *Dependencies) EnsureBootstrapAdmin(ctx context.Context) error {
	created, err := d.UserService.EnsureBootstrapAdmin(ctx, d.Config.Auth.BootstrapAdminLogin, d.Config.Auth.BootstrapAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if created {
		d.Logger.Info("bootstrap admin provisioned", zap.String("login", d.Config.Auth.BootstrapAdminLogin))
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.MeterProvider != nil {
		if err := d.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shut down meter provider: %w", err))
		}
		d.MeterProvider = nil
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
